// Package api talks to the external RoomieZ backend. The client
// decodes the backend's response envelopes and reports failures as
// errors; it never retries and never assumes success. Credential
// validation and ownership enforcement are the backend's job.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/roomiez/webapp/internal/config"
	"github.com/roomiez/webapp/internal/model"
)

const (
	usersPath      = "/users"
	checkEmailPath = "/users/check-email"
	roomzPath      = "/roomz"
)

var (
	ErrEmailNotFound      = errors.New("email not registered")
	ErrInvalidCredentials = errors.New("incorrect password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrUnderage           = errors.New("must be at least 18 years old")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

type Params struct {
	fx.In

	Config *config.Config
	Log    *zap.Logger
}

func NewClient(p Params) *Client {
	return &Client{
		baseURL: strings.TrimRight(p.Config.API.BaseURL, "/"),
		http:    &http.Client{Timeout: p.Config.API.Timeout()},
		log:     p.Log,
	}
}

// backendUser is the raw wire shape; the session record carries the
// camelCase principal instead.
type backendUser struct {
	ID         int    `json:"id"`
	FirstName  string `json:"first_name"`
	MiddleName string `json:"middle_name,omitempty"`
	LastName   string `json:"last_name"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password,omitempty"`
	City       string `json:"city"`
	Birthdate  string `json:"birthdate"`
	Role       string `json:"role"`
	CreatedAt  string `json:"created_at,omitempty"`
}

func (u backendUser) principal() *model.User {
	return &model.User{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		City:      u.City,
		Birthdate: u.Birthdate,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: encode %s %s: %w", method, path, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("api: build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("api: read %s %s: %w", method, path, err)
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &apiErr)
		if apiErr.Error == "" {
			apiErr.Error = fmt.Sprintf("http status %d", resp.StatusCode)
		}
		return fmt.Errorf("api: %s %s: %s", method, path, apiErr.Error)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("api: decode %s %s: %w", method, path, err)
		}
	}
	return nil
}

// CheckEmail asks the backend whether an email is already registered.
func (c *Client) CheckEmail(ctx context.Context, email string) (bool, error) {
	var out struct {
		IsRegistered bool `json:"isRegistered"`
	}
	if err := c.do(ctx, http.MethodPost, checkEmailPath, map[string]string{"email": email}, &out); err != nil {
		return false, err
	}
	return out.IsRegistered, nil
}

// Login validates credentials against the backend and returns the
// principal on success. An unrecognized email is a hard failure, not an
// invitation to register.
func (c *Client) Login(ctx context.Context, email, password string) (*model.User, error) {
	registered, err := c.CheckEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !registered {
		return nil, ErrEmailNotFound
	}

	var out struct {
		Data []backendUser `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, usersPath, nil, &out); err != nil {
		return nil, err
	}

	for _, u := range out.Data {
		if u.Email == email && u.Password == password {
			return u.principal(), nil
		}
	}
	return nil, ErrInvalidCredentials
}

// RegisterInput carries the registration form fields.
type RegisterInput struct {
	FirstName  string
	MiddleName string
	LastName   string
	Email      string
	Password   string
	City       string
	Birthdate  string // YYYY-MM-DD
}

// Register creates a new account and returns the resulting principal.
func (c *Client) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if !emailPattern.MatchString(in.Email) {
		return nil, ErrInvalidEmail
	}

	registered, err := c.CheckEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if registered {
		return nil, ErrEmailTaken
	}

	age, err := AgeAt(in.Birthdate, time.Now())
	if err != nil {
		return nil, err
	}
	if age < 18 {
		return nil, ErrUnderage
	}

	city := in.City
	if city == "" {
		city = "Barranquilla"
	}

	payload := backendUser{
		FirstName:  in.FirstName,
		MiddleName: in.MiddleName,
		LastName:   in.LastName,
		Username:   strings.SplitN(in.Email, "@", 2)[0],
		Email:      in.Email,
		Password:   in.Password,
		City:       city,
		Birthdate:  in.Birthdate,
		Role:       "student",
	}

	var out struct {
		UserID int `json:"userId"`
	}
	if err := c.do(ctx, http.MethodPost, usersPath, payload, &out); err != nil {
		return nil, err
	}

	return &model.User{
		ID:        out.UserID,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      "student",
		City:      city,
		Birthdate: in.Birthdate,
	}, nil
}

// AgeAt computes full years between a YYYY-MM-DD birthdate and now.
func AgeAt(birthdate string, now time.Time) (int, error) {
	bd, err := time.Parse("2006-01-02", birthdate)
	if err != nil {
		return 0, fmt.Errorf("api: parse birthdate: %w", err)
	}
	age := now.Year() - bd.Year()
	if now.Month() < bd.Month() || (now.Month() == bd.Month() && now.Day() < bd.Day()) {
		age--
	}
	return age, nil
}

// GetUser fetches a user profile.
func (c *Client) GetUser(ctx context.Context, id int) (*model.User, error) {
	var out struct {
		Data backendUser `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/%d", usersPath, id), nil, &out); err != nil {
		return nil, err
	}
	return out.Data.principal(), nil
}

// UpdateUser pushes edited profile fields for a user.
func (c *Client) UpdateUser(ctx context.Context, id int, patch model.UserPatch) error {
	payload := map[string]any{}
	if patch.FirstName != nil {
		payload["first_name"] = *patch.FirstName
	}
	if patch.LastName != nil {
		payload["last_name"] = *patch.LastName
	}
	if patch.Email != nil {
		payload["email"] = *patch.Email
	}
	if patch.City != nil {
		payload["city"] = *patch.City
	}
	if patch.Birthdate != nil {
		payload["birthdate"] = *patch.Birthdate
	}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("%s/%d", usersPath, id), payload, nil)
}

// GetUserContacts fetches a user's contact methods.
func (c *Client) GetUserContacts(ctx context.Context, id int) ([]model.Contact, error) {
	var out struct {
		Data []model.Contact `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/%d/contacts", usersPath, id), nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// UpdateUserContacts replaces a user's contact methods.
func (c *Client) UpdateUserContacts(ctx context.Context, id int, contacts []model.Contact) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("%s/%d/contacts", usersPath, id),
		map[string]any{"contacts": contacts}, nil)
}

// ListRooms fetches every published listing.
func (c *Client) ListRooms(ctx context.Context) ([]model.Room, error) {
	var out struct {
		Data []model.Room `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, roomzPath, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// GetRoom fetches one listing.
func (c *Client) GetRoom(ctx context.Context, id int) (*model.Room, error) {
	var out struct {
		Room model.Room `json:"room"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/%d", roomzPath, id), nil, &out); err != nil {
		return nil, err
	}
	return &out.Room, nil
}

// RoomsByUser fetches the listings owned by a user.
func (c *Client) RoomsByUser(ctx context.Context, userID int) ([]model.Room, error) {
	var out struct {
		Data []model.Room `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/user/%d", roomzPath, userID), nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// CreateRoom publishes a new listing.
func (c *Client) CreateRoom(ctx context.Context, room *model.Room) error {
	return c.do(ctx, http.MethodPost, roomzPath, room, nil)
}

// UpdateRoom pushes edits to an existing listing.
func (c *Client) UpdateRoom(ctx context.Context, room *model.Room) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("%s/%d", roomzPath, room.ID), room, nil)
}

// DeleteRoom removes a listing.
func (c *Client) DeleteRoom(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", roomzPath, id), nil, nil)
}
