package web

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/roomiez/webapp/internal/api"
	"github.com/roomiez/webapp/internal/model"
	"github.com/roomiez/webapp/internal/nav"
)

type handlers struct {
	log      *zap.Logger
	api      *api.Client
	clock    clockwork.Clock
	sessions *scs.SessionManager
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	guard := guardFrom(r)

	rooms, err := h.api.ListRooms(r.Context())
	if err != nil {
		h.log.Error("loading listings failed", zap.Error(err))
	}
	rooms = filterRooms(rooms, r.URL.Query().Get("filter"))
	rooms = searchRooms(rooms, r.URL.Query().Get("q"))

	err = render(w, r, "index.html", &pageData{
		PageTitle: "RoomieZ",
		User:      guard.User(),
		Rooms:     rooms,
		Message:   nav.ReasonMessage(r.URL.Query().Get(nav.ReasonParam)),
		Error:     r.URL.Query().Get("error"),
	})
	if err != nil {
		h.log.Error("rendering index failed", zap.Error(err))
	}
}

func (h *handlers) details(w http.ResponseWriter, r *http.Request) {
	guard := guardFrom(r)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	room, err := h.api.GetRoom(r.Context(), id)
	if err != nil {
		h.log.Error("loading listing failed", zap.Int("room_id", id), zap.Error(err))
		nav.RedirectTo(w, r, "/", url.Values{"error": {"Could not load that listing."}})
		return
	}

	owner, err := h.api.GetUser(r.Context(), room.UserID)
	if err != nil {
		h.log.Warn("loading listing owner failed", zap.Int("user_id", room.UserID), zap.Error(err))
	}

	// Contact details are only shown to signed-in users.
	var contacts []model.Contact
	if guard.Authorized() {
		contacts, err = h.api.GetUserContacts(r.Context(), room.UserID)
		if err != nil {
			h.log.Warn("loading owner contacts failed", zap.Int("user_id", room.UserID), zap.Error(err))
		}
	}

	err = render(w, r, "details.html", &pageData{
		PageTitle: room.Title,
		User:      guard.User(),
		Room:      room,
		Owner:     owner,
		Contacts:  contacts,
	})
	if err != nil {
		h.log.Error("rendering details failed", zap.Error(err))
	}
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	guard := guardFrom(r)

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	user, err := h.api.Login(r.Context(), email, password)
	if err != nil {
		h.log.Info("login failed", zap.String("email", email), zap.Error(err))
		nav.RedirectTo(w, r, "/", url.Values{"error": {loginErrorMessage(err)}})
		return
	}

	if err := guard.Establish(r.Context(), user); err != nil {
		h.log.Error("establishing session failed", zap.Error(err))
		nav.RedirectTo(w, r, "/", url.Values{"error": {"Could not start your session. Try again."}})
		return
	}

	nav.RedirectTo(w, r, "/", nil)
}

func loginErrorMessage(err error) string {
	switch {
	case errors.Is(err, api.ErrEmailNotFound):
		return "Email not found"
	case errors.Is(err, api.ErrInvalidCredentials):
		return "Incorrect password"
	default:
		return "Connection error. Please try again."
	}
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	guard := guardFrom(r)

	in := api.RegisterInput{
		FirstName:  strings.TrimSpace(r.FormValue("firstName")),
		MiddleName: strings.TrimSpace(r.FormValue("middleName")),
		LastName:   strings.TrimSpace(r.FormValue("lastName")),
		Email:      strings.TrimSpace(r.FormValue("email")),
		Password:   r.FormValue("password"),
		City:       strings.TrimSpace(r.FormValue("city")),
		Birthdate:  strings.TrimSpace(r.FormValue("birthDate")),
	}

	user, err := h.api.Register(r.Context(), in)
	if err != nil {
		h.log.Info("registration failed", zap.String("email", in.Email), zap.Error(err))
		nav.RedirectTo(w, r, "/", url.Values{"error": {registerErrorMessage(err)}})
		return
	}

	if err := guard.Establish(r.Context(), user); err != nil {
		h.log.Error("establishing session failed", zap.Error(err))
		nav.RedirectTo(w, r, "/", url.Values{"error": {"Could not start your session. Try again."}})
		return
	}

	nav.RedirectTo(w, r, "/config", url.Values{"userId": {strconv.Itoa(user.ID)}})
}

func registerErrorMessage(err error) string {
	switch {
	case errors.Is(err, api.ErrEmailTaken):
		return "This email is already registered"
	case errors.Is(err, api.ErrInvalidEmail):
		return "Please enter a valid email address"
	case errors.Is(err, api.ErrUnderage):
		return "You must be at least 18 years old to register"
	default:
		return "Connection error. Please try again."
	}
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	guard := guardFrom(r)
	if err := guard.Clear(r.Context()); err != nil {
		h.log.Error("clearing session failed", zap.Error(err))
	}
	nav.RedirectTo(w, r, "/", nav.WithReason(nav.ReasonLoggedOut))
}

func (h *handlers) configPage(w http.ResponseWriter, r *http.Request) {
	guard := guardFrom(r)

	// A shared config link may carry a target id; a mismatch is a hard
	// deny, not a silent downgrade.
	if target, ok := nav.IntParam(r, "userId"); ok && !guard.Authorized(target) {
		h.deny(w, r, target)
		return
	}

	id, _ := guard.UserID()

	user, err := h.api.GetUser(r.Context(), id)
	if err != nil {
		h.log.Warn("loading profile failed, using cached copy", zap.Int("user_id", id), zap.Error(err))
		user = guard.User()
	}

	contacts, err := h.api.GetUserContacts(r.Context(), id)
	if err != nil {
		h.log.Warn("loading contacts failed", zap.Int("user_id", id), zap.Error(err))
	}

	rooms, err := h.api.RoomsByUser(r.Context(), id)
	if err != nil {
		h.log.Warn("loading own listings failed", zap.Int("user_id", id), zap.Error(err))
	}

	err = render(w, r, "config.html", &pageData{
		PageTitle: "Configuration",
		User:      user,
		Contacts:  contacts,
		Rooms:     rooms,
		Error:     r.URL.Query().Get("error"),
	})
	if err != nil {
		h.log.Error("rendering config failed", zap.Error(err))
	}
}

// deny clears the session and sends the user back with a distinct
// message.
func (h *handlers) deny(w http.ResponseWriter, r *http.Request, target int) {
	guard := guardFrom(r)
	id, _ := guard.UserID()
	h.log.Warn("ownership check failed",
		zap.Int("session_user", id),
		zap.Int("target_user", target),
	)
	if err := guard.Clear(r.Context()); err != nil {
		h.log.Error("clearing session failed", zap.Error(err))
	}
	nav.RedirectTo(w, r, "/", nav.WithReason(nav.ReasonNoPermission))
}

func (h *handlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	guard := guardFrom(r)

	if target, ok := nav.IntParam(r, "userId"); ok && !guard.Authorized(target) {
		h.deny(w, r, target)
		return
	}

	id, _ := guard.UserID()
	patch := patchFromForm(r)

	if err := h.api.UpdateUser(r.Context(), id, patch); err != nil {
		h.log.Error("profile update failed", zap.Int("user_id", id), zap.Error(err))
		nav.RedirectTo(w, r, "/config", url.Values{"error": {"Could not save your profile. Try again."}})
		return
	}

	// Refresh the cached copy only after the backend accepted the
	// write. The session timestamp is untouched.
	if err := guard.UpdateProfile(r.Context(), patch); err != nil {
		h.log.Error("refreshing cached profile failed", zap.Error(err))
	}

	nav.RedirectTo(w, r, "/config", nil)
}

func (h *handlers) updateContacts(w http.ResponseWriter, r *http.Request) {
	guard := guardFrom(r)

	if target, ok := nav.IntParam(r, "userId"); ok && !guard.Authorized(target) {
		h.deny(w, r, target)
		return
	}

	id, _ := guard.UserID()
	contacts := contactsFromForm(r, id)

	if err := h.api.UpdateUserContacts(r.Context(), id, contacts); err != nil {
		h.log.Error("contacts update failed", zap.Int("user_id", id), zap.Error(err))
		nav.RedirectTo(w, r, "/config", url.Values{"error": {"Could not save your contacts. Try again."}})
		return
	}

	nav.RedirectTo(w, r, "/config", nil)
}

func (h *handlers) createRoom(w http.ResponseWriter, r *http.Request) {
	guard := guardFrom(r)
	id, _ := guard.UserID()

	room := roomFromForm(r)
	// Ownership comes from the session, never from the form.
	room.UserID = id

	if err := h.api.CreateRoom(r.Context(), room); err != nil {
		h.log.Error("creating listing failed", zap.Int("user_id", id), zap.Error(err))
		nav.RedirectTo(w, r, "/config", url.Values{"error": {"Could not publish your listing. Try again."}})
		return
	}

	nav.RedirectTo(w, r, "/config", nil)
}

func (h *handlers) updateRoom(w http.ResponseWriter, r *http.Request) {
	guard := guardFrom(r)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	existing, err := h.api.GetRoom(r.Context(), id)
	if err != nil {
		h.log.Error("loading listing failed", zap.Int("room_id", id), zap.Error(err))
		nav.RedirectTo(w, r, "/config", url.Values{"error": {"Could not load that listing."}})
		return
	}

	if !guard.Authorized(existing.UserID) {
		h.deny(w, r, existing.UserID)
		return
	}

	room := roomFromForm(r)
	room.ID = existing.ID
	room.UserID = existing.UserID

	if err := h.api.UpdateRoom(r.Context(), room); err != nil {
		h.log.Error("updating listing failed", zap.Int("room_id", id), zap.Error(err))
		nav.RedirectTo(w, r, "/config", url.Values{"error": {"Could not save your listing. Try again."}})
		return
	}

	nav.RedirectTo(w, r, "/config", nil)
}

func (h *handlers) deleteRoom(w http.ResponseWriter, r *http.Request) {
	guard := guardFrom(r)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	existing, err := h.api.GetRoom(r.Context(), id)
	if err != nil {
		h.log.Error("loading listing failed", zap.Int("room_id", id), zap.Error(err))
		nav.RedirectTo(w, r, "/config", url.Values{"error": {"Could not load that listing."}})
		return
	}

	if !guard.Authorized(existing.UserID) {
		h.deny(w, r, existing.UserID)
		return
	}

	if err := h.api.DeleteRoom(r.Context(), id); err != nil {
		h.log.Error("deleting listing failed", zap.Int("room_id", id), zap.Error(err))
		nav.RedirectTo(w, r, "/config", url.Values{"error": {"Could not delete your listing. Try again."}})
		return
	}

	nav.RedirectTo(w, r, "/config", nil)
}

func patchFromForm(r *http.Request) model.UserPatch {
	var patch model.UserPatch
	if v, ok := formValue(r, "firstName"); ok {
		patch.FirstName = &v
	}
	if v, ok := formValue(r, "lastName"); ok {
		patch.LastName = &v
	}
	if v, ok := formValue(r, "email"); ok {
		patch.Email = &v
	}
	if v, ok := formValue(r, "city"); ok {
		patch.City = &v
	}
	if v, ok := formValue(r, "birthdate"); ok {
		patch.Birthdate = &v
	}
	return patch
}

// formValue distinguishes an absent field from an empty one so a form
// that omits a field leaves it unpatched.
func formValue(r *http.Request, name string) (string, bool) {
	_ = r.ParseForm()
	vs, ok := r.PostForm[name]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return strings.TrimSpace(vs[0]), true
}

func contactsFromForm(r *http.Request, userID int) []model.Contact {
	_ = r.ParseForm()
	types := r.PostForm["contactType"]
	values := r.PostForm["contactValue"]

	var contacts []model.Contact
	for i := 0; i < len(types) && i < len(values); i++ {
		t := strings.TrimSpace(types[i])
		v := strings.TrimSpace(values[i])
		if t == "" || v == "" {
			continue
		}
		contacts = append(contacts, model.Contact{UserID: userID, Type: t, Value: v})
	}
	return contacts
}

func roomFromForm(r *http.Request) *model.Room {
	price, _ := strconv.ParseFloat(r.FormValue("price"), 64)
	return &model.Room{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Subtitle:    strings.TrimSpace(r.FormValue("subtitle")),
		Details:     strings.TrimSpace(r.FormValue("details")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Address:     strings.TrimSpace(r.FormValue("address")),
		Price:       price,
		RoomzType:   strings.TrimSpace(r.FormValue("roomzType")),
		IsAvailable: model.Flag(r.FormValue("isAvailable") != ""),
	}
}
