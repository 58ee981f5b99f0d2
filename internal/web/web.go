// Package web serves the RoomieZ pages: the listing grid, the details
// page, login/register, and the owner-scoped configuration dashboard.
// Every page bootstraps through the session guard before any protected
// content is rendered or any owner-scoped request is issued.
package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/roomiez/webapp/internal/api"
	"github.com/roomiez/webapp/internal/config"
	"github.com/roomiez/webapp/internal/storage"
)

type Server struct {
	log    *zap.Logger
	server *http.Server
}

type Params struct {
	fx.In

	Log    *zap.Logger
	Config *config.Config
	Store  storage.Store
	Clock  clockwork.Clock
	API    *api.Client
}

func New(p Params) (*Server, error) {
	sessions := newSessionManager(p.Store)

	h := &handlers{
		log:      p.Log,
		api:      p.API,
		clock:    p.Clock,
		sessions: sessions,
	}

	root := chi.NewRouter()
	root.Use(requestLogger(p.Log))
	root.Use(sessions.LoadAndSave)
	root.Use(h.withGuard)

	// Pages that render for everyone
	root.Group(func(r chi.Router) {
		r.Get("/", h.index)
		r.Get("/details/{id}", h.details)
		r.Post("/login", h.login)
		r.Post("/register", h.register)
		r.Post("/logout", h.logout)

		r.Handle("/static/*", http.StripPrefix("/static", http.FileServer(http.Dir("web/static/"))))
	})

	// Owner-scoped pages
	root.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Get("/config", h.configPage)
		r.Post("/config/profile", h.updateProfile)
		r.Post("/config/contacts", h.updateContacts)
		r.Post("/roomz", h.createRoom)
		r.Post("/roomz/{id}", h.updateRoom)
		r.Post("/roomz/{id}/delete", h.deleteRoom)
	})

	return &Server{
		log: p.Log,
		server: &http.Server{
			Addr:    fmt.Sprintf("localhost:%d", p.Config.Server.Port),
			Handler: root,
		},
	}, nil
}

// RegisterHooks should be invoked by fx
func RegisterHooks(lc fx.Lifecycle, s *Server) {
	lc.Append(fx.Hook{
		OnStart: s.Start,
		OnStop:  s.server.Shutdown,
	})
}

func (s *Server) Start(_ context.Context) error {
	go func() {
		err := s.server.ListenAndServe()
		if err != nil {
			s.log.Error("error starting server", zap.Error(err))
		}
	}()
	return nil
}
