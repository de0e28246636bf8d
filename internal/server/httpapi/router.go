package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const requestTimeout = 60 * time.Second

// NewRouter wires the API routes onto a chi router with the standard
// middleware stack.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Post("/signup", h.HandleSignUp)
	r.Post("/signin", h.HandleSignIn)
	r.Get("/group/{user_id}", h.HandleGetGroup)
	r.Put("/user/{user_id}", h.HandleUpdateUser)
	r.Delete("/user/{user_id}", h.HandleDeleteUser)

	return r
}
