package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/steamjump/internal/httpserver/deps"
	"github.com/MrSnakeDoc/steamjump/internal/httpserver/handlers"
)

func init() { Register(Mutating, registerReload) }

func registerReload(r chi.Router, d deps.Deps) {
	r.Post("/reload", handlers.Reload(d))
}
