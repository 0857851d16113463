package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/steamjump/internal/httpserver/deps"
	"github.com/MrSnakeDoc/steamjump/internal/httpserver/handlers"
)

func init() { Register(Mutating, registerLaunch) }

func registerLaunch(r chi.Router, d deps.Deps) {
	r.Post("/launch", handlers.Launch(d))
}
