package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/steamjump/internal/httpserver/deps"
	"github.com/MrSnakeDoc/steamjump/internal/httpserver/handlers"
)

func init() { Register(Query, registerSearch) }

func registerSearch(r chi.Router, d deps.Deps) {
	r.Get("/search", handlers.Search(d))
}
