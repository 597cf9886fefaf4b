package transporthttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrKriegler/go-claims/internal/http/handlers"
	"github.com/MrKriegler/go-claims/internal/middleware"
)

// Deps bundles feature handlers that implement handlers.Mountable,
// plus the health endpoints, which stay outside the JSON middleware.
type Deps struct {
	Health http.Handler
	Mounts []handlers.Mountable
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	if d.Health != nil {
		r.Mount("/", d.Health)
	}

	// Mount each feature's routes into this router.
	r.Group(func(r chi.Router) {
		r.Use(middleware.SetJSONContentType)
		for _, m := range d.Mounts {
			m.Mount(r)
		}
	})

	return r
}
