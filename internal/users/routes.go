package users

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ClassTrack/CT-Backend/internal/auth"
	"github.com/ClassTrack/CT-Backend/internal/middleware"
	"github.com/ClassTrack/CT-Backend/internal/permissions"
)

// adminResolver guards the account collection: every action is admin only.
var adminResolver = permissions.MustNew(permissions.Config{
	Base: []permissions.Check{permissions.IsAdmin},
})

// profileResolver guards the self-service profile endpoints.
var profileResolver = permissions.MustNew(permissions.Config{
	Base: []permissions.Check{permissions.IsAuthenticated},
})

func SetupRoutes() http.Handler {
	r := chi.NewRouter()
	tokenFetcher := auth.TokenInfo{}

	r.Use(middleware.TokenMiddleware(tokenFetcher))

	r.Group(func(r chi.Router) {
		r.Use(permissions.Require(profileResolver, "profile"))
		r.Get("/profile", GetProfile)
		r.Put("/profile", UpdateProfile)
	})

	r.With(permissions.Require(adminResolver, "list")).Get("/", ListUsers)
	r.With(permissions.Require(adminResolver, "retrieve")).Get("/{id}", RetrieveUser)

	return r
}
