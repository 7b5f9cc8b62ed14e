package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/ClassTrack/CT-Backend/internal/middleware"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()
	tokenFetcher := TokenInfo{}

	// Credential endpoints get a per-IP throttle to slow down guessing.
	r.Group(func(r chi.Router) {
		if n := cfg.ThrottlePerMin; n > 0 {
			r.Use(middleware.Throttle(rate.Every(time.Minute/time.Duration(n)), n))
		}
		r.Post("/login", LoginHandler)
		r.Post("/signup", SignupHandler)
		r.Post("/password/reset", PasswordResetHandler)
		r.Post("/password/reset/confirm", PasswordResetConfirmHandler)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.TokenMiddleware(tokenFetcher))
		r.Post("/logout", LogoutHandler)
		r.Post("/logout/all", LogoutAllHandler)
		r.Post("/password/change", PasswordChangeHandler)
	})

	return r
}
