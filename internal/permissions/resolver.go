package permissions

import (
	"errors"
	"net/http"

	"github.com/ClassTrack/CT-Backend/internal/api"
	"github.com/ClassTrack/CT-Backend/internal/utils"
)

// Config declares the permission checks for an endpoint group.
//
// Base checks apply to every action. For a given action, PerAction[action]
// is appended to Base; an action missing from PerAction falls back to
// Extra (which may be empty). Duplicate checks, by Name, collapse to
// their first occurrence with order preserved.
//
// Default exists only to catch configurations that try to bypass the
// base/extra/per-action mechanism with a flat permission list. Setting it
// is a configuration error surfaced at setup time, never at request time.
type Config struct {
	Base      []Check
	Extra     []Check
	PerAction map[string][]Check

	// Default is not supported. Use Base + Extra or Base + PerAction.
	Default []Check
}

// Resolver computes the ordered check set for each action.
type Resolver struct {
	base      []Check
	extra     []Check
	perAction map[string][]Check
}

var ErrFlatDefault = errors.New(
	"permissions: Default is not supported; use Base + Extra or Base + PerAction")

var ErrEmptyBase = errors.New(
	"permissions: Base must not be empty; use AllowAny explicitly for public endpoints")

// New validates the config and builds a Resolver. A completely zero config
// yields the deny-all posture of an admin-only resolver.
func New(cfg Config) (*Resolver, error) {
	if cfg.Default != nil {
		return nil, ErrFlatDefault
	}

	if len(cfg.Base) == 0 {
		if len(cfg.Extra) > 0 || len(cfg.PerAction) > 0 {
			return nil, ErrEmptyBase
		}
		cfg.Base = []Check{IsAdmin}
	}

	for _, c := range allChecks(cfg) {
		if c == nil {
			return nil, errors.New("permissions: nil check in config")
		}
	}

	return &Resolver{
		base:      cfg.Base,
		extra:     cfg.Extra,
		perAction: cfg.PerAction,
	}, nil
}

// MustNew is New for setup paths where a bad config should stop the app.
func MustNew(cfg Config) *Resolver {
	r, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return r
}

// ForAction returns the deduplicated, order-preserving check set for an
// action: base checks first, then the action's extra checks.
func (r *Resolver) ForAction(action string) []Check {
	extra, ok := r.perAction[action]
	if !ok {
		extra = r.extra
	}

	seen := make(map[string]struct{}, len(r.base)+len(extra))
	resolved := make([]Check, 0, len(r.base)+len(extra))
	for _, c := range append(append([]Check{}, r.base...), extra...) {
		if _, dup := seen[c.Name()]; dup {
			continue
		}
		seen[c.Name()] = struct{}{}
		resolved = append(resolved, c)
	}
	return resolved
}

// Allow reports whether every resolved check admits the actor.
func (r *Resolver) Allow(actor utils.Actor, action string) bool {
	for _, check := range r.ForAction(action) {
		if !check.Allow(actor, action) {
			return false
		}
	}
	return true
}

// Require enforces the resolver for one action before the handler runs.
// Anonymous denials get 401, authenticated ones 403.
func Require(r *Resolver, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			actor, _ := utils.GetActorFromContext(req.Context())

			if !r.Allow(actor, action) {
				if !actor.Authenticated {
					api.WriteDetail(w, http.StatusUnauthorized,
						"Authentication credentials were not provided.")
					return
				}
				api.WriteDetail(w, http.StatusForbidden,
					"You do not have permission to perform this action.")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func allChecks(cfg Config) []Check {
	out := append(append([]Check{}, cfg.Base...), cfg.Extra...)
	for _, checks := range cfg.PerAction {
		out = append(out, checks...)
	}
	return out
}
