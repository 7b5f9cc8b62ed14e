package permissions

import (
	"strings"

	"github.com/ClassTrack/CT-Backend/internal/utils"
)

// Check is one permission predicate over (actor, action). Checks are
// identified by Name for deduplication, so two checks with the same name
// are treated as the same check.
type Check interface {
	Name() string
	Allow(actor utils.Actor, action string) bool
}

type simpleCheck struct {
	name string
	fn   func(actor utils.Actor, action string) bool
}

func (c simpleCheck) Name() string { return c.name }

func (c simpleCheck) Allow(actor utils.Actor, action string) bool {
	return c.fn(actor, action)
}

// AllowAny admits every caller, including anonymous ones.
var AllowAny Check = simpleCheck{
	name: "AllowAny",
	fn:   func(utils.Actor, string) bool { return true },
}

// IsAuthenticated admits any authenticated caller.
var IsAuthenticated Check = simpleCheck{
	name: "IsAuthenticated",
	fn: func(actor utils.Actor, _ string) bool {
		return actor.Authenticated
	},
}

// RoleIs admits authenticated callers holding the given role.
func RoleIs(role string) Check {
	return simpleCheck{
		name: "RoleIs(" + role + ")",
		fn: func(actor utils.Actor, _ string) bool {
			return actor.Authenticated && actor.Role == role
		},
	}
}

var (
	IsAdmin    = RoleIs("admin")
	IsLecturer = RoleIs("lecturer")
	IsStudent  = RoleIs("student")
)

type orCheck struct{ children []Check }

func (c orCheck) Name() string {
	return "Or(" + joinNames(c.children) + ")"
}

func (c orCheck) Allow(actor utils.Actor, action string) bool {
	for _, child := range c.children {
		if child.Allow(actor, action) {
			return true
		}
	}
	return false
}

type andCheck struct{ children []Check }

func (c andCheck) Name() string {
	return "And(" + joinNames(c.children) + ")"
}

func (c andCheck) Allow(actor utils.Actor, action string) bool {
	for _, child := range c.children {
		if !child.Allow(actor, action) {
			return false
		}
	}
	return true
}

// Or combines checks so that any one passing admits the caller.
func Or(children ...Check) Check { return orCheck{children: children} }

// And combines checks so that all must pass to admit the caller.
func And(children ...Check) Check { return andCheck{children: children} }

func joinNames(checks []Check) string {
	names := make([]string, len(checks))
	for i, c := range checks {
		names[i] = c.Name()
	}
	return strings.Join(names, ",")
}
