package classwork

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ClassTrack/CT-Backend/internal/auth"
	"github.com/ClassTrack/CT-Backend/internal/middleware"
	"github.com/ClassTrack/CT-Backend/internal/permissions"
)

// Mutating assignments is for lecturers and admins; everyone
// authenticated may read. Deletion additionally checks creatorship in the
// handler.
var assignmentResolver = permissions.MustNew(permissions.Config{
	Base: []permissions.Check{permissions.IsAuthenticated},
	PerAction: map[string][]permissions.Check{
		"create": {permissions.Or(permissions.IsLecturer, permissions.IsAdmin)},
		"update": {permissions.Or(permissions.IsLecturer, permissions.IsAdmin)},
		"delete": {permissions.Or(permissions.IsLecturer, permissions.IsAdmin)},
	},
})

var taskResolver = permissions.MustNew(permissions.Config{
	Base: []permissions.Check{permissions.IsAuthenticated},
})

func AssignmentRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.TokenMiddleware(auth.TokenInfo{}))

	r.With(permissions.Require(assignmentResolver, "list")).Get("/", ListAssignments)
	r.With(permissions.Require(assignmentResolver, "retrieve")).Get("/{id}", GetAssignment)
	r.With(permissions.Require(assignmentResolver, "create")).Post("/", CreateAssignment)
	r.With(permissions.Require(assignmentResolver, "update")).Put("/{id}", UpdateAssignment)
	r.With(permissions.Require(assignmentResolver, "delete")).Delete("/{id}", DeleteAssignment)

	return r
}

func TaskRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.TokenMiddleware(auth.TokenInfo{}))

	r.With(permissions.Require(taskResolver, "list")).Get("/", ListTasks)
	r.With(permissions.Require(taskResolver, "percent_completed")).
		Get("/percent-completed", PercentCompleted)
	r.With(permissions.Require(taskResolver, "retrieve")).Get("/{id}", GetTask)
	r.With(permissions.Require(taskResolver, "create")).Post("/", CreateTask)
	r.With(permissions.Require(taskResolver, "update")).Put("/{id}", UpdateTask)
	r.With(permissions.Require(taskResolver, "delete")).Delete("/{id}", DeleteTask)

	return r
}
