package classwork

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ClassTrack/CT-Backend/internal/api"
	"github.com/ClassTrack/CT-Backend/internal/db"
	"github.com/ClassTrack/CT-Backend/internal/utils"
)

var assignmentOrdering = map[string]string{
	"start":    "start",
	"deadline": "deadline",
	"created":  "created_at",
}

type assignmentInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Start       *time.Time `json:"start"`
	Deadline    *time.Time `json:"deadline"`
}

func (in assignmentInput) validate() []api.FieldError {
	var errs []api.FieldError
	if in.Title == "" {
		errs = append(errs, api.FieldError{Attr: "title", Detail: "This field is required."})
	}
	if len(in.Title) > 255 {
		errs = append(errs, api.FieldError{Attr: "title", Detail: "Ensure this field has no more than 255 characters."})
	}
	return errs
}

func ListAssignments(w http.ResponseWriter, r *http.Request) {
	tx := db.DB.Model(&Assignment{}).
		Joins("LEFT JOIN app_auth.users ON app_auth.users.id = classwork.assignments.creator_id")
	tx = api.ApplySearch(tx, r, "classwork.assignments.title", "app_auth.users.email")

	if creatorID := r.URL.Query().Get("creator_id"); creatorID != "" {
		tx = tx.Where("classwork.assignments.creator_id = ?", creatorID)
	}

	var count int64
	if err := tx.Count(&count).Error; err != nil {
		api.WriteDetail(w, http.StatusInternalServerError, "Failed to count assignments")
		return
	}

	tx = api.ApplyOrdering(tx, r, assignmentOrdering)

	var assignments []Assignment
	page := api.ParsePage(r)
	if err := page.Apply(tx).Preload("Creator").Find(&assignments).Error; err != nil {
		api.WriteDetail(w, http.StatusInternalServerError, "Failed to fetch assignments")
		return
	}

	api.WriteJSON(w, http.StatusOK, api.ListResponse{Count: count, Results: assignments})
}

func GetAssignment(w http.ResponseWriter, r *http.Request) {
	assignment, ok := findAssignment(w, r)
	if !ok {
		return
	}
	api.WriteJSON(w, http.StatusOK, assignment)
}

func CreateAssignment(w http.ResponseWriter, r *http.Request) {
	actor, _ := utils.GetActorFromContext(r.Context())

	var input assignmentInput
	if !api.DecodeJSON(w, r, &input) {
		return
	}
	if errs := input.validate(); len(errs) > 0 {
		api.WriteValidation(w, errs)
		return
	}

	assignment := Assignment{
		CreatorID:   &actor.UserID,
		Title:       input.Title,
		Description: input.Description,
		Start:       input.Start,
		Deadline:    input.Deadline,
	}
	if err := db.DB.Create(&assignment).Error; err != nil {
		api.WriteDetail(w, http.StatusInternalServerError, "Failed to create assignment")
		return
	}

	api.WriteJSON(w, http.StatusCreated, assignment)
}

// UpdateAssignment is a full PUT; there is no PATCH, serializers expect
// all writable fields.
func UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	assignment, ok := findAssignment(w, r)
	if !ok {
		return
	}

	var input assignmentInput
	if !api.DecodeJSON(w, r, &input) {
		return
	}
	if errs := input.validate(); len(errs) > 0 {
		api.WriteValidation(w, errs)
		return
	}

	updates := map[string]any{
		"title":       input.Title,
		"description": input.Description,
		"start":       input.Start,
		"deadline":    input.Deadline,
	}
	if err := db.DB.Model(&assignment).Updates(updates).Error; err != nil {
		api.WriteDetail(w, http.StatusInternalServerError, "Failed to update assignment")
		return
	}

	assignment.Title = input.Title
	assignment.Description = input.Description
	assignment.Start = input.Start
	assignment.Deadline = input.Deadline
	api.WriteJSON(w, http.StatusOK, assignment)
}

// DeleteAssignment is creator-only: a non-creator gets an explicit 403
// after retrieval, not a 404.
func DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	actor, _ := utils.GetActorFromContext(r.Context())

	assignment, ok := findAssignment(w, r)
	if !ok {
		return
	}

	if assignment.CreatorID == nil || *assignment.CreatorID != actor.UserID {
		api.WriteDetail(w, http.StatusForbidden,
			"You do not have permission to delete this assignment.")
		return
	}

	if err := db.DB.Delete(&assignment).Error; err != nil {
		api.WriteDetail(w, http.StatusInternalServerError, "Failed to delete assignment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func findAssignment(w http.ResponseWriter, r *http.Request) (Assignment, bool) {
	var assignment Assignment

	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		api.WriteDetail(w, http.StatusNotFound, "Not found.")
		return assignment, false
	}
	if err := db.DB.Preload("Creator").First(&assignment, "id = ?", id).Error; err != nil {
		api.WriteDetail(w, http.StatusNotFound, "Not found.")
		return assignment, false
	}
	return assignment, true
}
