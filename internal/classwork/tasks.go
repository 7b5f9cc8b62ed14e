package classwork

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lib/pq"

	"github.com/ClassTrack/CT-Backend/internal/api"
	"github.com/ClassTrack/CT-Backend/internal/db"
	"github.com/ClassTrack/CT-Backend/internal/utils"
)

var taskOrdering = map[string]string{
	"start":   "start",
	"end":     "\"end\"",
	"created": "created_at",
}

type taskInput struct {
	AssignmentID uint       `json:"assignment_id"`
	AssigneeID   *uint      `json:"assignee_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Status       string     `json:"status"`
	Labels       []string   `json:"labels"`
	Start        *time.Time `json:"start"`
	End          *time.Time `json:"end"`
}

func (in *taskInput) validate() []api.FieldError {
	var errs []api.FieldError
	if in.Title == "" {
		errs = append(errs, api.FieldError{Attr: "title", Detail: "This field is required."})
	}
	if len(in.Title) > 255 {
		errs = append(errs, api.FieldError{Attr: "title", Detail: "Ensure this field has no more than 255 characters."})
	}
	if in.AssignmentID == 0 {
		errs = append(errs, api.FieldError{Attr: "assignment_id", Detail: "This field is required."})
	} else {
		var n int64
		db.DB.Model(&Assignment{}).Where("id = ?", in.AssignmentID).Count(&n)
		if n == 0 {
			errs = append(errs, api.FieldError{Attr: "assignment_id", Detail: "Assignment does not exist."})
		}
	}
	if in.Status == "" {
		in.Status = StatusBacklog
	}
	if !validStatus(in.Status) {
		errs = append(errs, api.FieldError{Attr: "status", Detail: "Not a valid status."})
	}
	return errs
}

func ListTasks(w http.ResponseWriter, r *http.Request) {
	tx := db.DB.Model(&Task{}).
		Joins("LEFT JOIN classwork.assignments ON classwork.assignments.id = classwork.tasks.assignment_id").
		Joins("LEFT JOIN app_auth.users ON app_auth.users.id = classwork.tasks.assignee_id")
	tx = api.ApplySearch(tx, r,
		"classwork.tasks.title", "classwork.assignments.title", "app_auth.users.email")

	for param, column := range map[string]string{
		"assignee_id":   "classwork.tasks.assignee_id",
		"assignment_id": "classwork.tasks.assignment_id",
		"status":        "classwork.tasks.status",
	} {
		if v := r.URL.Query().Get(param); v != "" {
			tx = tx.Where(column+" = ?", v)
		}
	}

	var count int64
	if err := tx.Count(&count).Error; err != nil {
		api.WriteDetail(w, http.StatusInternalServerError, "Failed to count tasks")
		return
	}

	tx = api.ApplyOrdering(tx, r, taskOrdering)

	var tasks []Task
	page := api.ParsePage(r)
	if err := page.Apply(tx).Preload("Assignee").Find(&tasks).Error; err != nil {
		api.WriteDetail(w, http.StatusInternalServerError, "Failed to fetch tasks")
		return
	}

	api.WriteJSON(w, http.StatusOK, api.ListResponse{Count: count, Results: tasks})
}

func GetTask(w http.ResponseWriter, r *http.Request) {
	task, ok := findTask(w, r)
	if !ok {
		return
	}
	api.WriteJSON(w, http.StatusOK, task)
}

func CreateTask(w http.ResponseWriter, r *http.Request) {
	actor, _ := utils.GetActorFromContext(r.Context())

	var input taskInput
	if !api.DecodeJSON(w, r, &input) {
		return
	}
	if errs := input.validate(); len(errs) > 0 {
		api.WriteValidation(w, errs)
		return
	}

	task := Task{
		AssignmentID: input.AssignmentID,
		AssigneeID:   input.AssigneeID,
		CreatorID:    &actor.UserID,
		Title:        input.Title,
		Description:  input.Description,
		Status:       input.Status,
		Labels:       pq.StringArray(input.Labels),
		Start:        input.Start,
		End:          input.End,
	}
	if err := db.DB.Create(&task).Error; err != nil {
		api.WriteDetail(w, http.StatusInternalServerError, "Failed to create task")
		return
	}

	api.WriteJSON(w, http.StatusCreated, task)
}

func UpdateTask(w http.ResponseWriter, r *http.Request) {
	task, ok := findTask(w, r)
	if !ok {
		return
	}

	var input taskInput
	if !api.DecodeJSON(w, r, &input) {
		return
	}
	if errs := input.validate(); len(errs) > 0 {
		api.WriteValidation(w, errs)
		return
	}

	updates := map[string]any{
		"assignment_id": input.AssignmentID,
		"assignee_id":   input.AssigneeID,
		"title":         input.Title,
		"description":   input.Description,
		"status":        input.Status,
		"labels":        pq.StringArray(input.Labels),
		"start":         input.Start,
		"end":           input.End,
	}
	if err := db.DB.Model(&task).Updates(updates).Error; err != nil {
		api.WriteDetail(w, http.StatusInternalServerError, "Failed to update task")
		return
	}

	if err := db.DB.Preload("Assignee").First(&task, "id = ?", task.ID).Error; err != nil {
		api.WriteDetail(w, http.StatusInternalServerError, "Failed to reload task")
		return
	}
	api.WriteJSON(w, http.StatusOK, task)
}

// DeleteTask mirrors assignment deletion: only the creator may delete,
// and a non-creator gets 403 rather than 404.
func DeleteTask(w http.ResponseWriter, r *http.Request) {
	actor, _ := utils.GetActorFromContext(r.Context())

	task, ok := findTask(w, r)
	if !ok {
		return
	}

	if task.CreatorID == nil || *task.CreatorID != actor.UserID {
		api.WriteDetail(w, http.StatusForbidden,
			"You do not have permission to delete this task.")
		return
	}

	if err := db.DB.Delete(&task).Error; err != nil {
		api.WriteDetail(w, http.StatusInternalServerError, "Failed to delete task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PercentCompleted reports completed tasks as a share of all tasks that
// have entered work (in progress, in review or completed). An empty
// denominator reads as zero progress, not a division error.
func PercentCompleted(w http.ResponseWriter, r *http.Request) {
	var completed, active int64

	if err := db.DB.Model(&Task{}).
		Where("status = ?", StatusCompleted).
		Count(&completed).Error; err != nil {
		api.WriteDetail(w, http.StatusInternalServerError, "Failed to count tasks")
		return
	}
	if err := db.DB.Model(&Task{}).
		Where("status IN ?", []string{StatusCompleted, StatusInProgress, StatusReadyForReview}).
		Count(&active).Error; err != nil {
		api.WriteDetail(w, http.StatusInternalServerError, "Failed to count tasks")
		return
	}

	if active == 0 {
		active = 1
	}
	api.WriteJSON(w, http.StatusOK, map[string]float64{
		"percent_completed": float64(completed) / float64(active),
	})
}

func findTask(w http.ResponseWriter, r *http.Request) (Task, bool) {
	var task Task

	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		api.WriteDetail(w, http.StatusNotFound, "Not found.")
		return task, false
	}
	if err := db.DB.Preload("Assignee").First(&task, "id = ?", id).Error; err != nil {
		api.WriteDetail(w, http.StatusNotFound, "Not found.")
		return task, false
	}
	return task, true
}
