package users

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ClassTrack/CT-Backend/internal/api"
	"github.com/ClassTrack/CT-Backend/internal/auth"
	"github.com/ClassTrack/CT-Backend/internal/db"
	"github.com/ClassTrack/CT-Backend/internal/utils"
)

var userOrdering = map[string]string{
	"first_name": "first_name",
	"last_name":  "last_name",
	"email":      "email",
	"created":    "created_at",
}

// ListUsers returns the paginated user collection. Admin only, enforced by
// the route's permission resolver.
func ListUsers(w http.ResponseWriter, r *http.Request) {
	tx := db.DB.Model(&auth.User{})
	tx = api.ApplySearch(tx, r, "first_name", "last_name", "email")

	var count int64
	if err := tx.Count(&count).Error; err != nil {
		api.WriteDetail(w, http.StatusInternalServerError, "Failed to count users")
		return
	}

	tx = api.ApplyOrdering(tx, r, userOrdering)

	var users []auth.User
	page := api.ParsePage(r)
	if err := page.Apply(tx).Find(&users).Error; err != nil {
		api.WriteDetail(w, http.StatusInternalServerError, "Failed to fetch users")
		return
	}

	results := make([]auth.UserOut, len(users))
	for i := range users {
		results[i] = users[i].Public()
	}
	api.WriteJSON(w, http.StatusOK, api.ListResponse{Count: count, Results: results})
}

func RetrieveUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		api.WriteDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	user, err := auth.LookupUser(uint(id))
	if err != nil {
		api.WriteDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	api.WriteJSON(w, http.StatusOK, user.Public())
}

func GetProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := utils.GetActorFromContext(r.Context())
	if !ok {
		api.WriteDetail(w, http.StatusUnauthorized, "Invalid token.")
		return
	}

	user, err := auth.LookupUser(actor.UserID)
	if err != nil {
		api.WriteDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	api.WriteJSON(w, http.StatusOK, user.Public())
}

// UpdateProfile is a full PUT over the writable profile fields. Email and
// role are read-only here; role changes go through admin provisioning.
func UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := utils.GetActorFromContext(r.Context())
	if !ok {
		api.WriteDetail(w, http.StatusUnauthorized, "Invalid token.")
		return
	}

	user, err := auth.LookupUser(actor.UserID)
	if err != nil {
		api.WriteDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	var input struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		AvatarURL string `json:"avatar_url"`
	}
	if !api.DecodeJSON(w, r, &input) {
		return
	}

	var errs []api.FieldError
	if len(input.FirstName) > 30 {
		errs = append(errs, api.FieldError{Attr: "first_name", Detail: "Ensure this field has no more than 30 characters."})
	}
	if len(input.LastName) > 30 {
		errs = append(errs, api.FieldError{Attr: "last_name", Detail: "Ensure this field has no more than 30 characters."})
	}
	if len(input.AvatarURL) > 512 {
		errs = append(errs, api.FieldError{Attr: "avatar_url", Detail: "Ensure this field has no more than 512 characters."})
	}
	if len(errs) > 0 {
		api.WriteValidation(w, errs)
		return
	}

	updates := map[string]any{
		"first_name": input.FirstName,
		"last_name":  input.LastName,
		"avatar_url": input.AvatarURL,
	}
	if err := db.DB.Model(user).Updates(updates).Error; err != nil {
		api.WriteDetail(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	user.FirstName = input.FirstName
	user.LastName = input.LastName
	user.AvatarURL = input.AvatarURL
	api.WriteJSON(w, http.StatusOK, user.Public())
}
