package auth

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ClassTrack/CT-Backend/internal/api"
	"github.com/ClassTrack/CT-Backend/internal/db"
	"github.com/ClassTrack/CT-Backend/internal/notifications"
	"github.com/ClassTrack/CT-Backend/internal/utils"
)

const invalidCredentialsMsg = "Unable to log in with provided credentials."

// TokenResponse is the login/signup payload.
type TokenResponse struct {
	Token  string    `json:"token"`
	Expiry time.Time `json:"expiry"`
	User   UserOut   `json:"user"`
}

func LoginHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !api.DecodeJSON(w, r, &input) {
		return
	}

	// Unknown email, wrong password and inactive account all produce the
	// same response, so callers can't probe which addresses exist.
	var user User
	err := db.DB.First(&user, "email = ?", NormalizeEmail(input.Email)).Error
	if err != nil {
		api.WriteValidation(w, []api.FieldError{{Attr: api.NonFieldAttr, Detail: invalidCredentialsMsg}})
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(input.Password)) != nil || !user.IsActive {
		api.WriteValidation(w, []api.FieldError{{Attr: api.NonFieldAttr, Detail: invalidCredentialsMsg}})
		return
	}

	establishSession(w)

	now := time.Now()
	user.LastLogin = &now
	if err := db.DB.Model(&user).Update("last_login", now).Error; err != nil {
		log.Printf("[auth] failed to update last_login for user %d: %v", user.ID, err)
	}

	plaintext, token, err := IssueToken(user.ID, cfg.TokenTTL)
	if err != nil {
		api.WriteDetail(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	api.WriteJSON(w, http.StatusOK, TokenResponse{
		Token:  plaintext,
		Expiry: token.ExpiresAt,
		User:   user.Public(),
	})
}

func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	digest, ok := utils.GetTokenDigestFromContext(r.Context())
	if !ok {
		api.WriteDetail(w, http.StatusUnauthorized, "Invalid token.")
		return
	}

	if err := RevokeToken(digest); err != nil {
		api.WriteDetail(w, http.StatusInternalServerError, "Failed to revoke token")
		return
	}

	clearSession(w)
	w.WriteHeader(http.StatusNoContent)
}

func LogoutAllHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := utils.GetActorFromContext(r.Context())
	if !ok {
		api.WriteDetail(w, http.StatusUnauthorized, "Invalid token.")
		return
	}

	if err := RevokeAllTokens(actor.UserID); err != nil {
		api.WriteDetail(w, http.StatusInternalServerError, "Failed to revoke tokens")
		return
	}

	// Expired rows get swept on the same pass.
	if err := PurgeExpiredTokens(); err != nil {
		log.Printf("[auth] failed to purge expired tokens: %v", err)
	}

	clearSession(w)
	w.WriteHeader(http.StatusNoContent)
}

func SignupHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		FirstName       string `json:"first_name"`
		LastName        string `json:"last_name"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"password_confirm"`
	}
	if !api.DecodeJSON(w, r, &input) {
		return
	}

	user := User{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     NormalizeEmail(input.Email),
		Role:      RoleStudent,
		IsActive:  true,
	}

	var errs []api.FieldError
	if user.Email == "" {
		errs = append(errs, api.FieldError{Attr: "email", Detail: "This field is required."})
	}
	if len(input.FirstName) > 30 {
		errs = append(errs, api.FieldError{Attr: "first_name", Detail: "Ensure this field has no more than 30 characters."})
	}
	if len(input.LastName) > 30 {
		errs = append(errs, api.FieldError{Attr: "last_name", Detail: "Ensure this field has no more than 30 characters."})
	}
	errs = append(errs, validatePasswordPair(input.Password, input.PasswordConfirm, &user)...)

	if user.Email != "" {
		var existing User
		if err := db.DB.First(&existing, "email = ?", user.Email).Error; err == nil {
			errs = append(errs, api.FieldError{Attr: "email", Detail: "A user with this email already exists."})
		}
	}

	if len(errs) > 0 {
		api.WriteValidation(w, errs)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		api.WriteDetail(w, http.StatusInternalServerError, "Server error hashing password")
		return
	}
	user.HashedPassword = string(hashed)

	now := time.Now()
	user.LastLogin = &now
	if err := db.DB.Create(&user).Error; err != nil {
		api.WriteDetail(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	// New users are logged straight in, no second credential check.
	establishSession(w)
	plaintext, token, err := IssueToken(user.ID, cfg.TokenTTL)
	if err != nil {
		api.WriteDetail(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	api.WriteJSON(w, http.StatusCreated, TokenResponse{
		Token:  plaintext,
		Expiry: token.ExpiresAt,
		User:   user.Public(),
	})
}

func PasswordResetHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
	}
	if !api.DecodeJSON(w, r, &input) {
		return
	}

	// The response is identical whether or not the email is registered.
	var user User
	err := db.DB.First(&user, "email = ?", NormalizeEmail(input.Email)).Error
	if err == nil {
		uid := EncodeUID(user.ID)
		token := resetTokens.Make(&user)
		link := cfg.FrontendURL + "/password/reset/confirm?token=" +
			ResetLinkParam(uid, token)

		// Fire-and-forget: transport failures are logged, never surfaced.
		go func(email, link string) {
			subject, body := notifications.PasswordResetMessage(cfg.AppLabel, link)
			if err := mailer.Send(email, subject, body); err != nil {
				log.Printf("[auth] failed to send reset email to %s: %v", email, err)
			}
		}(user.Email, link)
	}

	api.WriteDetail(w, http.StatusOK, "Password reset e-mail has been sent.")
}

func PasswordResetConfirmHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		UID             string `json:"uid"`
		Token           string `json:"token"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"password_confirm"`
	}
	if !api.DecodeJSON(w, r, &input) {
		return
	}

	id, err := DecodeUID(input.UID)
	if err != nil {
		api.WriteValidation(w, []api.FieldError{{Attr: "uid", Detail: "Invalid uid"}})
		return
	}

	var user User
	if err := db.DB.First(&user, "id = ?", id).Error; err != nil {
		api.WriteValidation(w, []api.FieldError{{Attr: "uid", Detail: "Invalid uid"}})
		return
	}

	// Check recomputes from the user's current hash, so expiry, tampering
	// and reuse after a successful reset all fail here.
	if !resetTokens.Check(&user, input.Token) {
		api.WriteValidation(w, []api.FieldError{{Attr: "token", Detail: "Invalid token"}})
		return
	}

	if errs := validatePasswordPair(input.Password, input.PasswordConfirm, &user); len(errs) > 0 {
		api.WriteValidation(w, errs)
		return
	}

	if err := setPassword(&user, input.Password); err != nil {
		api.WriteDetail(w, http.StatusInternalServerError, "Failed to update password")
		return
	}

	api.WriteDetail(w, http.StatusOK, "Password has been reset with the new password.")
}

func PasswordChangeHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := utils.GetActorFromContext(r.Context())
	if !ok {
		api.WriteDetail(w, http.StatusUnauthorized, "Invalid token.")
		return
	}

	var input struct {
		Password        string `json:"password"`
		PasswordConfirm string `json:"password_confirm"`
	}
	if !api.DecodeJSON(w, r, &input) {
		return
	}

	var user User
	if err := db.DB.First(&user, "id = ?", actor.UserID).Error; err != nil {
		api.WriteDetail(w, http.StatusUnauthorized, "Invalid token.")
		return
	}

	if errs := validatePasswordPair(input.Password, input.PasswordConfirm, &user); len(errs) > 0 {
		api.WriteValidation(w, errs)
		return
	}

	if err := setPassword(&user, input.Password); err != nil {
		api.WriteDetail(w, http.StatusInternalServerError, "Failed to update password")
		return
	}

	api.WriteDetail(w, http.StatusOK, "Password has been changed to the new password.")
}

// setPassword hashes and persists a new password in one write.
func setPassword(u *User, password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.HashedPassword = string(hashed)
	return db.DB.Model(u).Update("hashed_password", u.HashedPassword).Error
}

const sessionCookieName = "ct_session"

// establishSession sets a browser session marker alongside the bearer token.
func establishSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    uuid.NewString(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   cfg.IsProduction(),
	})
}

func clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   sessionCookieName,
		Value:  "",
		MaxAge: -1,
		Path:   "/",
	})
}

// LookupUser fetches a user by ID, shared with the profile handlers.
func LookupUser(id uint) (*User, error) {
	var user User
	if err := db.DB.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
