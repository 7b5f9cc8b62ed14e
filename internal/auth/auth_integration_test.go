package auth_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/ClassTrack/CT-Backend/internal/auth"
	"github.com/ClassTrack/CT-Backend/internal/classwork"
	"github.com/ClassTrack/CT-Backend/internal/config"
	"github.com/ClassTrack/CT-Backend/internal/db"
	"github.com/ClassTrack/CT-Backend/internal/users"
)

// dbAvailable tracks whether the database connection was established.
var dbAvailable bool

// testServer is the shared httptest server for all integration tests.
var testServer *httptest.Server

func TestMain(m *testing.M) {
	// Load .env.local relative to the repo root (two directories up).
	_ = godotenv.Load("../../.env.local")

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		// No database available — run only the unit tests.
		os.Exit(m.Run())
	}

	if os.Getenv("SECRET_KEY") == "" {
		os.Setenv("SECRET_KEY", "integration-test-secret")
	}
	// The login throttle would trip across tests sharing one client IP.
	os.Setenv("LOGIN_THROTTLE_PER_MIN", "0")

	config.Load()
	db.Connect()
	dbAvailable = true

	auth.Init()
	classwork.Init()

	// Mount routes on a chi router, matching production setup in main.go.
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Mount("/auth", auth.SetupRoutes())
	r.Mount("/users", users.SetupRoutes())
	r.Mount("/assignments", classwork.AssignmentRoutes())
	r.Mount("/tasks", classwork.TaskRoutes())

	testServer = httptest.NewServer(r)
	defer testServer.Close()

	os.Exit(m.Run())
}

// createTestUser inserts a unique active user with the given role and
// registers a cleanup function to remove it. Returns the user and the
// plaintext password.
func createTestUser(t *testing.T, role string) (auth.User, string) {
	t.Helper()
	if !dbAvailable {
		t.Skip("skipping integration test (requires DATABASE_URL)")
	}

	email := fmt.Sprintf("testuser_%s@example.edu", uuid.New().String()[:8])
	password := "plum-Teapot-91!"
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("bcrypt error: %v", err)
	}

	user := auth.User{
		FirstName:      "Test",
		LastName:       "User",
		Email:          email,
		HashedPassword: string(hashed),
		Role:           role,
		IsActive:       true,
	}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	t.Cleanup(func() {
		db.DB.Where("user_id = ?", user.ID).Delete(&auth.AuthToken{})
		db.DB.Where("id = ?", user.ID).Delete(&auth.User{})
	})

	return user, password
}

// postJSON sends a JSON POST, optionally with a bearer token, and decodes
// the response body into out (when out is non-nil).
func postJSON(t *testing.T, path, token string, body any, out any) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, testServer.URL+path, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("http error: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode error: %v", err)
		}
	}
	return resp
}

func getJSON(t *testing.T, path, token string, out any) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, testServer.URL+path, nil)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("http error: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode error: %v", err)
		}
	}
	return resp
}

func login(t *testing.T, email, password string) auth.TokenResponse {
	t.Helper()

	var tokenResp auth.TokenResponse
	resp := postJSON(t, "/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &tokenResp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed with status %d", resp.StatusCode)
	}
	return tokenResp
}

type errorsResponse struct {
	Errors []struct {
		Attr   string `json:"attr"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// TestLogin_Success verifies that valid credentials yield a token that
// authenticates subsequent requests until revoked.
func TestLogin_Success(t *testing.T) {
	user, password := createTestUser(t, auth.RoleStudent)

	tokenResp := login(t, user.Email, password)
	if tokenResp.Token == "" {
		t.Fatal("expected a token")
	}
	if !tokenResp.Expiry.After(time.Now()) {
		t.Errorf("expected future expiry, got %v", tokenResp.Expiry)
	}
	if tokenResp.User.Email != user.Email {
		t.Errorf("expected user email %q, got %q", user.Email, tokenResp.User.Email)
	}

	var profile auth.UserOut
	resp := getJSON(t, "/users/profile", tokenResp.Token, &profile)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from profile, got %d", resp.StatusCode)
	}
	if profile.ID != user.ID {
		t.Errorf("expected profile id %d, got %d", user.ID, profile.ID)
	}
}

// TestLogin_NoEnumeration verifies that unknown emails, wrong passwords and
// inactive accounts all produce byte-identical error responses.
func TestLogin_NoEnumeration(t *testing.T) {
	user, _ := createTestUser(t, auth.RoleStudent)
	inactive, inactivePassword := createTestUser(t, auth.RoleStudent)
	db.DB.Model(&auth.User{}).Where("id = ?", inactive.ID).Update("is_active", false)

	bodies := make([]string, 0, 3)
	for _, creds := range []map[string]string{
		{"email": "nobody_" + uuid.NewString()[:8] + "@example.edu", "password": "whatever-123"},
		{"email": user.Email, "password": "wrong-password-1"},
		{"email": inactive.Email, "password": inactivePassword},
	} {
		var body map[string]any
		resp := postJSON(t, "/auth/login", "", creds, &body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
		raw, _ := json.Marshal(body)
		bodies = append(bodies, string(raw))
	}

	if bodies[0] != bodies[1] || bodies[1] != bodies[2] {
		t.Errorf("expected identical error shapes, got %v", bodies)
	}
}

// TestLogout verifies single-token revocation and that the revoked token no
// longer authenticates.
func TestLogout(t *testing.T) {
	user, password := createTestUser(t, auth.RoleStudent)
	tokenResp := login(t, user.Email, password)

	resp := postJSON(t, "/auth/logout", tokenResp.Token, map[string]string{}, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	resp = getJSON(t, "/users/profile", tokenResp.Token, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", resp.StatusCode)
	}
}

// TestLogoutAll verifies that logout-all revokes every token the user holds.
func TestLogoutAll(t *testing.T) {
	user, password := createTestUser(t, auth.RoleStudent)
	first := login(t, user.Email, password)
	second := login(t, user.Email, password)

	resp := postJSON(t, "/auth/logout/all", second.Token, map[string]string{}, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	for _, token := range []string{first.Token, second.Token} {
		if resp := getJSON(t, "/users/profile", token, nil); resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401 after logout-all, got %d", resp.StatusCode)
		}
	}
}

// TestSignup verifies account creation, immediate login and duplicate
// email rejection.
func TestSignup(t *testing.T) {
	if !dbAvailable {
		t.Skip("skipping integration test (requires DATABASE_URL)")
	}

	email := fmt.Sprintf("signup_%s@example.edu", uuid.NewString()[:8])
	var tokenResp auth.TokenResponse
	resp := postJSON(t, "/auth/signup", "", map[string]string{
		"first_name":       "New",
		"last_name":        "Student",
		"email":            email,
		"password":         "plum-Teapot-91!",
		"password_confirm": "plum-Teapot-91!",
	}, &tokenResp)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	t.Cleanup(func() {
		db.DB.Where("user_id = ?", tokenResp.User.ID).Delete(&auth.AuthToken{})
		db.DB.Where("id = ?", tokenResp.User.ID).Delete(&auth.User{})
	})

	if tokenResp.User.Role != auth.RoleStudent {
		t.Errorf("expected role student, got %q", tokenResp.User.Role)
	}
	if resp := getJSON(t, "/users/profile", tokenResp.Token, nil); resp.StatusCode != http.StatusOK {
		t.Errorf("expected signup token to authenticate, got %d", resp.StatusCode)
	}

	// Duplicate email is rejected with an attributed error.
	var dup errorsResponse
	resp = postJSON(t, "/auth/signup", "", map[string]string{
		"email":            email,
		"password":         "plum-Teapot-91!",
		"password_confirm": "plum-Teapot-91!",
	}, &dup)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate email, got %d", resp.StatusCode)
	}
	if len(dup.Errors) == 0 || dup.Errors[0].Attr != "email" {
		t.Errorf("expected email-attributed error, got %+v", dup.Errors)
	}
}

// TestPasswordReset_Confirm walks the full reset flow: issue ticket,
// confirm with a new password, verify single use.
func TestPasswordReset_Confirm(t *testing.T) {
	user, oldPassword := createTestUser(t, auth.RoleStudent)

	// Request the reset; the response is opaque regardless of the email.
	resp := postJSON(t, "/auth/password/reset", "",
		map[string]string{"email": user.Email}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	// Build the ticket the same way the server does.
	generator := &auth.ResetTokenGenerator{
		Secret: []byte(config.App.SecretKey),
		TTL:    config.App.ResetTokenTTL,
	}
	var dbUser auth.User
	if err := db.DB.First(&dbUser, "id = ?", user.ID).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	uid := auth.EncodeUID(dbUser.ID)
	token := generator.Make(&dbUser)

	newPassword := "walnut-Tundra-55!"
	resp = postJSON(t, "/auth/password/reset/confirm", "", map[string]string{
		"uid":              uid,
		"token":            token,
		"password":         newPassword,
		"password_confirm": newPassword,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from confirm, got %d", resp.StatusCode)
	}

	// Old password no longer works, new one does.
	if resp := postJSON(t, "/auth/login", "", map[string]string{
		"email": user.Email, "password": oldPassword,
	}, nil); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected old password rejected, got %d", resp.StatusCode)
	}
	login(t, user.Email, newPassword)

	// The ticket is single use: the hash changed, so a replay fails.
	var replay errorsResponse
	resp = postJSON(t, "/auth/password/reset/confirm", "", map[string]string{
		"uid":              uid,
		"token":            token,
		"password":         newPassword,
		"password_confirm": newPassword,
	}, &replay)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 on replay, got %d", resp.StatusCode)
	}
	if len(replay.Errors) == 0 || replay.Errors[0].Detail != "Invalid token" {
		t.Errorf("expected Invalid token, got %+v", replay.Errors)
	}
}

// TestPasswordReset_Validation covers bad uid and mismatched confirmation.
func TestPasswordReset_Validation(t *testing.T) {
	user, _ := createTestUser(t, auth.RoleStudent)

	var badUID errorsResponse
	resp := postJSON(t, "/auth/password/reset/confirm", "", map[string]string{
		"uid":              "not-a-uid!",
		"token":            "whatever",
		"password":         "walnut-Tundra-55!",
		"password_confirm": "walnut-Tundra-55!",
	}, &badUID)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if len(badUID.Errors) == 0 || badUID.Errors[0].Detail != "Invalid uid" {
		t.Errorf("expected Invalid uid, got %+v", badUID.Errors)
	}

	var dbUser auth.User
	if err := db.DB.First(&dbUser, "id = ?", user.ID).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	generator := &auth.ResetTokenGenerator{
		Secret: []byte(config.App.SecretKey),
		TTL:    config.App.ResetTokenTTL,
	}

	var mismatch errorsResponse
	resp = postJSON(t, "/auth/password/reset/confirm", "", map[string]string{
		"uid":              auth.EncodeUID(dbUser.ID),
		"token":            generator.Make(&dbUser),
		"password":         "walnut-Tundra-55!",
		"password_confirm": "different-one-66!",
	}, &mismatch)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if len(mismatch.Errors) == 0 || mismatch.Errors[0].Attr != "password_confirm" {
		t.Errorf("expected password_confirm error, got %+v", mismatch.Errors)
	}
}

// TestPasswordChange verifies the authenticated change flow and that a
// rejected weak password leaves the stored credential untouched.
func TestPasswordChange(t *testing.T) {
	user, oldPassword := createTestUser(t, auth.RoleStudent)
	tokenResp := login(t, user.Email, oldPassword)

	// A weak password is rejected and nothing is persisted.
	var weak errorsResponse
	resp := postJSON(t, "/auth/password/change", tokenResp.Token, map[string]string{
		"password":         "password123",
		"password_confirm": "password123",
	}, &weak)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for weak password, got %d", resp.StatusCode)
	}
	login(t, user.Email, oldPassword) // old password still valid

	newPassword := "walnut-Tundra-55!"
	resp = postJSON(t, "/auth/password/change", tokenResp.Token, map[string]string{
		"password":         newPassword,
		"password_confirm": newPassword,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	login(t, user.Email, newPassword)

	// Unauthenticated change is rejected outright.
	if resp := postJSON(t, "/auth/password/change", "", map[string]string{
		"password":         newPassword,
		"password_confirm": newPassword,
	}, nil); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

// TestUserList verifies the admin-only user collection: 200 for admins,
// 403 for other roles, 401 for anonymous callers.
func TestUserList(t *testing.T) {
	admin, adminPassword := createTestUser(t, auth.RoleAdmin)
	student, studentPassword := createTestUser(t, auth.RoleStudent)

	adminToken := login(t, admin.Email, adminPassword).Token
	var list struct {
		Count   int64            `json:"count"`
		Results []map[string]any `json:"results"`
	}
	resp := getJSON(t, "/users/", adminToken, &list)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", resp.StatusCode)
	}
	if list.Count < 2 {
		t.Errorf("expected at least 2 users, got %d", list.Count)
	}

	studentToken := login(t, student.Email, studentPassword).Token
	if resp := getJSON(t, "/users/", studentToken, nil); resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for student, got %d", resp.StatusCode)
	}

	if resp := getJSON(t, "/users/", "", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for anonymous, got %d", resp.StatusCode)
	}
}

// TestAssignmentOwnership verifies role gating on creation and the
// creator-only delete rule.
func TestAssignmentOwnership(t *testing.T) {
	lecturer, lecturerPassword := createTestUser(t, auth.RoleLecturer)
	other, otherPassword := createTestUser(t, auth.RoleLecturer)
	student, studentPassword := createTestUser(t, auth.RoleStudent)

	lecturerToken := login(t, lecturer.Email, lecturerPassword).Token
	studentToken := login(t, student.Email, studentPassword).Token
	otherToken := login(t, other.Email, otherPassword).Token

	// Students cannot create assignments.
	if resp := postJSON(t, "/assignments/", studentToken, map[string]string{
		"title": "Forbidden", "description": "nope",
	}, nil); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for student create, got %d", resp.StatusCode)
	}

	var created classwork.Assignment
	resp := postJSON(t, "/assignments/", lecturerToken, map[string]string{
		"title":       "Ownership test",
		"description": "delete rules",
	}, &created)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	t.Cleanup(func() {
		db.DB.Where("id = ?", created.ID).Delete(&classwork.Assignment{})
	})

	path := fmt.Sprintf("/assignments/%d", created.ID)

	// A different lecturer is authenticated but not the creator: 403, not 404.
	req, _ := http.NewRequest(http.MethodDelete, testServer.URL+path, nil)
	req.Header.Set("Authorization", "Bearer "+otherToken)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("http error: %v", err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for non-creator, got %d", delResp.StatusCode)
	}

	// The creator succeeds.
	req, _ = http.NewRequest(http.MethodDelete, testServer.URL+path, nil)
	req.Header.Set("Authorization", "Bearer "+lecturerToken)
	delResp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("http error: %v", err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 for creator, got %d", delResp.StatusCode)
	}
}
