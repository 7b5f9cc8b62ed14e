package auth

import "time"

const (
	RoleAdmin    = "admin"
	RoleStudent  = "student"
	RoleLecturer = "lecturer"
)

// Roles enumerates every valid user role.
var Roles = []string{RoleAdmin, RoleStudent, RoleLecturer}

// User is the principal. Email is the sole login identifier and is stored
// lowercase. Accounts are deactivated, never hard-deleted.
type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	FirstName      string     `gorm:"size:30" json:"first_name"`
	LastName       string     `gorm:"size:30" json:"last_name"`
	Email          string     `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Password       string     `gorm:"-" json:"password,omitempty"`
	HashedPassword string     `json:"-"`
	Role           string     `gorm:"size:20;default:'student'" json:"role"`
	IsActive       bool       `gorm:"default:true" json:"is_active"`
	AvatarURL      string     `gorm:"size:512" json:"avatar_url"`
	LastLogin      *time.Time `json:"last_login"`
	CreatedAt      time.Time  `json:"created"`
	UpdatedAt      time.Time  `json:"modified"`
}

// AuthToken is one opaque bearer credential. Only the SHA-256 digest of the
// token value is stored; the plaintext is returned to the caller once at
// login. Many tokens per user may coexist.
type AuthToken struct {
	Digest    string    `gorm:"primaryKey;size:64" json:"-"`
	UserID    uint      `gorm:"not null;index" json:"-"`
	CreatedAt time.Time `json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"-"`
}

func (User) TableName() string      { return "app_auth.users" }
func (AuthToken) TableName() string { return "app_auth.auth_tokens" }

// UserOut is the public profile shape returned by the API.
type UserOut struct {
	ID        uint       `json:"id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	AvatarURL string     `json:"avatar_url"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created"`
	UpdatedAt time.Time  `json:"modified"`
}

func (u *User) Public() UserOut {
	return UserOut{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
		AvatarURL: u.AvatarURL,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
