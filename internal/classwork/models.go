package classwork

import (
	"time"

	"github.com/lib/pq"

	"github.com/ClassTrack/CT-Backend/internal/auth"
)

const (
	StatusBacklog        = "backlog"
	StatusReady          = "ready"
	StatusInProgress     = "in_progress"
	StatusReadyForReview = "ready_for_review"
	StatusCompleted      = "completed"
	StatusCanceled       = "canceled"
)

// TaskStatuses enumerates every valid task status.
var TaskStatuses = []string{
	StatusBacklog, StatusReady, StatusInProgress,
	StatusReadyForReview, StatusCompleted, StatusCanceled,
}

// Assignment is a unit of coursework created by a lecturer or admin.
// The creator reference survives account deactivation; only the creator
// may delete the assignment.
type Assignment struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	CreatorID   *uint      `gorm:"index" json:"creator_id"`
	Creator     *auth.User `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `json:"description"`
	Start       *time.Time `json:"start"`
	Deadline    *time.Time `json:"deadline"`
	CreatedAt   time.Time  `json:"created"`
	UpdatedAt   time.Time  `json:"modified"`
}

// Task is one piece of work inside an assignment.
type Task struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	AssignmentID uint           `gorm:"not null;index" json:"assignment_id"`
	Assignment   *Assignment    `gorm:"foreignKey:AssignmentID;constraint:OnDelete:CASCADE" json:"-"`
	AssigneeID   *uint          `gorm:"index" json:"assignee_id"`
	Assignee     *auth.User     `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	CreatorID    *uint          `gorm:"index" json:"creator_id"`
	Title        string         `gorm:"size:255;not null" json:"title"`
	Description  string         `json:"description"`
	Status       string         `gorm:"size:20;default:'backlog'" json:"status"`
	Labels       pq.StringArray `gorm:"type:text[]" json:"labels"`
	Start        *time.Time     `json:"start"`
	End          *time.Time     `json:"end"`
	CreatedAt    time.Time      `json:"created"`
	UpdatedAt    time.Time      `json:"modified"`
}

func (Assignment) TableName() string { return "classwork.assignments" }
func (Task) TableName() string       { return "classwork.tasks" }

func validStatus(s string) bool {
	for _, status := range TaskStatuses {
		if s == status {
			return true
		}
	}
	return false
}
