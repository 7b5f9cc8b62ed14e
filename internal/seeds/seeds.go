package seeds

import (
	_ "embed"
	"fmt"
	"log"

	"github.com/goccy/go-yaml"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/ClassTrack/CT-Backend/internal/auth"
	"github.com/ClassTrack/CT-Backend/internal/classwork"
	"github.com/ClassTrack/CT-Backend/internal/db"
)

//go:embed fixtures.yaml
var fixturesYAML []byte

type fixtures struct {
	Users []struct {
		Email     string `yaml:"email"`
		FirstName string `yaml:"first_name"`
		LastName  string `yaml:"last_name"`
		Role      string `yaml:"role"`
		Password  string `yaml:"password"`
	} `yaml:"users"`
	Assignments []struct {
		Title       string `yaml:"title"`
		Description string `yaml:"description"`
		Creator     string `yaml:"creator"`
		Tasks       []struct {
			Title    string   `yaml:"title"`
			Status   string   `yaml:"status"`
			Assignee string   `yaml:"assignee"`
			Labels   []string `yaml:"labels"`
		} `yaml:"tasks"`
	} `yaml:"assignments"`
}

// SeedAll loads the embedded fixtures: demo accounts for each role plus a
// couple of assignments with tasks. Existing rows (matched by email or
// title) are left alone, so reseeding is safe.
func SeedAll() error {
	var fx fixtures
	if err := yaml.Unmarshal(fixturesYAML, &fx); err != nil {
		return fmt.Errorf("parse fixtures: %w", err)
	}

	usersByEmail := make(map[string]*auth.User)
	for _, u := range fx.Users {
		email := auth.NormalizeEmail(u.Email)

		var existing auth.User
		if err := db.DB.First(&existing, "email = ?", email).Error; err == nil {
			usersByEmail[email] = &existing
			continue
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", email, err)
		}
		user := auth.User{
			FirstName:      u.FirstName,
			LastName:       u.LastName,
			Email:          email,
			HashedPassword: string(hashed),
			Role:           u.Role,
			IsActive:       true,
		}
		if err := db.DB.Create(&user).Error; err != nil {
			return fmt.Errorf("create user %s: %w", email, err)
		}
		usersByEmail[email] = &user
		log.Printf("[seeds] created user %s (%s)", email, u.Role)
	}

	for _, a := range fx.Assignments {
		var existing classwork.Assignment
		if err := db.DB.First(&existing, "title = ?", a.Title).Error; err == nil {
			continue
		}

		assignment := classwork.Assignment{
			Title:       a.Title,
			Description: a.Description,
		}
		if creator, ok := usersByEmail[auth.NormalizeEmail(a.Creator)]; ok {
			assignment.CreatorID = &creator.ID
		}
		if err := db.DB.Create(&assignment).Error; err != nil {
			return fmt.Errorf("create assignment %q: %w", a.Title, err)
		}
		log.Printf("[seeds] created assignment %q", a.Title)

		for _, t := range a.Tasks {
			task := classwork.Task{
				AssignmentID: assignment.ID,
				CreatorID:    assignment.CreatorID,
				Title:        t.Title,
				Status:       t.Status,
				Labels:       pq.StringArray(t.Labels),
			}
			if assignee, ok := usersByEmail[auth.NormalizeEmail(t.Assignee)]; ok {
				task.AssigneeID = &assignee.ID
			}
			if err := db.DB.Create(&task).Error; err != nil {
				return fmt.Errorf("create task %q: %w", t.Title, err)
			}
		}
	}
	return nil
}
