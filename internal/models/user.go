package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type UserRole string

const (
	RoleLearner    UserRole = "learner"
	RoleInstructor UserRole = "instructor"
	RoleAdmin      UserRole = "admin"
)

// Account is the read-mostly view of a platform user. The engine only
// appends to CompletedCourses; everything else is owned by the account
// service.
type Account struct {
	ID       string   `json:"id" gorm:"primaryKey;size:255"`
	FullName string   `json:"full_name" gorm:"size:255"`
	Email    string   `json:"email" gorm:"size:255;index"`
	Role     UserRole `json:"role" gorm:"default:learner;index"`

	// CompletedCourses holds a []uint course-id set as JSONB. Membership
	// guards the completed-learner counter so the cascade stays idempotent.
	CompletedCourses datatypes.JSON `json:"completed_courses" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CompletedCourseIDs decodes the JSONB completed-course set.
func (a *Account) CompletedCourseIDs() ([]uint, error) {
	if len(a.CompletedCourses) == 0 {
		return nil, nil
	}
	var ids []uint
	if err := json.Unmarshal(a.CompletedCourses, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// HasCompletedCourse reports membership in the completed-course set.
func (a *Account) HasCompletedCourse(courseID uint) (bool, error) {
	ids, err := a.CompletedCourseIDs()
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == courseID {
			return true, nil
		}
	}
	return false, nil
}

// AddCompletedCourse appends a course id to the set; no-op when present.
func (a *Account) AddCompletedCourse(courseID uint) error {
	done, err := a.HasCompletedCourse(courseID)
	if err != nil {
		return err
	}
	if done {
		return nil
	}
	ids, err := a.CompletedCourseIDs()
	if err != nil {
		return err
	}
	ids = append(ids, courseID)
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	a.CompletedCourses = data
	return nil
}
