package models

import "time"

// Course is the course aggregate referenced by the engine. Owned by the
// course service; the engine reads NumModules and increments
// CompletedLearners through its repository.
type Course struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	Title string `json:"title" gorm:"not null;size:255"`

	NumModules        int `json:"num_modules" gorm:"not null"`
	CompletedLearners int `json:"completed_learners" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CourseModule positions a module inside its course. ModuleOrder is 1-based;
// an order of 0 marks a module outside the sequential path.
type CourseModule struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	CourseID uint   `json:"course_id" gorm:"not null;index"`
	Title    string `json:"title" gorm:"not null;size:255"`

	ModuleOrder int `json:"module_order" gorm:"default:0;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
