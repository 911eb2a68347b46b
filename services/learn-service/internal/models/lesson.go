package models

import "github.com/genzone/backend/libs/pagination"

// Lesson represents a lesson of a module
type Lesson struct {
	ID          int    `json:"-"`
	ModuleID    int    `json:"-"`
	CourseID    int    `json:"courseId"`
	ModuleNum   int    `json:"moduleNum"`
	LessonNum   int    `json:"lessonNum"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Kind implements Node
func (l *Lesson) Kind() NodeKind { return NodeLesson }

// OwningCourseID implements Node
func (l *Lesson) OwningCourseID() int { return l.CourseID }

// LessonDetailResponse is a lesson with one page of its steps
type LessonDetailResponse struct {
	Lesson
	Steps *pagination.Page[Step] `json:"steps"`
}

// LessonRequest creates or partially updates a lesson
type LessonRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}
