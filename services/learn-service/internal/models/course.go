package models

import "time"

// Course represents a course in the catalog
type Course struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OwnerID     int       `json:"ownerId"`
	Price       int       `json:"price"`
	Rating      int       `json:"rating"`
	Preview     string    `json:"preview"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Kind implements Node
func (c *Course) Kind() NodeKind { return NodeCourse }

// OwningCourseID implements Node
func (c *Course) OwningCourseID() int { return c.ID }

// LessonOutline is a lesson entry of the course outline
type LessonOutline struct {
	LessonNum   int    `json:"lessonNum"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ModuleOutline is a module entry of the course outline with its lessons
type ModuleOutline struct {
	ModuleNum   int             `json:"moduleNum"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Lessons     []LessonOutline `json:"lessons"`
}

// CourseDetailResponse is a course with its module outline.
// HasAccess is only set for authenticated callers.
type CourseDetailResponse struct {
	Course
	Modules   []ModuleOutline `json:"modules"`
	HasAccess *bool           `json:"hasAccess,omitempty"`
}

// AccessResponse reports whether the caller may study a course
type AccessResponse struct {
	CourseID  int  `json:"courseId"`
	HasAccess bool `json:"hasAccess"`
}

// CreateCourseRequest represents a request to create a course
type CreateCourseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       int    `json:"price"`
	Preview     string `json:"preview"`
}

// UpdateCourseRequest represents a request to update a course (partial update)
type UpdateCourseRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Price       *int    `json:"price,omitempty"`
	Preview     *string `json:"preview,omitempty"`
}
