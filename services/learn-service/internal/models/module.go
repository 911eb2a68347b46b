package models

// Module represents a module of a course
type Module struct {
	ID          int    `json:"-"`
	CourseID    int    `json:"courseId"`
	ModuleNum   int    `json:"moduleNum"`
	Title       string `json:"title"`
	Description string `json:"description"`
	// Lessons is filled on detail reads
	Lessons []LessonOutline `json:"lessons,omitempty"`
}

// Kind implements Node
func (m *Module) Kind() NodeKind { return NodeModule }

// OwningCourseID implements Node
func (m *Module) OwningCourseID() int { return m.CourseID }

// ModuleRequest creates or partially updates a module
type ModuleRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}
