package models

// Step represents a step of a lesson together with its contents ordered by number
type Step struct {
	ID       int       `json:"-"`
	LessonID int       `json:"-"`
	CourseID int       `json:"-"`
	StepNum  int       `json:"stepNum"`
	Contents []Content `json:"contents"`
}

// Kind implements Node
func (s *Step) Kind() NodeKind { return NodeStep }

// OwningCourseID implements Node
func (s *Step) OwningCourseID() int { return s.CourseID }

// ReplaceContentsRequest is the full target list of a step's contents
type ReplaceContentsRequest struct {
	Contents []ContentInput `json:"contents"`
}
