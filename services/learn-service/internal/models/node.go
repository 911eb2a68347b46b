package models

// NodeKind names a level of the content tree
type NodeKind string

const (
	NodeCourse  NodeKind = "course"
	NodeModule  NodeKind = "module"
	NodeLesson  NodeKind = "lesson"
	NodeStep    NodeKind = "step"
	NodeContent NodeKind = "content"
)

// Node is any element of the content tree. Every node knows the course it belongs to,
// filled in when the node is resolved from its path.
type Node interface {
	Kind() NodeKind
	OwningCourseID() int
}

// Path addresses a node by course id and the ordinals below it.
// Zero ordinals stop the path at a higher level.
type Path struct {
	CourseID   int
	ModuleNum  int
	LessonNum  int
	StepNum    int
	ContentNum int
}
