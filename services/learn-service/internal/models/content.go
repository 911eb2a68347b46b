package models

// ContentType is the kind of payload a content block carries
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentImage ContentType = "image"
	ContentVideo ContentType = "video"
)

// Valid reports whether t is a known content type
func (t ContentType) Valid() bool {
	switch t {
	case ContentText, ContentImage, ContentVideo:
		return true
	}
	return false
}

// Content represents a content block of a step
type Content struct {
	ID          int         `json:"-"`
	StepID      int         `json:"-"`
	CourseID    int         `json:"-"`
	ContentNum  int         `json:"contentNum"`
	ContentType ContentType `json:"contentType"`
	Text        *string     `json:"text"`
	Media       *string     `json:"media"`
	Width       *string     `json:"width"`
	Height      *string     `json:"height"`
}

// Kind implements Node
func (c *Content) Kind() NodeKind { return NodeContent }

// OwningCourseID implements Node
func (c *Content) OwningCourseID() int { return c.CourseID }

// ContentInput is one content block of a create, update or replace request.
// ContentNum is only read by the bulk replace.
type ContentInput struct {
	ContentNum  int         `json:"contentNum,omitempty"`
	ContentType ContentType `json:"contentType"`
	Text        *string     `json:"text,omitempty"`
	Media       *string     `json:"media,omitempty"`
	Width       *string     `json:"width,omitempty"`
	Height      *string     `json:"height,omitempty"`
}

// UpdateContentRequest represents a partial update of a content block
type UpdateContentRequest struct {
	ContentType *ContentType `json:"contentType,omitempty"`
	Text        *string      `json:"text,omitempty"`
	Media       *string      `json:"media,omitempty"`
	Width       *string      `json:"width,omitempty"`
	Height      *string      `json:"height,omitempty"`
}
