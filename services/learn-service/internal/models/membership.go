package models

import "fmt"

// MembershipKind is the relation between a user and a course
type MembershipKind string

const (
	MembershipEnrolled   MembershipKind = "enrolled"
	MembershipFavorite   MembershipKind = "favorite"
	MembershipInProgress MembershipKind = "in_progress"
)

// CourseListOwned lists the courses a user owns rather than a membership kind
const CourseListOwned = "owned"

// ParseMembershipKind validates a membership kind
func ParseMembershipKind(raw string) (MembershipKind, error) {
	switch kind := MembershipKind(raw); kind {
	case MembershipEnrolled, MembershipFavorite, MembershipInProgress:
		return kind, nil
	}
	return "", fmt.Errorf("unknown membership kind %q", raw)
}
