// Package policy decides who may read and change the course content tree.
// Reads are open to everyone, changes are reserved to the course owner.
package policy

import (
	"context"
	"fmt"

	"github.com/genzone/backend/libs/apperrors"
	"github.com/genzone/backend/services/learn-service/internal/models"
)

// Op is the kind of operation being authorized
type Op int

const (
	OpRead Op = iota
	OpWrite
)

func (o Op) String() string {
	if o == OpWrite {
		return "write"
	}
	return "read"
}

// CourseOwners resolves the owner of a course
type CourseOwners interface {
	GetOwnerID(ctx context.Context, courseID int) (int, error)
}

// Memberships checks course memberships
type Memberships interface {
	Exists(ctx context.Context, userID, courseID int, kind models.MembershipKind) (bool, error)
}

// Policy answers authorization questions. It holds no state besides its lookups.
type Policy struct {
	owners      CourseOwners
	memberships Memberships
}

// New creates a new policy
func New(owners CourseOwners, memberships Memberships) *Policy {
	return &Policy{
		owners:      owners,
		memberships: memberships,
	}
}

// Authorize checks whether actor may perform op on node. Creating a child is a write on its parent.
// actorID is 0 for anonymous callers.
func (p *Policy) Authorize(ctx context.Context, actorID int, node models.Node, op Op) error {
	if op == OpRead {
		return nil
	}
	if actorID == 0 {
		return apperrors.Unauthenticated("authentication required")
	}

	ownerID, err := p.owners.GetOwnerID(ctx, node.OwningCourseID())
	if err != nil {
		return err
	}
	if ownerID != actorID {
		return apperrors.Forbidden(fmt.Sprintf("only the course owner may %s this %s", op, node.Kind()))
	}
	return nil
}

// HasAccess reports whether actor owns the course or is enrolled in it
func (p *Policy) HasAccess(ctx context.Context, actorID, courseID int) (bool, error) {
	ownerID, err := p.owners.GetOwnerID(ctx, courseID)
	if err != nil {
		return false, err
	}
	if actorID == 0 {
		return false, nil
	}
	if ownerID == actorID {
		return true, nil
	}
	return p.memberships.Exists(ctx, actorID, courseID, models.MembershipEnrolled)
}
