package services

import (
	"context"
	"testing"

	"github.com/genzone/backend/libs/apperrors"
	"github.com/genzone/backend/libs/pagination"
	"github.com/genzone/backend/services/learn-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMembershipService_AddRemove(t *testing.T) {
	courses, _, svc := newTestServices(newMemStore())
	course := seedCourse(t, courses, "Go")
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, studentID, course.ID, models.MembershipFavorite))

	err := svc.Add(ctx, studentID, course.ID, models.MembershipFavorite)
	assert.True(t, apperrors.Is(err, apperrors.KindConflict), "adding twice is a conflict")

	err = svc.Remove(ctx, studentID, course.ID, models.MembershipEnrolled)
	assert.True(t, apperrors.Is(err, apperrors.KindConflict), "only a present membership of the same kind can be removed")

	require.NoError(t, svc.Remove(ctx, studentID, course.ID, models.MembershipFavorite))

	err = svc.Remove(ctx, studentID, course.ID, models.MembershipFavorite)
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))

	err = svc.Add(ctx, studentID, 999, models.MembershipEnrolled)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	err = svc.Remove(ctx, studentID, 999, models.MembershipEnrolled)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestMembershipService_ListMine(t *testing.T) {
	courses, _, svc := newTestServices(newMemStore())
	goCourse := seedCourse(t, courses, "Go")
	sqlCourse := seedCourse(t, courses, "SQL")
	ctx := context.Background()
	params := pagination.Params{Page: 1, PageSize: 10}

	require.NoError(t, svc.Add(ctx, studentID, goCourse.ID, models.MembershipEnrolled))
	require.NoError(t, svc.Add(ctx, studentID, sqlCourse.ID, models.MembershipInProgress))

	tests := []struct {
		name          string
		actorID       int
		kind          string
		expectedTitle []string
		expectedKind  apperrors.Kind
	}{
		{name: "owned", actorID: ownerID, kind: "owned", expectedTitle: []string{"Go", "SQL"}},
		{name: "enrolled", actorID: studentID, kind: "enrolled", expectedTitle: []string{"Go"}},
		{name: "in progress", actorID: studentID, kind: "in_progress", expectedTitle: []string{"SQL"}},
		{name: "empty favorites", actorID: studentID, kind: "favorite", expectedTitle: []string{}},
		{name: "unknown kind", actorID: studentID, kind: "wishlist", expectedKind: apperrors.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.ListMine(ctx, tt.actorID, tt.kind, params)

			if tt.expectedKind != "" {
				assert.Equal(t, tt.expectedKind, apperrors.KindOf(err))
				assert.Equal(t, "kind", apperrors.FieldOf(err))
				return
			}
			require.NoError(t, err)
			titles := []string{}
			for _, c := range result.Results {
				titles = append(titles, c.Title)
			}
			assert.Equal(t, tt.expectedTitle, titles)
		})
	}
}
