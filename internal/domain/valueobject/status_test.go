package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/household-backend/internal/pkg/apperror"
)

func TestRequestStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, RequestStatusPending.CanTransitionTo(RequestStatusAccepted))
	assert.True(t, RequestStatusPending.CanTransitionTo(RequestStatusRejected))
	assert.True(t, RequestStatusAccepted.CanTransitionTo(RequestStatusClosed))

	assert.False(t, RequestStatusPending.CanTransitionTo(RequestStatusClosed))
	assert.False(t, RequestStatusAccepted.CanTransitionTo(RequestStatusRejected))
	assert.False(t, RequestStatusClosed.CanTransitionTo(RequestStatusClosed))
	assert.False(t, RequestStatusRejected.CanTransitionTo(RequestStatusAccepted))
	assert.False(t, RequestStatus("unknown").CanTransitionTo(RequestStatusAccepted))
}

func TestNewRequestStatus_Invalid(t *testing.T) {
	_, err := NewRequestStatus("done")
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	s, err := NewRequestStatus("closed")
	require.NoError(t, err)
	assert.True(t, s.IsTerminal())
}

func TestRole(t *testing.T) {
	_, err := NewRole("superuser")
	assert.Error(t, err)

	r, err := NewRole("professional")
	require.NoError(t, err)
	assert.Equal(t, RoleProfessional, r)
}

func TestRatingAggregate_Add(t *testing.T) {
	agg := RatingAggregate{Average: 4.0, Count: 2}.Add(5)

	assert.Equal(t, 3, agg.Count)
	assert.InDelta(t, 4.3333, agg.Average, 0.001)
	assert.Equal(t, 4.33, agg.Rounded())

	first := RatingAggregate{}.Add(3.5)
	assert.Equal(t, 1, first.Count)
	assert.Equal(t, 3.5, first.Average)
}

func TestValidateRating(t *testing.T) {
	assert.NoError(t, ValidateRating(0))
	assert.NoError(t, ValidateRating(5))
	assert.Error(t, ValidateRating(-0.5))
	assert.Error(t, ValidateRating(5.1))
}
