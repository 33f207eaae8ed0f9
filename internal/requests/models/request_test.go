package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "blueprints/pkg/domain"
	dErrors "blueprints/pkg/domain-errors"
)

var (
	t0        = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	requestor = id.UserID(uuid.MustParse("11111111-1111-4111-8111-111111111111"))
	fulfiller = id.UserID(uuid.MustParse("22222222-2222-4222-8222-222222222222"))
)

func newTestRequest(t *testing.T) *Request {
	t.Helper()
	r, err := NewRequest(id.NewRequestID(), BlueprintRef{
		TypeID:       id.TypeID(691),
		TypeName:     "Rifter Blueprint",
		IsOriginal:   true,
		LocationName: "Jita IV - Moon 4",
	}, 0, requestor, "Bob", Owner{Kind: OwnerCharacter, ID: 90000001, Name: "Alice"}, t0)
	require.NoError(t, err)
	return r
}

func TestNewRequest(t *testing.T) {
	r := newTestRequest(t)

	assert.Equal(t, StatusOpen, r.Status)
	assert.Equal(t, int64(1), r.Version)
	require.Len(t, r.History, 1)
	assert.Equal(t, StatusChange{To: StatusOpen, Action: ActionCreate, Actor: requestor, At: t0}, r.History[0])
	assert.Nil(t, r.ClosedAt)
	assert.Nil(t, r.FulfillingUser)

	t.Run("rejects missing owner", func(t *testing.T) {
		_, err := NewRequest(id.NewRequestID(), BlueprintRef{}, 0, requestor, "Bob", Owner{Kind: "alliance", ID: 1}, t0)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("rejects nil requestor", func(t *testing.T) {
		_, err := NewRequest(id.NewRequestID(), BlueprintRef{}, 0, id.UserID{}, "Bob", Owner{Kind: OwnerCharacter, ID: 1}, t0)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestApplyTransition(t *testing.T) {
	t.Run("claim then reopen then fulfill path", func(t *testing.T) {
		r := newTestRequest(t)

		r.ApplyTransition(StatusInProgress, ActionClaim, fulfiller, t0.Add(time.Minute))
		assert.Equal(t, StatusInProgress, r.Status)
		require.NotNil(t, r.FulfillingUser)
		assert.Equal(t, fulfiller, *r.FulfillingUser)
		assert.Equal(t, int64(2), r.Version)

		r.ApplyTransition(StatusOpen, ActionReopen, fulfiller, t0.Add(2*time.Minute))
		assert.Nil(t, r.FulfillingUser, "reopen releases the claim")

		r.ApplyTransition(StatusInProgress, ActionClaim, fulfiller, t0.Add(3*time.Minute))
		r.ApplyTransition(StatusFulfilled, ActionFulfill, fulfiller, t0.Add(4*time.Minute))
		assert.Equal(t, StatusFulfilled, r.Status)
		require.NotNil(t, r.ClosedAt)
		assert.Equal(t, t0.Add(4*time.Minute), *r.ClosedAt)
		assert.Equal(t, int64(5), r.Version)
		assert.Len(t, r.History, 5)
	})

	t.Run("cancel releases the claim", func(t *testing.T) {
		r := newTestRequest(t)
		r.ApplyTransition(StatusInProgress, ActionClaim, fulfiller, t0.Add(time.Minute))
		r.ApplyTransition(StatusCancelled, ActionCancel, requestor, t0.Add(2*time.Minute))
		assert.Nil(t, r.FulfillingUser)
		assert.NotNil(t, r.ClosedAt)
		assert.Equal(t, fulfiller, r.History[1].Actor, "history keeps who claimed it")
	})

	t.Run("history timestamps never go backwards", func(t *testing.T) {
		r := newTestRequest(t)
		r.ApplyTransition(StatusInProgress, ActionClaim, fulfiller, t0.Add(-time.Hour))
		last := r.History[len(r.History)-1]
		assert.Equal(t, t0, last.At)
		assert.Equal(t, StatusOpen, last.From)
		assert.Equal(t, StatusInProgress, last.To)
		assert.Equal(t, fulfiller, last.Actor)
	})
}

func TestClone_IsDeep(t *testing.T) {
	r := newTestRequest(t)
	r.ApplyTransition(StatusInProgress, ActionClaim, fulfiller, t0.Add(time.Minute))

	c := r.Clone()
	c.ApplyTransition(StatusFulfilled, ActionFulfill, fulfiller, t0.Add(2*time.Minute))
	*c.FulfillingUser = requestor

	assert.Equal(t, StatusInProgress, r.Status)
	assert.Len(t, r.History, 2)
	assert.Equal(t, fulfiller, *r.FulfillingUser)
	assert.Nil(t, r.ClosedAt)
}
