package repository

import (
	"context"
	"decklobby/internal/model"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(id, code string, created time.Time) *model.Session {
	return &model.Session{
		ID:           id,
		Code:         code,
		Participants: []*model.Participant{{ID: id + "-host", DisplayName: "Host", IsHost: true}},
		Capacity:     4,
		Status:       model.SessionOpen,
		Version:      1,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}

func mustCreate(t *testing.T, repo SessionRepo, s *model.Session) {
	t.Helper()
	require.True(t, repo.ReserveCode(s.Code))
	require.NoError(t, repo.Create(context.Background(), s))
}

func TestReserveAndCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepo()

	assert.ErrorIs(t, repo.Create(ctx, newSession("s1", "AAAAAA", time.Now())), ErrCodeNotReserved)

	require.True(t, repo.ReserveCode("AAAAAA"))
	assert.False(t, repo.ReserveCode("AAAAAA"))
	require.NoError(t, repo.Create(ctx, newSession("s1", "AAAAAA", time.Now())))

	// A stored code cannot be released or re-reserved.
	repo.ReleaseCode("AAAAAA")
	assert.False(t, repo.ReserveCode("AAAAAA"))

	require.True(t, repo.ReserveCode("BBBBBB"))
	assert.ErrorIs(t, repo.Create(ctx, newSession("s1", "BBBBBB", time.Now())), ErrDuplicateID)
	repo.ReleaseCode("BBBBBB")
	assert.True(t, repo.ReserveCode("BBBBBB"))
}

func TestReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepo()
	mustCreate(t, repo, newSession("s1", "AAAAAA", time.Now()))

	got, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	got.Participants[0].DisplayName = "Mallory"
	got.Participants = nil

	again, err := repo.GetByCode(ctx, "AAAAAA")
	require.NoError(t, err)
	require.Len(t, again.Participants, 1)
	assert.Equal(t, "Host", again.Participants[0].DisplayName)

	missing, err := repo.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpdateBumpsVersionAndRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepo()
	mustCreate(t, repo, newSession("s1", "AAAAAA", time.Now()))

	updated, err := repo.Update(ctx, "s1", func(s *model.Session) error {
		s.Capacity = 6
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, 6, updated.Capacity)

	_, err = repo.Update(ctx, "s1", func(s *model.Session) error {
		s.Capacity = 8
		s.Participants = nil
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	current, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, current.Version)
	assert.Equal(t, 6, current.Capacity)
	assert.Len(t, current.Participants, 1)

	absent, err := repo.Update(ctx, "nope", func(s *model.Session) error { return nil })
	require.NoError(t, err)
	assert.Nil(t, absent)
}

func TestClosingEvictsAndFreesCode(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepo()
	mustCreate(t, repo, newSession("s1", "AAAAAA", time.Now()))

	closed, err := repo.Update(ctx, "s1", func(s *model.Session) error {
		s.Participants = nil
		s.Status = model.SessionClosed
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, model.SessionClosed, closed.Status)

	gone, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, gone)
	byCode, err := repo.GetByCode(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Nil(t, byCode)

	assert.True(t, repo.ReserveCode("AAAAAA"))
}

func TestDeleteFreesCode(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepo()
	mustCreate(t, repo, newSession("s1", "AAAAAA", time.Now()))

	require.NoError(t, repo.Delete(ctx, "s1"))
	require.NoError(t, repo.Delete(ctx, "s1"))
	assert.True(t, repo.ReserveCode("AAAAAA"))
}

func TestListOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepo()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mustCreate(t, repo, newSession("late", "CCCCCC", base.Add(2*time.Minute)))
	mustCreate(t, repo, newSession("early", "AAAAAA", base))
	mustCreate(t, repo, newSession("mid", "BBBBBB", base.Add(time.Minute)))

	open, err := repo.ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 3)
	assert.Equal(t, []string{"early", "mid", "late"}, []string{open[0].ID, open[1].ID, open[2].ID})

	_, err = repo.Update(ctx, "mid", func(s *model.Session) error {
		s.Status = model.SessionActive
		return nil
	})
	require.NoError(t, err)

	open, err = repo.ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "early", open[0].ID)
	assert.Equal(t, "late", open[1].ID)
}

func TestConcurrentUpdatesAreSerialized(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepo()
	mustCreate(t, repo, newSession("s1", "AAAAAA", time.Now()))
	mustCreate(t, repo, newSession("s2", "BBBBBB", time.Now()))

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		for _, id := range []string{"s1", "s2"} {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_, err := repo.Update(ctx, id, func(s *model.Session) error {
					s.Capacity++
					return nil
				})
				assert.NoError(t, err)
			}(id)
		}
	}
	wg.Wait()

	for _, id := range []string{"s1", "s2"} {
		s, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 4+writers, s.Capacity)
		assert.Equal(t, 1+writers, s.Version)
	}
}
