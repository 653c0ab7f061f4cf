package repo

import (
	"context"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/endfieldpass/backend/internal/constant"
	"github.com/endfieldpass/backend/internal/model"
	"github.com/endfieldpass/backend/internal/pkg/gerr"
)

func TestMemorySessionCreateGet(t *testing.T) {
	store := NewMemorySession()
	ctx := context.Background()

	id, err := store.Create(ctx, &model.ImportSession{
		ServerID:   "3",
		Lang:       "ru-ru",
		ImportKind: constant.ImportKindCharacter,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	session, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, constant.SessionStatusRunning, session.Status)
	assert.Equal(t, "3", session.ServerID)
	assert.False(t, session.CreatedAt.IsZero())

	_, err = store.Get(ctx, 42)
	assert.ErrorIs(t, err, gerr.ErrNotFound)
}

func TestMemorySessionUpdateReplacesPulls(t *testing.T) {
	store := NewMemorySession()
	ctx := context.Background()

	id, err := store.Create(ctx, &model.ImportSession{ServerID: "3"})
	require.NoError(t, err)

	pulls := []*model.Pull{
		{PoolID: "special_1_0_1", SeqID: 1, CharName: "Лэватейн", Rarity: 6},
		{PoolID: "special_1_0_1", SeqID: 2, CharName: "Антал", Rarity: 4},
	}
	err = store.Update(ctx, id, SessionUpdate{
		Status: lo.ToPtr(constant.SessionStatusDone),
		Pulls:  pulls,
	})
	require.NoError(t, err)

	session, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, constant.SessionStatusDone, session.Status)
	require.Len(t, session.Pulls, 2)
	assert.Equal(t, id, session.Pulls[0].SessionID)

	// status-only update must keep pulls intact
	err = store.Update(ctx, id, SessionUpdate{Error: lo.ToPtr("late failure")})
	require.NoError(t, err)

	session, err = store.Get(ctx, id)
	require.NoError(t, err)
	assert.Len(t, session.Pulls, 2)
	assert.Equal(t, "late failure", session.Error)

	err = store.Update(ctx, 42, SessionUpdate{Status: lo.ToPtr(constant.SessionStatusDone)})
	assert.ErrorIs(t, err, gerr.ErrNotFound)
}

func TestMemorySessionReadsAreCopies(t *testing.T) {
	store := NewMemorySession()
	ctx := context.Background()

	id, err := store.Create(ctx, &model.ImportSession{
		Pulls: []*model.Pull{{PoolID: "standard", SeqID: 7, CharName: "Перлика", Rarity: 5}},
	})
	require.NoError(t, err)

	first, err := store.Get(ctx, id)
	require.NoError(t, err)
	first.Pulls[0].CharName = "mutated"
	first.Status = "mutated"

	second, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Перлика", second.Pulls[0].CharName)
	assert.Equal(t, constant.SessionStatusRunning, second.Status)
}

func TestMemorySessionListRecentOrder(t *testing.T) {
	store := NewMemorySession()
	ctx := context.Background()

	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := store.Create(ctx, &model.ImportSession{
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
	// same timestamp as the newest: id breaks the tie
	_, err := store.Create(ctx, &model.ImportSession{
		CreatedAt: base.Add(2 * time.Minute),
	})
	require.NoError(t, err)

	sessions, err := store.ListRecent(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 4)
	ids := lo.Map(sessions, func(s *model.ImportSession, _ int) int { return s.SessionID })
	assert.Equal(t, []int{4, 3, 2, 1}, ids)

	latest, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, latest.SessionID)
}

func TestMemorySessionLatestEmpty(t *testing.T) {
	store := NewMemorySession()

	_, err := store.Latest(context.Background())
	assert.ErrorIs(t, err, gerr.ErrNotFound)
}
