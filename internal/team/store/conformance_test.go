package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binoqule/internal/ordering"
	"binoqule/internal/team/models"
	"binoqule/pkg/platform/sentinel"
)

// memberStore is what every backend in this package provides.
type memberStore interface {
	ordering.Store[models.Member]
	FindByID(ctx context.Context, id string) (*models.Member, error)
	UpdateProfile(ctx context.Context, member *models.Member) error
	Ping(ctx context.Context) error
}

var fixedTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newMember(t *testing.T, name string) models.Member {
	t.Helper()
	m, err := models.NewMember("", models.Profile{
		Name:  name,
		Email: name + "@example.com",
		Role:  "Writer",
		Bio:   "Writes about " + name,
	}, fixedTime)
	require.NoError(t, err)
	return *m
}

func insert(t *testing.T, s memberStore, name string, position int) string {
	t.Helper()
	id, err := s.Insert(context.Background(), ordering.Item[models.Member]{Position: position, Payload: newMember(t, name)})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	return id
}

func fetchNames(t *testing.T, s memberStore) []string {
	t.Helper()
	items, err := s.FetchAll(context.Background())
	require.NoError(t, err)
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Payload.Name
	}
	return names
}

// runStoreConformance exercises the behaviour the ordering manager and the
// team service rely on. newStore must return an empty store.
func runStoreConformance(t *testing.T, newStore func(t *testing.T) memberStore) {
	ctx := context.Background()

	t.Run("fetch all is ascending by position", func(t *testing.T) {
		s := newStore(t)
		insert(t, s, "c", 2)
		insert(t, s, "a", 0)
		insert(t, s, "b", 1)
		assert.Equal(t, []string{"a", "b", "c"}, fetchNames(t, s))

		items, err := s.FetchAll(ctx)
		require.NoError(t, err)
		for i, it := range items {
			assert.Equal(t, i, it.Position)
			assert.Equal(t, it.ID, it.Payload.ID)
			assert.Equal(t, it.Position, it.Payload.Position)
		}
	})

	t.Run("empty store", func(t *testing.T) {
		s := newStore(t)
		items, err := s.FetchAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("insert round-trips the payload", func(t *testing.T) {
		s := newStore(t)
		id := insert(t, s, "ana", 0)
		got, err := s.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "ana", got.Name)
		assert.Equal(t, "ana@example.com", got.Email)
		assert.Equal(t, "Writes about ana", got.Bio)
		assert.Empty(t, got.PhotoURL)
		assert.True(t, fixedTime.Equal(got.CreatedAt))
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		s := newStore(t)
		insert(t, s, "ana", 0)
		m := newMember(t, "other")
		m.Email = "ana@example.com"
		_, err := s.Insert(ctx, ordering.Item[models.Member]{Position: 1, Payload: m})
		require.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("invalid payload is rejected", func(t *testing.T) {
		s := newStore(t)
		m := newMember(t, "ana")
		m.Role = ""
		_, err := s.Insert(ctx, ordering.Item[models.Member]{Position: 0, Payload: m})
		require.ErrorIs(t, err, sentinel.ErrInvalidRecord)
	})

	t.Run("update position", func(t *testing.T) {
		s := newStore(t)
		a := insert(t, s, "a", 0)
		insert(t, s, "b", 1)
		require.NoError(t, s.UpdatePosition(ctx, a, 5))
		assert.Equal(t, []string{"b", "a"}, fetchNames(t, s))

		require.ErrorIs(t, s.UpdatePosition(ctx, "missing", 0), sentinel.ErrNotFound)
	})

	t.Run("non-uuid id is a miss", func(t *testing.T) {
		s := newStore(t)
		insert(t, s, "a", 0)
		_, err := s.FindByID(ctx, "foo")
		require.ErrorIs(t, err, sentinel.ErrNotFound)
		require.ErrorIs(t, s.UpdatePosition(ctx, "foo", 0), sentinel.ErrNotFound)
		require.ErrorIs(t, s.Delete(ctx, "foo"), sentinel.ErrNotFound)
		assert.Equal(t, []string{"a"}, fetchNames(t, s))
	})

	t.Run("duplicate positions are stored and ordered by id", func(t *testing.T) {
		s := newStore(t)
		a := insert(t, s, "a", 0)
		b := insert(t, s, "b", 1)
		require.NoError(t, s.UpdatePosition(ctx, b, 0))
		items, err := s.FetchAll(ctx)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, 0, items[0].Position)
		assert.Equal(t, 0, items[1].Position)
		assert.Less(t, items[0].ID, items[1].ID)
		assert.ElementsMatch(t, []string{a, b}, []string{items[0].ID, items[1].ID})
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		a := insert(t, s, "a", 0)
		insert(t, s, "b", 1)
		require.NoError(t, s.Delete(ctx, a))
		assert.Equal(t, []string{"b"}, fetchNames(t, s))

		require.ErrorIs(t, s.Delete(ctx, a), sentinel.ErrNotFound)
		_, err := s.FindByID(ctx, a)
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("update profile keeps position", func(t *testing.T) {
		s := newStore(t)
		insert(t, s, "a", 0)
		b := insert(t, s, "b", 1)
		m, err := s.FindByID(ctx, b)
		require.NoError(t, err)

		later := fixedTime.Add(time.Hour)
		require.NoError(t, m.ApplyProfile(models.Profile{
			Name: "Bea", Email: "bea@example.com", Role: "Editor",
			PhotoURL: "https://cdn.example.com/bea.png",
		}, later))
		m.Position = 0
		require.NoError(t, s.UpdateProfile(ctx, m))

		got, err := s.FindByID(ctx, b)
		require.NoError(t, err)
		assert.Equal(t, "Bea", got.Name)
		assert.Equal(t, "https://cdn.example.com/bea.png", got.PhotoURL)
		assert.Equal(t, 1, got.Position)
		assert.True(t, later.Equal(got.UpdatedAt))

		other, err := s.FindByID(ctx, b)
		require.NoError(t, err)
		other.Email = "a@example.com"
		require.ErrorIs(t, s.UpdateProfile(ctx, other), sentinel.ErrConflict)

		other.ID = "missing"
		other.Email = "ghost@example.com"
		require.ErrorIs(t, s.UpdateProfile(ctx, other), sentinel.ErrNotFound)
	})

	t.Run("drives the ordering manager", func(t *testing.T) {
		s := newStore(t)
		mgr := ordering.NewManager[models.Member](s)
		for _, name := range []string{"A", "B", "C"} {
			_, err := mgr.Append(ctx, newMember(t, name))
			require.NoError(t, err)
		}
		_, err := mgr.MoveDown(ctx, 0)
		require.NoError(t, err)
		_, err = mgr.MoveUp(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"B", "C", "A"}, fetchNames(t, s))

		items, err := mgr.Load(ctx)
		require.NoError(t, err)
		_, err = mgr.Delete(ctx, items[1].ID)
		require.NoError(t, err)

		items, err = s.FetchAll(ctx)
		require.NoError(t, err)
		assert.True(t, ordering.Contiguous(items))
		assert.Equal(t, []string{"B", "A"}, fetchNames(t, s))
	})

	t.Run("ping", func(t *testing.T) {
		require.NoError(t, newStore(t).Ping(ctx))
	})
}
