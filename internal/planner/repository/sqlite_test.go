package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"secureplan/internal/planner/models"

	"github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T, maxBytes int64) *Repository {
	t.Helper()

	db, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := New(db, maxBytes)
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func project(ts, name string) models.SavedProject {
	return models.SavedProject{
		Name:       name,
		Timestamp:  ts,
		Base64Data: "iVBORw0KGgo=",
		Placements: []models.Placement{
			{ID: "p1", DeviceID: "cam_120_wall", X: 10, Y: 20, Orientation: 90, Reason: "entry"},
		},
		Strategy: models.StrategyCostEffective,
		ChatHistory: []models.ChatMessage{
			{Role: models.RoleUser, Text: "Analyze this floor plan with COST_EFFECTIVE strategy."},
		},
		AnalysisText: "ok",
	}
}

func timestamps(ps []models.SavedProject) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Timestamp
	}
	return out
}

func TestSaveNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t, 0)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, repo.Save(ctx, project("T1", "first")))
	require.NoError(t, repo.Save(ctx, project("T2", "second")))

	all, err = repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"T2", "T1"}, timestamps(all))
	assert.Equal(t, project("T1", "first"), all[1])
}

func TestSaveReplacesInPlace(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t, 0)

	require.NoError(t, repo.Save(ctx, project("T1", "first")))
	require.NoError(t, repo.Save(ctx, project("T2", "second")))

	updated := project("T1", "renamed")
	updated.Placements = nil
	require.NoError(t, repo.Save(ctx, updated))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, []string{"T2", "T1"}, timestamps(all), "update keeps the entry's position")
	assert.Equal(t, "renamed", all[1].Name)
}

func TestGetAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t, 0)

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Save(ctx, project("T1", "")))
	require.NoError(t, repo.Save(ctx, project("T2", "")))

	got, err := repo.Get(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, "T1", got.DisplayName())

	require.NoError(t, repo.Delete(ctx, "T1"))
	require.NoError(t, repo.Delete(ctx, "T1"), "deleting a missing key is a no-op")

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"T2"}, timestamps(all))
}

func TestSaveStorageFullLeavesLibraryUnchanged(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t, 900)

	big := project("T1", "big")
	require.NoError(t, repo.Save(ctx, big))

	used, limit, err := repo.Usage(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(900), limit)
	require.Greater(t, used, int64(0))

	tooBig := project("T2", "too big")
	for i := 0; i < 20; i++ {
		tooBig.Placements = append(tooBig.Placements, models.Placement{ID: fmt.Sprintf("x%d", i), DeviceID: "sensor_door"})
	}

	err = repo.Save(ctx, tooBig)
	require.ErrorIs(t, err, ErrStorageFull)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"T1"}, timestamps(all))

	after, _, err := repo.Usage(ctx)
	require.NoError(t, err)
	assert.Equal(t, used, after)
}

func TestSaveReplacementIsMeasuredWithoutOldCopy(t *testing.T) {
	ctx := context.Background()

	p := project("T1", "same")
	repo := newRepo(t, 0)
	require.NoError(t, repo.Save(ctx, p))
	used, _, err := repo.Usage(ctx)
	require.NoError(t, err)

	limited := newRepo(t, used)
	require.NoError(t, limited.Save(ctx, p))
	require.NoError(t, limited.Save(ctx, p), "re-saving the same project fits the quota")
}

func TestSaveRequiresTimestamp(t *testing.T) {
	repo := newRepo(t, 0)
	assert.Error(t, repo.Save(context.Background(), project("", "x")))
}

func TestMapWriteError(t *testing.T) {
	assert.NoError(t, mapWriteError(nil))
	assert.ErrorIs(t, mapWriteError(fmt.Errorf("insert: %w", sqlite3.FULL)), ErrStorageFull)

	other := fmt.Errorf("boom")
	assert.Equal(t, other, mapWriteError(other))
}
