package audit

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hasisahr/csmt/internal/models"
	"github.com/hasisahr/csmt/internal/store"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "changes.dat"), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestReadAll_EmptyLog(t *testing.T) {
	l := newTestLog(t)

	changes, err := l.ReadAll()
	require.NoError(t, err)
	assert.NotNil(t, changes)
	assert.Empty(t, changes)
}

func TestAppend_RoundTrip(t *testing.T) {
	l := newTestLog(t)

	c := models.NewChange("Task created", "", "Task:1 Report Q3 numbers", models.RoleProjectManager, "Ana")
	require.NoError(t, l.Append(c))

	changes, err := l.ReadAll()
	require.NoError(t, err)
	require.Len(t, changes, 1)

	got := changes[0]
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, c.Field, got.Field)
	assert.Equal(t, c.Before, got.Before)
	assert.Equal(t, c.After, got.After)
	assert.Equal(t, c.ActorRole, got.ActorRole)
	assert.Equal(t, c.ActorName, got.ActorName)
	assert.True(t, c.At.Equal(got.At), "timestamp %v != %v", c.At, got.At)
}

func TestAppend_KeepsOrder(t *testing.T) {
	l := newTestLog(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Record(fmt.Sprintf("field-%d", i), "", "", models.RoleTeamMember, "Ivo"))
	}

	changes, err := l.ReadAll()
	require.NoError(t, err)
	require.Len(t, changes, 5)
	for i, c := range changes {
		assert.Equal(t, fmt.Sprintf("field-%d", i), c.Field)
	}
}

func TestAppend_ConcurrentWritersLoseNothing(t *testing.T) {
	l := newTestLog(t)
	require.NoError(t, l.Record("seed", "", "", models.RoleProjectManager, "Ana"))

	const writers = 24
	var wg sync.WaitGroup
	ids := make([]uuid.UUID, writers)
	for i := 0; i < writers; i++ {
		c := models.NewChange("Task assigned", "before", fmt.Sprintf("after-%d", i), models.RoleProjectManager, "Ana")
		ids[i] = c.ID
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Append(c))
		}()
	}
	wg.Wait()

	changes, err := l.ReadAll()
	require.NoError(t, err)
	require.Len(t, changes, writers+1)
	assert.Equal(t, "seed", changes[0].Field)

	seen := make(map[uuid.UUID]models.Change, len(changes))
	for _, c := range changes[1:] {
		seen[c.ID] = c
	}
	for i, id := range ids {
		c, ok := seen[id]
		require.True(t, ok, "change %d missing", i)
		assert.Equal(t, fmt.Sprintf("after-%d", i), c.After)
		assert.Equal(t, "before", c.Before)
	}
}

func TestReadAll_NeverSeesPartialWrites(t *testing.T) {
	l := newTestLog(t)

	const writers = 10
	const readers = 10
	var wg sync.WaitGroup

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, l.Record(fmt.Sprintf("w%d", i), "", "", models.RoleProjectManager, "Ana"))
		}(i)
	}

	counts := make([][]int, readers)
	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			for k := 0; k < 5; k++ {
				changes, err := l.ReadAll()
				if !assert.NoError(t, err) {
					return
				}
				for _, c := range changes {
					assert.NotEqual(t, uuid.Nil, c.ID)
					assert.Equal(t, "Ana", c.ActorName)
				}
				counts[r] = append(counts[r], len(changes))
			}
		}(r)
	}
	wg.Wait()

	for _, seq := range counts {
		for i := 1; i < len(seq); i++ {
			assert.GreaterOrEqual(t, seq[i], seq[i-1], "a reader saw the log shrink")
		}
	}

	changes, err := l.ReadAll()
	require.NoError(t, err)
	assert.Len(t, changes, writers)
}

func TestCorruptLog_DegradesSafely(t *testing.T) {
	l := newTestLog(t)
	require.NoError(t, os.WriteFile(l.Path(), []byte("garbage"), 0o644))

	changes, err := l.ReadAll()
	assert.True(t, store.IsStorageError(err))
	assert.NotNil(t, changes)
	assert.Empty(t, changes)

	err = l.Append(models.NewChange("Task created", "", "x", models.RoleProjectManager, "Ana"))
	assert.True(t, store.IsStorageError(err))

	data, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.Equal(t, "garbage", string(data), "unreadable log must not be rewritten")

	// The token was released: another operation still completes.
	_, _ = l.ReadAll()
}
