package score

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/MJE43/mindful-arcade/internal/store"
)

type failingPersister struct{ calls int }

func (f *failingPersister) SaveBest(context.Context, string, int) error {
	f.calls++
	return errors.New("disk full")
}

func TestReportKeepsMaximum(t *testing.T) {
	b := NewBoard(nil, nil)
	for _, s := range []int{300, 700, 500, 700} {
		b.Report("reaction", s)
	}
	best, ok := b.Best("reaction")
	require.True(t, ok)
	assert.Equal(t, 700, best)

	_, ok = b.Best("memory")
	assert.False(t, ok)
}

func TestReportIgnoresNegativeAndEmptyID(t *testing.T) {
	b := NewBoard(nil, nil)
	b.Report("focus", -10)
	b.Report("", 50)
	assert.Empty(t, b.All())

	b.Report("focus", 0)
	best, ok := b.Best("focus")
	assert.True(t, ok, "a zero score still counts as played")
	assert.Zero(t, best)
}

func TestAllReturnsCopy(t *testing.T) {
	b := NewBoard(nil, nil)
	b.Report("mindful", 5)
	all := b.All()
	all["mindful"] = 99
	best, _ := b.Best("mindful")
	assert.Equal(t, 5, best)
}

func TestLoadDoesNotPersist(t *testing.T) {
	p := &failingPersister{}
	b := NewBoard(p, nil)
	b.Load(map[string]int{"memory": 880, "focus": 40})
	assert.Zero(t, p.calls)
	assert.Equal(t, map[string]int{"memory": 880, "focus": 40}, b.All())

	b.Report("memory", 850)
	assert.Zero(t, p.calls, "a lower score is not persisted")
}

func TestPersistFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	p := &failingPersister{}
	b := NewBoard(p, zap.New(core))

	b.Report("focus", 30)
	assert.Equal(t, 1, p.calls)
	best, _ := b.Best("focus")
	assert.Equal(t, 30, best, "in-memory best survives a persistence failure")

	entries := logs.FilterMessage("persist best score").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "focus", entries[0].ContextMap()["game"])
}

func TestPersistsToStore(t *testing.T) {
	ctx := context.Background()
	db, err := store.Open(ctx, filepath.Join(t.TempDir(), "scores.db"))
	require.NoError(t, err)
	defer db.Close()

	b := NewBoard(db, nil)
	b.Report("memory", 820)
	b.Report("memory", 790)
	b.Report("memory", 905)

	got, err := db.GetBest(ctx, "memory")
	require.NoError(t, err)
	assert.Equal(t, 905, got.Score)
}

func TestConcurrentReports(t *testing.T) {
	b := NewBoard(nil, nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(s int) {
			defer wg.Done()
			b.Report("reaction", s)
		}(i * 10)
	}
	wg.Wait()
	best, _ := b.Best("reaction")
	assert.Equal(t, 490, best)
}
