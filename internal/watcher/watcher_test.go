package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesearch/hybrid-search/internal/coreerrors"
)

func noopIndex(ctx context.Context) error { return nil }

func TestNewRefusesFilesystemRoot(t *testing.T) {
	_, err := New("/", noopIndex, Options{})
	require.ErrorIs(t, err, coreerrors.ErrWatcherRefused)
}

func TestNewRefusesHomeDirectory(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	_, err = New(home, noopIndex, Options{})
	require.ErrorIs(t, err, coreerrors.ErrWatcherRefused)
}

func TestNewAcceptsOrdinaryDirectory(t *testing.T) {
	w, err := New(t.TempDir(), noopIndex, Options{})
	require.NoError(t, err)
	assert.NotNil(t, w)
}

func TestFileChangeTriggersIndexPass(t *testing.T) {
	root := t.TempDir()

	var calls atomic.Int32
	w, err := New(root, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}, Options{Interval: 50 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	go w.Start(ctx)

	// Give the watcher a beat to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("package a\n"), 0o644))

	require.Eventually(t, func() bool { return calls.Load() >= 1 },
		2*time.Second, 20*time.Millisecond, "expected an index pass after a file change")
}

func TestNoChangeNoIndexPass(t *testing.T) {
	root := t.TempDir()

	var calls atomic.Int32
	w, err := New(root, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}, Options{Interval: 30 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	w.Start(ctx)

	assert.Equal(t, int32(0), calls.Load(), "a clean tree must not trigger index passes")
}

func TestIgnoredPathDoesNotFlipDirty(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "logs"), 0o755))

	w, err := New(root, noopIndex, Options{
		Interval: time.Hour, // never tick; we only inspect the dirty bit
		Ignore: func(rel string) bool {
			return rel == "logs" || filepath.Dir(rel) == "logs"
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "logs", "x.txt"), []byte("y"), 0o644))
	time.Sleep(200 * time.Millisecond)

	dirty, _, _, _ := w.Snapshot()
	assert.False(t, dirty, "a change under an ignored path must not flip the dirty bit")
}

func TestGitignoreEditRefreshesRulesWithoutDirty(t *testing.T) {
	root := t.TempDir()

	var refreshed atomic.Int32
	w, err := New(root, noopIndex, Options{
		Interval:             time.Hour,
		OnIgnoreRulesChanged: func() { refreshed.Add(1) },
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("dist/\n"), 0o644))

	require.Eventually(t, func() bool { return refreshed.Load() >= 1 },
		2*time.Second, 20*time.Millisecond)
	dirty, _, _, _ := w.Snapshot()
	assert.False(t, dirty, "a .gitignore edit refreshes rules, it does not flip dirty")
}

func TestChangeDuringRunFiresOneFollowUpPass(t *testing.T) {
	root := t.TempDir()

	firstRunStarted := make(chan struct{})
	releaseFirstRun := make(chan struct{})
	var calls atomic.Int32

	w, err := New(root, func(ctx context.Context) error {
		if calls.Add(1) == 1 {
			close(firstRunStarted)
			<-releaseFirstRun
		}
		return nil
	}, Options{Interval: 40 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go w.Start(ctx)
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("package a\n"), 0o644))
	<-firstRunStarted

	// A second change lands while the first pass is still running.
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.go"), []byte("package a\n"), 0o644))
	time.Sleep(150 * time.Millisecond)
	close(releaseFirstRun)

	require.Eventually(t, func() bool { return calls.Load() >= 2 },
		2*time.Second, 20*time.Millisecond, "a mid-run change must fire a follow-up pass")
}

func TestConsecutiveErrorsPauseTheWatcher(t *testing.T) {
	root := t.TempDir()

	var calls atomic.Int32
	var pausedWith error
	pausedCh := make(chan struct{})

	w, err := New(root, func(ctx context.Context) error {
		calls.Add(1)
		return errors.New("embedding endpoint down")
	}, Options{
		Interval:             20 * time.Millisecond,
		MaxConsecutiveErrors: 3,
		OnPaused: func(err error) {
			pausedWith = err
			close(pausedCh)
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go w.Start(ctx)
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("package a\n"), 0o644))

	select {
	case <-pausedCh:
	case <-time.After(4 * time.Second):
		t.Fatal("watcher never paused after repeated errors")
	}

	assert.EqualValues(t, 3, calls.Load())
	assert.Error(t, pausedWith)
	_, _, paused, consecutive := w.Snapshot()
	assert.True(t, paused)
	assert.Equal(t, 3, consecutive)

	// No further passes fire while paused.
	before := calls.Load()
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, before, calls.Load())
}

func TestTransientErrorBacksOffThenRestores(t *testing.T) {
	w, err := New(t.TempDir(), noopIndex, Options{
		Interval:             20 * time.Millisecond,
		MaxInterval:          160 * time.Millisecond,
		MaxConsecutiveErrors: 10,
	})
	require.NoError(t, err)

	// Drive finishRun directly: backoff math should not need a live
	// filesystem to be testable.
	w.mu.Lock()
	w.running = true
	w.mu.Unlock()
	w.finishRun(errors.New("transient"))
	assert.Equal(t, 40*time.Millisecond, w.currentInterval())

	w.mu.Lock()
	w.running = true
	w.mu.Unlock()
	w.finishRun(errors.New("transient"))
	assert.Equal(t, 80*time.Millisecond, w.currentInterval())

	w.mu.Lock()
	w.running = true
	w.mu.Unlock()
	w.finishRun(nil)
	assert.Equal(t, 20*time.Millisecond, w.currentInterval(), "success restores the base interval")
	_, _, _, consecutive := w.Snapshot()
	assert.Equal(t, 0, consecutive)
}

func TestBackoffIsCappedAtMaxInterval(t *testing.T) {
	w, err := New(t.TempDir(), noopIndex, Options{
		Interval:             20 * time.Millisecond,
		MaxInterval:          50 * time.Millisecond,
		MaxConsecutiveErrors: 10,
	})
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		w.mu.Lock()
		w.running = true
		w.mu.Unlock()
		w.finishRun(errors.New("transient"))
	}
	assert.Equal(t, 50*time.Millisecond, w.currentInterval())
}

func TestCancellationDoesNotCountAsError(t *testing.T) {
	w, err := New(t.TempDir(), noopIndex, Options{Interval: 20 * time.Millisecond})
	require.NoError(t, err)

	w.mu.Lock()
	w.running = true
	w.mu.Unlock()
	w.finishRun(coreerrors.ErrCancelled)

	_, _, paused, consecutive := w.Snapshot()
	assert.False(t, paused)
	assert.Equal(t, 0, consecutive)
}

func TestResumeClearsPause(t *testing.T) {
	w, err := New(t.TempDir(), noopIndex, Options{
		Interval:             20 * time.Millisecond,
		MaxConsecutiveErrors: 1,
	})
	require.NoError(t, err)

	w.mu.Lock()
	w.running = true
	w.mu.Unlock()
	w.finishRun(errors.New("fatal enough"))
	_, _, paused, _ := w.Snapshot()
	require.True(t, paused)

	w.Resume()
	_, _, paused, consecutive := w.Snapshot()
	assert.False(t, paused)
	assert.Equal(t, 0, consecutive)
	assert.Equal(t, 20*time.Millisecond, w.currentInterval())
}
