package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "github.com/bassista/go_discover/internal/app"
	"github.com/bassista/go_discover/internal/config"
	"github.com/bassista/go_discover/internal/feed"
	"github.com/bassista/go_discover/internal/interest"
	"github.com/bassista/go_discover/internal/tokenize"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeExplorer implements explorer for testing
type fakeExplorer struct {
	rounds     int
	discoverFn func() (appctx.Round, error)
	opened     []int64
	openErr    error
}

func (f *fakeExplorer) Discover(ctx context.Context) (appctx.Round, error) {
	f.rounds++
	if f.discoverFn != nil {
		return f.discoverFn()
	}
	return appctx.Round{
		Featured: []feed.WorkRecord{{ID: 1, Title: "featured", EditorType: "NEMO", Author: "ann"}},
		Surfaced: []feed.WorkRecord{{ID: 3, Title: "robot", EditorType: "KITTEN", Author: "bob"}},
	}, nil
}

func (f *fakeExplorer) OpenWork(ctx context.Context, id int64) (appctx.Opened, error) {
	f.opened = append(f.opened, id)
	if f.openErr != nil {
		return appctx.Opened{}, f.openErr
	}
	return appctx.Opened{Work: feed.WorkRecord{ID: id, Title: "robot"}, Recorded: []string{"robot"}}, nil
}

func nullEntry() (*logrus.Entry, *test.Hook) {
	l, hook := test.NewNullLogger()
	return logrus.NewEntry(l), hook
}

func TestInteractive_Commands(t *testing.T) {
	f := &fakeExplorer{}
	log, hook := nullEntry()

	err := interactive(context.Background(), f, strings.NewReader("\n1\nabc\n-4\n42\n0\n99\n"), log)
	require.NoError(t, err)

	assert.Equal(t, 2, f.rounds)
	assert.Equal(t, []int64{42}, f.opened)

	var sawSurfaced bool
	for _, e := range hook.AllEntries() {
		if strings.Contains(e.Message, "work id: 3, editor: KITTEN, title: robot, author: bob") {
			sawSurfaced = true
		}
	}
	assert.True(t, sawSurfaced, "surfaced work should be logged")
}

func TestInteractive_EndOfInput(t *testing.T) {
	f := &fakeExplorer{}
	log, _ := nullEntry()

	require.NoError(t, interactive(context.Background(), f, strings.NewReader("7"), log))
	assert.Equal(t, []int64{7}, f.opened)
}

func TestInteractive_OpenErrorKeepsGoing(t *testing.T) {
	f := &fakeExplorer{openErr: errors.New("save interest profile: disk full")}
	log, hook := nullEntry()

	require.NoError(t, interactive(context.Background(), f, strings.NewReader("5\n6\n0\n"), log))
	assert.Equal(t, []int64{5, 6}, f.opened)
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
}

func runInteractiveAsync(ctx context.Context, f *fakeExplorer, in io.Reader) <-chan error {
	log, _ := nullEntry()
	done := make(chan error, 1)
	go func() { done <- interactive(ctx, f, in, log) }()
	return done
}

func TestInteractive_CancelWhileWaitingForInput(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	f := &fakeExplorer{}
	ctx, cancel := context.WithCancel(context.Background())
	done := runInteractiveAsync(ctx, f, pr)

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("interactive still waiting for input after cancel")
	}
	assert.Equal(t, 1, f.rounds)
	assert.Empty(t, f.opened)
}

func TestInteractive_InterruptSignalStopsPrompt(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT)
	defer stop()

	f := &fakeExplorer{}
	done := runInteractiveAsync(ctx, f, pr)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGINT))

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("interactive still waiting for input after SIGINT")
	}
	assert.Empty(t, f.opened)
}

func TestInteractive_SharedReaderAfterLogin(t *testing.T) {
	stdin := bufio.NewReader(strings.NewReader("user\nsecret\n42\n0\n"))
	for i := 0; i < 2; i++ {
		_, err := stdin.ReadString('\n')
		require.NoError(t, err)
	}

	f := &fakeExplorer{}
	log, _ := nullEntry()
	require.NoError(t, interactive(context.Background(), f, stdin, log))
	assert.Equal(t, []int64{42}, f.opened)
}

func TestInteractive_DiscoverFailure(t *testing.T) {
	f := &fakeExplorer{discoverFn: func() (appctx.Round, error) { return appctx.Round{}, appctx.ErrNoFeeds }}
	log, _ := nullEntry()

	err := interactive(context.Background(), f, strings.NewReader("0\n"), log)
	assert.ErrorIs(t, err, appctx.ErrNoFeeds)
	assert.Empty(t, f.opened)
}

func TestPrintWeights(t *testing.T) {
	store := interest.New(filepath.Join(t.TempDir(), "tags.json"))
	for _, tag := range []string{"robot", "robot", "robot", "music"} {
		store.Record(tag)
	}

	var buf bytes.Buffer
	require.NoError(t, printWeights(&buf, store, 1))

	out := buf.String()
	assert.Contains(t, out, "TAG")
	assert.Regexp(t, `robot\s+3\s+0\.750`, out)
	assert.NotContains(t, out, "music")

	assert.Error(t, printWeights(&buf, store, -1))
}

func TestWeightsCommand(t *testing.T) {
	dir := t.TempDir()
	tags := filepath.Join(dir, "simple_tags.json")
	require.NoError(t, os.WriteFile(tags, []byte(`{"机器人": 3, "音乐": 1}`), 0o644))

	t.Setenv("GO_DISCOVER_DATA_TAGS_FILE_PATH", tags)
	t.Setenv("GO_DISCOVER_MISC_LOG_FILE", filepath.Join(dir, "latest.log"))

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"--config", dir, "weights", "--top", "0"})

	require.NoError(t, root.Execute())
	assert.Regexp(t, `机器人\s+3\s+0\.750`, out.String())
	assert.Regexp(t, `音乐\s+1\s+0\.250`, out.String())
}

func TestOpenCommand_InvalidID(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GO_DISCOVER_DATA_TAGS_FILE_PATH", filepath.Join(dir, "simple_tags.json"))
	t.Setenv("GO_DISCOVER_MISC_LOG_FILE", filepath.Join(dir, "latest.log"))

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", dir, "open", "not-a-number"})

	assert.Error(t, root.Execute())
}

type stubFeeds struct{}

func (stubFeeds) Recommended(ctx context.Context, kind feed.Kind) ([]feed.WorkRecord, []error, error) {
	return nil, nil, nil
}

func (stubFeeds) Daily(ctx context.Context, limit int) ([]feed.WorkRecord, []error, error) {
	return nil, nil, nil
}

func (stubFeeds) Work(ctx context.Context, id int64) (*feed.WorkRecord, error) {
	return &feed.WorkRecord{ID: id}, nil
}

type noopOpener struct{}

func (noopOpener) Open(string) error { return nil }

func TestNewEngine(t *testing.T) {
	cfg := &config.Config{
		Data:   config.DataConfig{PersistInterval: time.Hour},
		Server: config.ServerConfig{RequestTimeout: time.Second, CORSAllowedOrigins: "http://localhost:5173"},
	}
	store := interest.New(filepath.Join(t.TempDir(), "tags.json"))
	a, err := appctx.New(cfg, store, stubFeeds{}, tokenize.NewWhitespace(), noopOpener{}, nil)
	require.NoError(t, err)
	defer a.Shutdown()

	r := newEngine(a, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Body.String(), a.RunID)
}
