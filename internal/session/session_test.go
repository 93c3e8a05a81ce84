package session

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bassista/go_discover/internal/feed"
)

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, req feed.LoginRequest) ([]byte, error) {
	args := m.Called(ctx, req)
	body, _ := args.Get(0).([]byte)
	return body, args.Error(1)
}

type stubPrompter struct {
	identity string
	password string
	err      error
	asked    int
}

func (p *stubPrompter) Identity() (string, error) {
	p.asked++
	return p.identity, p.err
}

func (p *stubPrompter) Password() (string, error) {
	return p.password, p.err
}

const validLogin = `{"user_info": {"id": 12, "nickname": "小明"}, "auth": {"token": "tok"}}`

func TestEnsure_UsesCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "login.json")
	require.NoError(t, os.WriteFile(path, []byte(validLogin), 0600))

	auth := &MockAuthenticator{}
	prompt := &stubPrompter{}
	s, err := NewManager(path, "pid", auth).Ensure(context.Background(), prompt)

	require.NoError(t, err)
	assert.Equal(t, &Session{UserID: 12, Nickname: "小明", Token: "tok"}, s)
	assert.Equal(t, 0, prompt.asked)
	auth.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
}

func TestEnsure_LogsInWithoutCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "login.json")
	ctx := context.Background()

	auth := &MockAuthenticator{}
	auth.On("Login", ctx, feed.LoginRequest{PID: "65edCTyg", Identity: "user", Password: "pw"}).
		Return([]byte(validLogin), nil)

	s, err := NewManager(path, "65edCTyg", auth).Ensure(ctx, &stubPrompter{identity: "user", password: "pw"})

	require.NoError(t, err)
	assert.Equal(t, "小明", s.Nickname)
	auth.AssertExpectations(t)

	cached, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, validLogin, string(cached))
}

func TestEnsure_CorruptCacheIsReplaced(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid json", "{broken"},
		{"missing token", `{"user_info": {"id": 1, "nickname": "n"}}`},
		{"missing nickname", `{"auth": {"token": "t"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "login.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0600))
			ctx := context.Background()

			auth := &MockAuthenticator{}
			auth.On("Login", ctx, mock.Anything).Return([]byte(validLogin), nil)
			prompt := &stubPrompter{identity: "u", password: "p"}

			s, err := NewManager(path, "pid", auth).Ensure(ctx, prompt)

			require.NoError(t, err)
			assert.Equal(t, int64(12), s.UserID)
			assert.Equal(t, 1, prompt.asked)
		})
	}
}

func TestEnsure_IncompleteLoginResponse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "login.json")
	ctx := context.Background()

	auth := &MockAuthenticator{}
	auth.On("Login", ctx, mock.Anything).Return([]byte(`{"error_code": "A-001"}`), nil)

	_, err := NewManager(path, "pid", auth).Ensure(ctx, &stubPrompter{identity: "u", password: "p"})

	assert.True(t, errors.Is(err, ErrIncompleteLogin))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "failed login must not be cached")
}

func TestEnsure_LoginRequestFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "login.json")
	ctx := context.Background()
	boom := errors.New("connection refused")

	auth := &MockAuthenticator{}
	auth.On("Login", ctx, mock.Anything).Return(nil, boom)

	_, err := NewManager(path, "pid", auth).Ensure(ctx, &stubPrompter{identity: "u", password: "p"})

	assert.True(t, errors.Is(err, boom))
}

func TestEnsure_PromptFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "login.json")
	boom := errors.New("stdin closed")

	auth := &MockAuthenticator{}
	_, err := NewManager(path, "pid", auth).Ensure(context.Background(), &stubPrompter{err: boom})

	assert.True(t, errors.Is(err, boom))
	auth.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
}

func TestTerminalPrompter_NonTerminalInput(t *testing.T) {
	in, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	_, err = in.WriteString("user@example.com\nsecret\n")
	require.NoError(t, err)
	_, err = in.Seek(0, 0)
	require.NoError(t, err)
	defer in.Close()

	out, err := os.CreateTemp(t.TempDir(), "stdout")
	require.NoError(t, err)
	defer out.Close()

	p := &TerminalPrompter{In: in, Out: out}
	identity, err := p.Identity()
	require.NoError(t, err)
	password, err := p.Password()
	require.NoError(t, err)

	assert.Equal(t, "user@example.com", identity)
	assert.Equal(t, "secret", password)
}

func TestTerminalPrompter_SharedReaderKeepsRemainingInput(t *testing.T) {
	in, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	_, err = in.WriteString("user@example.com\nsecret\n42\n0\n")
	require.NoError(t, err)
	_, err = in.Seek(0, 0)
	require.NoError(t, err)
	defer in.Close()

	out, err := os.CreateTemp(t.TempDir(), "stdout")
	require.NoError(t, err)
	defer out.Close()

	shared := bufio.NewReader(in)
	p := &TerminalPrompter{In: in, Out: out, Lines: shared}
	_, err = p.Identity()
	require.NoError(t, err)
	_, err = p.Password()
	require.NoError(t, err)

	rest, err := io.ReadAll(shared)
	require.NoError(t, err)
	assert.Equal(t, "42\n0\n", string(rest))
}
