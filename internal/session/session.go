// Package session keeps the user logged in across runs by caching the login
// response on disk.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"golang.org/x/term"

	"github.com/bassista/go_discover/internal/feed"
	"github.com/bassista/go_discover/internal/logger"
)

// ErrIncompleteLogin is returned when a login response lacks the user info.
var ErrIncompleteLogin = errors.New("login response has no user info")

// Session is the logged-in user.
type Session struct {
	UserID   int64
	Nickname string
	Token    string
}

// Authenticator performs the remote login.
type Authenticator interface {
	Login(ctx context.Context, req feed.LoginRequest) ([]byte, error)
}

// Prompter asks the user for credentials.
type Prompter interface {
	Identity() (string, error)
	Password() (string, error)
}

type loginDocument struct {
	UserInfo struct {
		ID       int64  `json:"id"`
		Nickname string `json:"nickname"`
	} `json:"user_info"`
	Auth struct {
		Token string `json:"token"`
	} `json:"auth"`
}

// Manager loads the cached session or logs in.
type Manager struct {
	path string
	pid  string
	auth Authenticator
}

func NewManager(path, pid string, auth Authenticator) *Manager {
	return &Manager{path: path, pid: pid, auth: auth}
}

// Ensure returns the cached session when the cache file is valid. A corrupt
// cache is deleted; then the user is prompted and the login response cached.
func (m *Manager) Ensure(ctx context.Context, prompt Prompter) (*Session, error) {
	s, err := m.cached()
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		logger.WithComponent("session").Warnf("login cache %s is corrupt or incomplete: %v", m.path, err)
		if rmErr := os.Remove(m.path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return nil, fmt.Errorf("remove corrupt login cache: %w", rmErr)
		}
	}
	return m.login(ctx, prompt)
}

func (m *Manager) cached() (*Session, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return nil, err
	}
	var doc loginDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode login cache: %w", err)
	}
	if doc.UserInfo.Nickname == "" || doc.Auth.Token == "" {
		return nil, errors.New("login cache has no nickname or token")
	}
	return &Session{UserID: doc.UserInfo.ID, Nickname: doc.UserInfo.Nickname, Token: doc.Auth.Token}, nil
}

func (m *Manager) login(ctx context.Context, prompt Prompter) (*Session, error) {
	log := logger.WithComponent("session")
	log.Info("log in to the Codemao network to continue")

	identity, err := prompt.Identity()
	if err != nil {
		return nil, fmt.Errorf("read identity: %w", err)
	}
	password, err := prompt.Password()
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}

	body, err := m.auth.Login(ctx, feed.LoginRequest{PID: m.pid, Identity: identity, Password: password})
	if err != nil {
		return nil, fmt.Errorf("login request: %w", err)
	}

	var doc loginDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	if doc.UserInfo.ID == 0 || doc.UserInfo.Nickname == "" {
		return nil, ErrIncompleteLogin
	}
	log.Infof("login succeeded, user id: %d", doc.UserInfo.ID)

	if dir := filepath.Dir(m.path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("create login cache dir: %w", err)
		}
	}
	if err := os.WriteFile(m.path, body, 0600); err != nil {
		return nil, fmt.Errorf("write login cache: %w", err)
	}

	return &Session{UserID: doc.UserInfo.ID, Nickname: doc.UserInfo.Nickname, Token: doc.Auth.Token}, nil
}

// TerminalPrompter reads the identity as a line and the password without echo.
// Lines come from Lines, which callers share with any later reader of In so
// that buffered input is not lost.
type TerminalPrompter struct {
	In    *os.File
	Out   io.Writer
	Lines *bufio.Reader
}

// NewTerminalPrompter prompts on stdout and reads lines through stdin.
func NewTerminalPrompter(stdin *bufio.Reader) *TerminalPrompter {
	return &TerminalPrompter{In: os.Stdin, Out: os.Stdout, Lines: stdin}
}

func (p *TerminalPrompter) Identity() (string, error) {
	fmt.Fprintln(p.Out, "Username / phone number:")
	return p.readLine()
}

func (p *TerminalPrompter) Password() (string, error) {
	fmt.Fprintln(p.Out, "Password:")
	fd := int(p.In.Fd())
	if !term.IsTerminal(fd) {
		return p.readLine()
	}
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(p.Out)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func (p *TerminalPrompter) readLine() (string, error) {
	if p.Lines == nil {
		p.Lines = bufio.NewReader(p.In)
	}
	line, err := p.Lines.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
