package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	appctx "github.com/bassista/go_discover/internal/app"
	"github.com/bassista/go_discover/internal/feed"
	"github.com/bassista/go_discover/internal/logger"
	"github.com/bassista/go_discover/internal/session"
)

func newRunCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Log in, show today's feeds and open works interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// the login prompt and the command loop read stdin through one buffer
			stdin := bufio.NewReader(os.Stdin)

			client := newFeedClient(c.cfg)
			sess, err := session.NewManager(c.cfg.Data.LoginFilePath, c.cfg.API.LoginPID, client).
				Ensure(ctx, session.NewTerminalPrompter(stdin))
			if err != nil {
				logger.WithComponent("main").Errorf("login failed: %v", err)
				return err
			}
			logger.WithComponent("main").Infof("welcome home, %s", sess.Nickname)

			a, err := buildApp(c.cfg, client)
			if err != nil {
				logger.WithComponent("main").Error(err)
				return err
			}
			defer a.Shutdown()

			return interactive(ctx, a, stdin, logger.WithComponent("main"))
		},
	}
}

// explorer is what the interactive loop needs from the app.
type explorer interface {
	Discover(ctx context.Context) (appctx.Round, error)
	OpenWork(ctx context.Context, id int64) (appctx.Opened, error)
}

// interactive shows a round and then reads commands until 0, end of input or
// ctx is cancelled: 1 runs a new round, any other number opens that work.
func interactive(ctx context.Context, a explorer, in io.Reader, log *logrus.Entry) error {
	if err := showRound(ctx, a, log); err != nil {
		return err
	}

	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()
	lines, readErr := readLines(readCtx, in)
	for {
		log.Info("enter a work id to open it, 0 to quit, 1 to refresh:")

		var input string
		select {
		case <-ctx.Done():
			log.Info("interrupted, bye")
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return <-readErr
			}
			input = strings.TrimSpace(line)
		}

		switch input {
		case "":
			continue
		case "0":
			return nil
		case "1":
			if err := showRound(ctx, a, log); err != nil {
				return err
			}
			continue
		}

		id, err := strconv.ParseInt(input, 10, 64)
		if err != nil || id <= 0 {
			log.Warnf("not a work id: %q", input)
			continue
		}

		opened, err := a.OpenWork(ctx, id)
		if err != nil {
			log.Errorf("cannot open work %d: %v", id, err)
			if errors.Is(err, context.Canceled) {
				return err
			}
			continue
		}
		log.Infof("recorded %v from %q by %s", opened.Recorded, opened.Work.Title, opened.Work.Author)
	}
}

// readLines scans in on its own goroutine so a blocked read never holds up
// cancellation. lines is closed at end of input; readErr then yields the scan
// error, or nil.
func readLines(ctx context.Context, in io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				readErr <- ctx.Err()
				return
			}
		}
		readErr <- scanner.Err()
	}()
	return lines, readErr
}

func showRound(ctx context.Context, a explorer, log *logrus.Entry) error {
	round, err := a.Discover(ctx)
	if err != nil {
		log.Errorf("discovery failed: %v", err)
		return err
	}
	logWorks(log, "featured picks:", round.Featured)
	logWorks(log, "new works:", round.New)
	logWorks(log, "daily picks for you:", round.Surfaced)
	return nil
}

func logWorks(log *logrus.Entry, heading string, works []feed.WorkRecord) {
	log.Info(heading)
	for _, w := range works {
		log.Infof("work id: %d, editor: %s, title: %s, author: %s", w.ID, w.EditorType, w.Title, w.Author)
	}
}
