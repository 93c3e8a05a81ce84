package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bassista/go_discover/internal/browser"
	"github.com/bassista/go_discover/internal/config"
	"github.com/bassista/go_discover/internal/feed"
	"github.com/bassista/go_discover/internal/filter"
	"github.com/bassista/go_discover/internal/interest"
	"github.com/bassista/go_discover/internal/logger"
	"github.com/bassista/go_discover/internal/metrics"
	"github.com/bassista/go_discover/internal/scheduler"
	"github.com/bassista/go_discover/internal/tokenize"
)

// ErrNoFeeds is returned by Discover when every feed request failed.
var ErrNoFeeds = errors.New("no feed could be fetched")

// FeedSource is the part of the community API client the app depends on.
type FeedSource interface {
	Recommended(ctx context.Context, kind feed.Kind) ([]feed.WorkRecord, []error, error)
	Daily(ctx context.Context, limit int) ([]feed.WorkRecord, []error, error)
	Work(ctx context.Context, id int64) (*feed.WorkRecord, error)
}

// Round is the result of one discovery pass.
type Round struct {
	RunID    string            `json:"runId"`
	At       time.Time         `json:"at"`
	Featured []feed.WorkRecord `json:"featured"`
	New      []feed.WorkRecord `json:"new"`
	Surfaced []feed.WorkRecord `json:"surfaced"`
	Stats    filter.Stats      `json:"stats"`
}

// Opened describes what OpenWork learned about a work.
type Opened struct {
	Work     feed.WorkRecord `json:"work"`
	Recorded []string        `json:"recorded"`
}

// App is the application container (immutable dependencies + lifecycle context).
// It is not a request context; handlers should still use gin's request context.
type App struct {
	Config    *config.Config
	Store     *interest.Store
	Feeds     FeedSource
	Filter    *filter.Filter
	Tokenizer tokenize.Tokenizer
	Opener    browser.Opener
	RunID     string

	BaseCtx context.Context
	Cancel  context.CancelFunc

	mu     sync.RWMutex
	latest *Round
}

func New(cfg *config.Config, store *interest.Store, feeds FeedSource, tok tokenize.Tokenizer, opener browser.Opener, draw filter.DrawFunc) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if store == nil {
		return nil, errors.New("interest store is nil")
	}
	if feeds == nil {
		return nil, errors.New("feed source is nil")
	}
	if tok == nil {
		return nil, errors.New("tokenizer is nil")
	}
	if opener == nil {
		return nil, errors.New("opener is nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		Config:    cfg,
		Store:     store,
		Feeds:     feeds,
		Filter:    filter.New(tok, draw),
		Tokenizer: tok,
		Opener:    opener,
		RunID:     uuid.NewString(),
		BaseCtx:   ctx,
		Cancel:    cancel,
	}, nil
}

func (a *App) Shutdown() {
	if a == nil || a.Cancel == nil {
		return
	}
	a.Cancel()
}

// StartBackground starts the persistence scheduler and, when a refresh interval is
// configured, the feed refresher. The returned channel closes after the final flush.
func (a *App) StartBackground() <-chan struct{} {
	done := interest.StartPersistenceScheduler(a.BaseCtx, a.Store, a.Config.Data.PersistInterval)

	if a.Config.Misc.RefreshInterval > 0 {
		scheduler.NewRefreshScheduler(a, a.Config.Misc.RefreshInterval).Start(a.BaseCtx)
	}
	return done
}

// Discover fetches the featured, new and daily feeds and filters the daily list
// against the interest profile. A failing feed is logged and left empty.
func (a *App) Discover(ctx context.Context) (Round, error) {
	log := logger.WithComponent("app").WithField("run", a.RunID)
	round := Round{
		RunID:    a.RunID,
		At:       time.Now(),
		Featured: []feed.WorkRecord{},
		New:      []feed.WorkRecord{},
		Surfaced: []feed.WorkRecord{},
	}

	var failures []error
	fetch := func(name string, get func() ([]feed.WorkRecord, []error, error)) []feed.WorkRecord {
		records, skipped, err := get()
		for _, s := range skipped {
			log.Warnf("%s feed: %v", name, s)
		}
		if err != nil {
			log.Errorf("%s feed unavailable: %v", name, err)
			failures = append(failures, fmt.Errorf("%s: %w", name, err))
			return []feed.WorkRecord{}
		}
		log.Debugf("%s feed returned %d works", name, len(records))
		return records
	}

	round.Featured = fetch(feed.Featured.String(), func() ([]feed.WorkRecord, []error, error) {
		return a.Feeds.Recommended(ctx, feed.Featured)
	})
	round.New = fetch(feed.New.String(), func() ([]feed.WorkRecord, []error, error) {
		return a.Feeds.Recommended(ctx, feed.New)
	})
	daily := fetch("daily", func() ([]feed.WorkRecord, []error, error) {
		return a.Feeds.Daily(ctx, a.Config.API.DailyLimit)
	})

	if len(failures) == 3 {
		return Round{}, fmt.Errorf("%w: %w", ErrNoFeeds, errors.Join(failures...))
	}

	sel := a.Filter.Select(daily, a.Store)
	round.Surfaced = sel.Surfaced
	round.Stats = sel.Stats
	log.Infof("round complete: %d featured, %d new, %d of %d daily surfaced",
		len(round.Featured), len(round.New), sel.Stats.Admitted, len(daily))

	a.mu.Lock()
	a.latest = &round
	a.mu.Unlock()
	return round, nil
}

// Refresh runs a discovery round and keeps only the error; used by the refresher.
func (a *App) Refresh(ctx context.Context) error {
	_, err := a.Discover(ctx)
	return err
}

// Latest returns the most recent successful round, if any.
func (a *App) Latest() (Round, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.latest == nil {
		return Round{}, false
	}
	return *a.latest, true
}

// OpenWork opens a work in the browser and learns from it: the editor type and every
// title token are recorded as observations and the profile is saved.
func (a *App) OpenWork(ctx context.Context, id int64) (Opened, error) {
	log := logger.WithComponent("app").WithField("work", id)

	url := browser.WorkURL(a.Config.Web.WorkURL, id)
	if err := a.Opener.Open(url); err != nil {
		// the work is still learned from even when no browser is available
		log.Warnf("cannot open %s: %v", url, err)
	}

	work, err := a.Feeds.Work(ctx, id)
	if err != nil {
		return Opened{}, fmt.Errorf("fetch work %d: %w", id, err)
	}

	recorded := make([]string, 0, 8)
	if strings.TrimSpace(work.EditorType) != "" {
		a.Store.Record(work.EditorType)
		recorded = append(recorded, work.EditorType)
	}
	if work.Title != "" {
		tokens, err := a.Tokenizer.Tokenize(work.Title)
		if err != nil {
			log.Warnf("cannot tokenize title %q: %v", work.Title, err)
		}
		for _, tok := range tokens {
			if strings.TrimSpace(tok) == "" {
				continue
			}
			a.Store.Record(tok)
			recorded = append(recorded, tok)
		}
	}
	log.Debugf("recorded %d observations", len(recorded))

	if err := a.Store.Save(); err != nil {
		metrics.ProfileSaves.WithLabelValues("error").Inc()
		return Opened{}, err
	}
	metrics.ProfileSaves.WithLabelValues("ok").Inc()
	return Opened{Work: *work, Recorded: recorded}, nil
}
