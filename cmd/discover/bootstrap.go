package main

import (
	"fmt"

	appctx "github.com/bassista/go_discover/internal/app"
	"github.com/bassista/go_discover/internal/browser"
	"github.com/bassista/go_discover/internal/config"
	"github.com/bassista/go_discover/internal/feed"
	"github.com/bassista/go_discover/internal/interest"
	"github.com/bassista/go_discover/internal/logger"
	"github.com/bassista/go_discover/internal/tokenize"
)

func newFeedClient(cfg *config.Config) *feed.Client {
	return feed.NewClient(
		feed.WithBaseURL(cfg.API.BaseURL),
		feed.WithTimeout(cfg.API.Timeout),
		feed.WithRateLimit(cfg.API.RateLimit, cfg.API.Burst),
	)
}

// loadStore reads the interest profile and reports how it came out.
func loadStore(path string) *interest.Store {
	store, res := interest.Load(path)
	switch res.Status {
	case interest.Loaded:
		logger.WithComponent("main").Infof("loaded interest profile from %s: %d tags, %d observations", path, store.Len(), store.Total())
	default:
		logger.WithComponent("main").Infof("starting with an empty interest profile (%s): %v", path, res.Reason)
	}
	return store
}

func buildApp(cfg *config.Config, client appctx.FeedSource) (*appctx.App, error) {
	store := loadStore(cfg.Data.TagsFilePath)

	tok, err := tokenize.NewFromConfig(cfg.Misc.TokenizerType)
	if err != nil {
		return nil, fmt.Errorf("cannot init tokenizer: %w", err)
	}

	a, err := appctx.New(cfg, store, client, tok, browser.System{}, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot init app: %w", err)
	}
	logger.WithComponent("main").Debugf("run id: %s", a.RunID)
	return a, nil
}
