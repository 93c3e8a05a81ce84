// Package filter decides which feed items are surfaced to the user: an item
// must share a tag with the interest profile and then pass a random admission gate.
package filter

import (
	"errors"
	"fmt"

	"github.com/bassista/go_discover/internal/feed"
	"github.com/bassista/go_discover/internal/logger"
	"github.com/bassista/go_discover/internal/metrics"
	"github.com/bassista/go_discover/internal/tokenize"
)

var (
	// ErrSkippable wraps every per-record failure; the record is treated as
	// non-matching and the batch goes on.
	ErrSkippable = errors.New("record skipped")
	// ErrEmptyTitle is returned for records without a title.
	ErrEmptyTitle = errors.New("empty title")
)

// TagSet is the part of the interest store the filter reads.
type TagSet interface {
	Has(tag string) bool
}

// Decision is the outcome for one record.
type Decision struct {
	Matched  bool
	Admitted bool
}

// Surfaced reports whether the record should be shown.
func (d Decision) Surfaced() bool {
	return d.Matched && d.Admitted
}

// Stats summarizes a Select call.
type Stats struct {
	Evaluated int `json:"evaluated"`
	Skipped   int `json:"skipped"`
	Matched   int `json:"matched"`
	Admitted  int `json:"admitted"`
}

// Selection is the result of filtering a batch.
type Selection struct {
	Surfaced []feed.WorkRecord
	Stats    Stats
}

// Filter matches titles against a TagSet and gates matches with a draw.
type Filter struct {
	tokenizer tokenize.Tokenizer
	draw      DrawFunc
}

// New creates a Filter. A nil draw uses UniformDraw(nil).
func New(tokenizer tokenize.Tokenizer, draw DrawFunc) *Filter {
	if draw == nil {
		draw = UniformDraw(nil)
	}
	return &Filter{tokenizer: tokenizer, draw: draw}
}

// Evaluate decides one record. The draw is consumed only for matched records.
// Errors wrap ErrSkippable and come with a zero Decision.
func (f *Filter) Evaluate(rec feed.WorkRecord, tags TagSet) (Decision, error) {
	if rec.Title == "" {
		return Decision{}, fmt.Errorf("%w: work %d: %w", ErrSkippable, rec.ID, ErrEmptyTitle)
	}

	tokens, err := f.tokenizer.Tokenize(rec.Title)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: work %d: tokenize: %w", ErrSkippable, rec.ID, err)
	}

	var d Decision
	for _, tok := range tokens {
		if tags.Has(tok) {
			d.Matched = true
			break
		}
	}
	if d.Matched {
		d.Admitted = IsPrime(f.draw())
	}
	return d, nil
}

// Select evaluates records in order and keeps the surfaced ones.
func (f *Filter) Select(records []feed.WorkRecord, tags TagSet) Selection {
	sel := Selection{Surfaced: []feed.WorkRecord{}}
	for _, rec := range records {
		sel.Stats.Evaluated++
		d, err := f.Evaluate(rec, tags)
		if err != nil {
			sel.Stats.Skipped++
			metrics.FilterDecisions.WithLabelValues("skipped").Inc()
			logger.WithComponent("filter").Debugf("skipping record: %v", err)
			continue
		}
		switch {
		case d.Surfaced():
			sel.Stats.Matched++
			sel.Stats.Admitted++
			sel.Surfaced = append(sel.Surfaced, rec)
			metrics.FilterDecisions.WithLabelValues("surfaced").Inc()
		case d.Matched:
			sel.Stats.Matched++
			metrics.FilterDecisions.WithLabelValues("rejected").Inc()
		default:
			metrics.FilterDecisions.WithLabelValues("unmatched").Inc()
		}
	}
	logger.WithComponent("filter").Debugf("evaluated %d records: %d skipped, %d matched, %d surfaced",
		sel.Stats.Evaluated, sel.Stats.Skipped, sel.Stats.Matched, sel.Stats.Admitted)
	return sel
}
