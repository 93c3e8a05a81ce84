package tokenize

import (
	"errors"
	"fmt"

	"github.com/go-ego/gse"
)

// GSE segments mixed Chinese/Latin titles in precise mode with HMM for unknown
// words, keeping punctuation and spaces as their own tokens.
type GSE struct {
	seg *gse.Segmenter
}

// NewGSE loads the embedded default dictionary. Loading takes a moment, so
// create one instance per process.
func NewGSE() (*GSE, error) {
	var seg gse.Segmenter
	if err := seg.LoadDictEmbed(); err != nil {
		return nil, fmt.Errorf("load gse dictionary: %w", err)
	}
	return &GSE{seg: &seg}, nil
}

func (g *GSE) Tokenize(text string) ([]string, error) {
	if g == nil || g.seg == nil {
		return nil, errors.New("gse tokenizer not initialized")
	}
	return g.seg.Cut(text, true), nil
}
