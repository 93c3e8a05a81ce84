package tokenize

import "strings"

// Whitespace splits on runs of Unicode white space.
type Whitespace struct{}

func NewWhitespace() *Whitespace {
	return &Whitespace{}
}

func (w *Whitespace) Tokenize(text string) ([]string, error) {
	return strings.Fields(text), nil
}
