package tokenize

import (
	"fmt"
)

const (
	TypeGSE        = "gse"
	TypeWhitespace = "whitespace"
)

// NewFromConfig creates a Tokenizer based on the tokenizer type.
// "gse" (default) segments Chinese text with the embedded dictionary,
// "whitespace" splits on Unicode spaces.
func NewFromConfig(tokenizerType string) (Tokenizer, error) {
	switch tokenizerType {
	case TypeWhitespace:
		return NewWhitespace(), nil
	case TypeGSE, "":
		return NewGSE()
	default:
		return nil, fmt.Errorf("unknown tokenizer type: %s (supported: %s, %s)", tokenizerType, TypeGSE, TypeWhitespace)
	}
}
