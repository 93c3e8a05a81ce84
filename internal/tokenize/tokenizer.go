package tokenize

// Tokenizer splits a work title into ordered interest tags.
type Tokenizer interface {
	Tokenize(text string) ([]string, error)
}

// Func adapts a plain function to Tokenizer.
type Func func(text string) ([]string, error)

func (f Func) Tokenize(text string) ([]string, error) {
	return f(text)
}
