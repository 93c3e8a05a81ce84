package interest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// ErrSave marks a failed write of the profile file. It is never retried.
var ErrSave = errors.New("save interest profile")

// LoadStatus tells how a store came out of Load.
type LoadStatus int

const (
	// Loaded means the file was read and accepted.
	Loaded LoadStatus = iota
	// Recovered means the file was missing or unusable and the store starts empty.
	Recovered
)

func (s LoadStatus) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Recovered:
		return "recovered"
	default:
		return fmt.Sprintf("LoadStatus(%d)", int(s))
	}
}

// LoadResult describes the outcome of Load. Reason is set only when Recovered.
type LoadResult struct {
	Status LoadStatus
	Reason error
}

var validate = validator.New()

// Load reads the profile at source. It never fails: a missing, unreadable or
// malformed file yields an empty store and a Recovered result carrying the reason.
func Load(source string) (*Store, LoadResult) {
	s := New(source)

	counts, err := readCounts(source)
	if err != nil {
		return s, LoadResult{Status: Recovered, Reason: err}
	}
	for tag, c := range counts {
		s.observations[tag] = c
	}
	return s, LoadResult{Status: Loaded}
}

func readCounts(source string) (map[string]int, error) {
	file, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("open interest profile: %w", err)
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read interest profile: %w", err)
	}

	var counts map[string]int
	if err := json.Unmarshal(payload, &counts); err != nil {
		return nil, fmt.Errorf("decode interest profile: %w", err)
	}
	// "null" decodes to a nil map without error
	if counts == nil {
		return nil, errors.New("decode interest profile: not a JSON object")
	}
	if err := validate.Var(counts, "dive,gte=0"); err != nil {
		return nil, fmt.Errorf("validate interest profile: %w", err)
	}
	return counts, nil
}

// Save writes all observations to the source file, replacing it atomically.
// Errors wrap ErrSave.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := encodeCounts(s.observations)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSave, err)
	}
	if err := writeAtomic(s.source, payload); err != nil {
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	s.dirty = false
	return nil
}

// encodeCounts renders a flat, 2-space indented object with sorted keys and
// non-ASCII text kept literal.
func encodeCounts(counts map[string]int) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(counts); err != nil {
		return nil, fmt.Errorf("marshal observations: %w", err)
	}
	return literalSeparators(buf.Bytes()), nil
}

// literalSeparators undoes the \u2028 and \u2029 escapes encoding/json always
// applies. Escapes are walked in pairs so an escaped backslash followed by
// "u2028" in a tag is left alone.
func literalSeparators(b []byte) []byte {
	if !bytes.Contains(b, []byte(`\u202`)) {
		return b
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' || i+1 >= len(b) {
			out = append(out, b[i])
			continue
		}
		if b[i+1] == 'u' && i+6 <= len(b) {
			switch string(b[i+2 : i+6]) {
			case "2028":
				out = append(out, "\u2028"...)
				i += 5
				continue
			case "2029":
				out = append(out, "\u2029"...)
				i += 5
				continue
			}
		}
		out = append(out, b[i], b[i+1])
		i++
	}
	return out
}

func writeAtomic(path string, payload []byte) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, base+".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
	}()

	if _, err := tmpFile.Write(payload); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpFile.Name(), path); err != nil {
		return fmt.Errorf("replace interest profile: %w", err)
	}

	return nil
}
