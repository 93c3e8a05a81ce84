package feed

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"
)

// ErrMalformedItem marks a single feed item that could not be decoded.
// The item is skipped; the rest of the feed is kept.
var ErrMalformedItem = errors.New("malformed feed item")

// WorkRecord is one creative work as returned by the recommendation feeds.
type WorkRecord struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	EditorType string `json:"editorType"`
	Author     string `json:"author"`
}

// Kind selects one of the home page recommendation lists.
type Kind int

const (
	Featured Kind = 1
	New      Kind = 2
)

func (k Kind) String() string {
	switch k {
	case Featured:
		return "featured"
	case New:
		return "new"
	default:
		return "kind-" + strconv.Itoa(int(k))
	}
}

// looseString accepts a JSON string or number.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", string(data))
	}
	*s = looseString(n.String())
	return nil
}

type recommendItem struct {
	ID   int64       `json:"id"`
	Name string      `json:"name"`
	Type looseString `json:"type"`
	User struct {
		Nickname string `json:"nickname"`
	} `json:"user"`
}

func (r recommendItem) record() WorkRecord {
	return WorkRecord{ID: r.ID, Title: r.Name, EditorType: string(r.Type), Author: r.User.Nickname}
}

// subjectItem covers both the flat and the nested shape of daily subject works.
type subjectItem struct {
	WorkID   int64       `json:"work_id"`
	WorkName string      `json:"work_name"`
	Nickname string      `json:"nickname"`
	Type     looseString `json:"type"`
	Item     *struct {
		WorkID   int64       `json:"work_id"`
		WorkName string      `json:"work_name"`
		Nickname string      `json:"nickname"`
		Type     looseString `json:"type"`
	} `json:"item"`
}

func (s subjectItem) record() WorkRecord {
	rec := WorkRecord{ID: s.WorkID, Title: s.WorkName, EditorType: string(s.Type), Author: s.Nickname}
	if s.Item != nil {
		if rec.ID == 0 {
			rec.ID = s.Item.WorkID
		}
		if rec.Title == "" {
			rec.Title = s.Item.WorkName
		}
		if rec.Author == "" {
			rec.Author = s.Item.Nickname
		}
		if rec.EditorType == "" {
			rec.EditorType = string(s.Item.Type)
		}
	}
	return rec
}

type workInfo struct {
	ID       int64       `json:"id"`
	WorkName string      `json:"work_name"`
	Type     looseString `json:"type"`
	UserInfo struct {
		Nickname string `json:"nickname"`
	} `json:"user_info"`
}

func (w workInfo) record() WorkRecord {
	return WorkRecord{ID: w.ID, Title: w.WorkName, EditorType: string(w.Type), Author: w.UserInfo.Nickname}
}

// itemList returns the raw items of a body that is either a list or {"items": [...]}.
func itemList(body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Items []json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("decode item list: %w", err)
		}
		return wrapped.Items, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("decode item list: %w", err)
	}
	return items, nil
}

// decodeItems decodes each raw item independently. Items that fail to decode
// or carry no id are returned as errors wrapping ErrMalformedItem.
func decodeItems[T interface{ record() WorkRecord }](items []json.RawMessage) ([]WorkRecord, []error) {
	records := make([]WorkRecord, 0, len(items))
	var skipped []error
	for i, raw := range items {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			skipped = append(skipped, fmt.Errorf("%w: item %d: %v", ErrMalformedItem, i, err))
			continue
		}
		rec := item.record()
		if rec.ID == 0 {
			skipped = append(skipped, fmt.Errorf("%w: item %d: missing work id", ErrMalformedItem, i))
			continue
		}
		records = append(records, rec)
	}
	return records, skipped
}
