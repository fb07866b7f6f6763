package records

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
)

const TitleField = "Title"

var ErrInvalidFormat = errors.New("invalid records format")

// Record is a single entry: field name to value
type Record map[string]string

// Title returns the Title field, or "" if the record has none
func (r Record) Title() string {
	return strings.TrimSpace(r[TitleField])
}

// Marshal encodes the record as canonical JSON
func (r Record) Marshal() ([]byte, error) {
	// encoding/json sorts map keys
	return json.Marshal(map[string]string(r))
}

// Pretty renders the record as indented JSON, one field per line, for diffs
func (r Record) Pretty() ([]byte, error) {
	data, err := json.MarshalIndent(map[string]string(r), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Unmarshal decodes a record sealed with Marshal
func Unmarshal(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return r, nil
}

// Hash returns the hex SHA-256 of canonical record bytes
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

type group struct {
	Name    string                       `json:"name"`
	Entries []map[string]json.RawMessage `json:"entries"`
	Groups  []group                      `json:"groups"`
}

type tree struct {
	Groups []group `json:"groups"`
}

// Load reads records from JSON
func Load(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidFormat)
	}

	var raw []map[string]json.RawMessage
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
	case '{':
		var t tree
		if err := json.Unmarshal(trimmed, &t); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		raw = flatten(t.Groups)
	default:
		return nil, fmt.Errorf("%w: expected a JSON array or group tree", ErrInvalidFormat)
	}

	records := make([]Record, 0, len(raw))
	for i, fields := range raw {
		rec, err := fromFields(fields)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func flatten(groups []group) []map[string]json.RawMessage {
	var out []map[string]json.RawMessage
	for _, g := range groups {
		out = append(out, g.Entries...)
		out = append(out, flatten(g.Groups)...)
	}
	return out
}

// fromFields keeps string values as-is and renders anything else as its JSON text
func fromFields(fields map[string]json.RawMessage) (Record, error) {
	rec := make(Record, len(fields))
	for k, v := range fields {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			rec[k] = s
			continue
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, v); err != nil {
			return nil, fmt.Errorf("%w: field %s: %v", ErrInvalidFormat, k, err)
		}
		if compact.String() == "null" {
			rec[k] = ""
			continue
		}
		rec[k] = compact.String()
	}
	return rec, nil
}

// keyText replaces control characters with spaces, since keys are written
// as the first column of tab separated export lines
func keyText(title string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, title))
}

// Keys assigns a unique archive key to every record, in input order.
// Untitled records become untitled-N; repeated titles get " (2)", " (3)", ...
// Control characters in titles become spaces.
func Keys(records []Record) []string {
	keys := make([]string, len(records))
	used := make(map[string]bool, len(records))
	counts := make(map[string]int, len(records))
	untitled := 0

	for i, rec := range records {
		base := keyText(rec.Title())
		if base == "" {
			untitled++
			base = "untitled-" + strconv.Itoa(untitled)
		}

		n := counts[base] + 1
		key := base
		if n > 1 {
			key = fmt.Sprintf("%s (%d)", base, n)
		}
		for used[key] {
			n++
			key = fmt.Sprintf("%s (%d)", base, n)
		}
		counts[base] = n
		used[key] = true
		keys[i] = key
	}
	return keys
}
