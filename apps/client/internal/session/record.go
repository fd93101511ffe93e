package session

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// DefaultKey names the persisted session record.
const DefaultKey = "equity_poker_session"

var (
	ErrCorruptRecord = errors.New("session: corrupt record")
	ErrClosed        = errors.New("session: backend closed")
)

// Record is the identity the client remembers between runs.
type Record struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

func (r Record) Empty() bool {
	return r.UserID == "" && r.Name == ""
}

func encodeRecord(r Record) ([]byte, error) {
	return json.Marshal(r)
}

// decodeRecord accepts any JSON object; fields that are missing or not
// strings read as empty. Anything that is not an object is corrupt.
func decodeRecord(raw []byte) (Record, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if fields == nil {
		return Record{}, ErrCorruptRecord
	}
	var r Record
	if v, ok := fields["userId"].(string); ok {
		r.UserID = v
	}
	if v, ok := fields["name"].(string); ok {
		r.Name = v
	}
	return r, nil
}
