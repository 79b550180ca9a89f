package db

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/priyanshu1258/Hackathon/services/api/reading"
)

// Change is fired once for every entry appended to a reading log.
type Change struct {
	Category reading.Category
	Building reading.Building
	Entry    reading.Entry
}

var errEmptyPayload = errors.New("empty change payload")

func encodeChange(c Change) ([]byte, error) {
	b, err := json.Marshal(c.Entry)
	if err != nil {
		return nil, fmt.Errorf("encode change: %w", err)
	}
	return b, nil
}

func decodeChange(payload []byte) (Change, error) {
	if len(payload) == 0 {
		return Change{}, errEmptyPayload
	}

	var e reading.Entry
	if err := json.Unmarshal(payload, &e); err != nil {
		return Change{}, fmt.Errorf("decode change: %w", err)
	}
	if e.ID == "" || e.Category == "" || e.Building == "" {
		return Change{}, fmt.Errorf("decode change: missing id, category or building")
	}
	return Change{Category: e.Category, Building: e.Building, Entry: e}, nil
}
