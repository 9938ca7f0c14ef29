package redisstore

import (
	"encoding/json"
	"fmt"

	"github.com/jacentio/espalier/internal/codec"
)

// Encode serializes a snapshot to its JSON wire form, tagging datetimes at
// any nesting depth.
func Encode(snapshot map[string]any) ([]byte, error) {
	data, err := json.Marshal(codec.Tag(snapshot))
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode deserializes a JSON wire form, reviving tagged datetimes as UTC
// times.
func Decode(data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	revived, ok := codec.Revive(raw).(map[string]any)
	if !ok {
		return raw, nil
	}
	return revived, nil
}
