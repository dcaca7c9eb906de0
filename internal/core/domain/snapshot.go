package domain

import (
	"encoding/json"
	"errors"
)

// ErrInvalidSnapshot is returned for raw snapshots that are not valid JSON.
var ErrInvalidSnapshot = errors.New("invalid json snapshot")

// CloneState returns an independent JSON copy of an opaque state value.
func CloneState(state any) (json.RawMessage, error) {
	switch v := state.(type) {
	case nil:
		return json.RawMessage("null"), nil
	case json.RawMessage:
		if !json.Valid(v) {
			return nil, ErrInvalidSnapshot
		}
		return append(json.RawMessage(nil), v...), nil
	case []byte:
		if !json.Valid(v) {
			return nil, ErrInvalidSnapshot
		}
		return append(json.RawMessage(nil), v...), nil
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	return data, nil
}
