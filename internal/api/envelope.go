package api

import (
	"aclue/internal/model"
	"bytes"
	"encoding/json"
	"fmt"
)

// normalizeEnvelope passes a {data: ...} body through and wraps anything else
// as {data: body, success: true}.
func normalizeEnvelope(body []byte) (*model.Envelope, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return &model.Envelope{Data: json.RawMessage("null"), Success: true}, nil
	}

	if _, ok := topLevelData(body); ok {
		var env model.Envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("decode envelope: %w", err)
		}
		return &env, nil
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("decode envelope: response is not json")
	}
	return &model.Envelope{Data: json.RawMessage(body), Success: true}, nil
}

// decodeData unmarshals body into out, reading the data field when the body
// is enveloped.
func decodeData(body []byte, out any) error {
	if out == nil {
		return nil
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil
	}

	if data, ok := topLevelData(body); ok {
		body = data
	}
	if bytes.Equal(body, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func topLevelData(body []byte) (json.RawMessage, bool) {
	if len(body) == 0 || body[0] != '{' {
		return nil, false
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, false
	}
	data, ok := obj["data"]
	return data, ok
}
