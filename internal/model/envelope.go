package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Envelope is the response shape callers always receive from POST requests.
type Envelope struct {
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`

	// Extra holds the remaining top-level keys of a backend envelope
	// (pagination and the like).
	Extra map[string]json.RawMessage `json:"-"`

	raw json.RawMessage
}

// UnmarshalJSON keeps the backend object as received. A missing success key
// means success: the body came with a 2xx status.
func (e *Envelope) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}

	out := Envelope{Success: true}
	for k, v := range fields {
		switch k {
		case "data":
			out.Data = v
		case "success":
			if err := json.Unmarshal(v, &out.Success); err != nil {
				return fmt.Errorf("envelope success: %w", err)
			}
		case "message":
			// non-string messages stay available through the raw body
			_ = json.Unmarshal(v, &out.Message)
		default:
			if out.Extra == nil {
				out.Extra = make(map[string]json.RawMessage)
			}
			out.Extra[k] = v
		}
	}
	out.raw = append(json.RawMessage(nil), b...)

	*e = out
	return nil
}

// MarshalJSON re-emits a backend envelope unchanged; envelopes built locally
// are encoded from their fields.
func (e Envelope) MarshalJSON() ([]byte, error) {
	if e.raw != nil {
		return e.raw, nil
	}

	fields := make(map[string]any, len(e.Extra)+3)
	for k, v := range e.Extra {
		fields[k] = v
	}
	data := e.Data
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	fields["data"] = data
	fields["success"] = e.Success
	if e.Message != "" {
		fields["message"] = e.Message
	}
	return json.Marshal(fields)
}

// Decode unmarshals Data into out. A missing or null payload leaves out untouched.
func (e *Envelope) Decode(out any) error {
	if len(e.Data) == 0 || bytes.Equal(e.Data, []byte("null")) {
		return nil
	}
	return json.Unmarshal(e.Data, out)
}

// DecodeExtra unmarshals the top-level key into out. It reports whether the
// key was present.
func (e *Envelope) DecodeExtra(key string, out any) (bool, error) {
	v, ok := e.Extra[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(v, out)
}
