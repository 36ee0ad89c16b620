// Package dto provides Data Transfer Objects for API requests and responses.
//
// Responses use snake_case keys. Requests also accept the camelCase keys
// sent by older clients (formData, creatorName, rememberMe, ...); they are
// renamed before decoding and the snake_case key wins when both are present.
package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// MessageResponse carries a user-facing message without data.
type MessageResponse struct {
	Message string `json:"message"`
}

// normalizeKeys renames top-level camelCase keys of a JSON object to their
// snake_case equivalent.
func normalizeKeys(data []byte, aliases map[string]string) ([]byte, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return data, nil
	}

	renamed := false
	for camel, snake := range aliases {
		v, ok := obj[camel]
		if !ok {
			continue
		}
		delete(obj, camel)
		renamed = true
		if _, exists := obj[snake]; !exists {
			obj[snake] = v
		}
	}
	if !renamed {
		return data, nil
	}
	return json.Marshal(obj)
}

// FormData is a form submission. Values may arrive as JSON strings, numbers
// or booleans and are kept as their text; null becomes "".
type FormData map[string]string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FormData) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(FormData, len(raw))
	for k, v := range raw {
		v = bytes.TrimSpace(v)
		switch {
		case len(v) == 0 || bytes.Equal(v, []byte("null")):
			out[k] = ""
		case v[0] == '"':
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return err
			}
			out[k] = s
		case bytes.Equal(v, []byte("true")) || bytes.Equal(v, []byte("false")):
			out[k] = string(v)
		default:
			var n json.Number
			if err := json.Unmarshal(v, &n); err != nil {
				return fmt.Errorf("form field %q: value must be text", k)
			}
			out[k] = n.String()
		}
	}
	*f = out
	return nil
}
