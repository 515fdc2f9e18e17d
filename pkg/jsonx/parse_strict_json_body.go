// parse_strict_json_body.go
package jsonx

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

var (
	ErrEmptyBody    = errors.New("empty body")
	ErrTrailingJSON = errors.New("trailing data")
)

// MaxBodyBytes caps what ParseStrictJSONBody reads.
const MaxBodyBytes = 1 << 20

// ParseStrictJSONBody reads and **strictly** decodes a JSON HTTP request body into dst.
//
// Intended HTTP mapping: **400 Bad Request** for every error it returns:
//
//   - Malformed JSON syntax (bad tokens, truncated body)
//   - Empty body (ErrEmptyBody)
//   - Trailing data after the first value (ErrTrailingJSON)
//   - Unknown fields (DisallowUnknownFields)
//   - Field-type mismatches (e.g. string into int)
//
// It performs shape validation only. Required fields and semantic rules are
// the caller's job (usually a 422).
func ParseStrictJSONBody[T any](r *http.Request, dst *T) error {
	if r == nil || r.Body == nil {
		return ErrEmptyBody
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes))
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return ErrEmptyBody
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return ErrTrailingJSON
	}
	return nil
}
