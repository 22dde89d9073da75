package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxRequestBody caps API request bodies at 1 MB. Webhook payloads from the
// ticket sources are read by the handler directly and are not subject to it.
const maxRequestBody = 1 << 20

// DecodeJSON decodes a JSON request body into dst, rejecting unknown fields
// so a misspelled settings knob fails loudly instead of being ignored.
func DecodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return errors.New("missing request body")
	}
	r.Body = http.MaxBytesReader(nil, r.Body, maxRequestBody)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	return nil
}

// decodeError rewrites json package errors into messages safe to hand back
// to the caller.
func decodeError(err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Errorf("malformed JSON at offset %d", syntaxErr.Offset)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Errorf("field %q: cannot decode %s", typeErr.Field, typeErr.Value)
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("request body larger than %d bytes", maxRequestBody)
	}

	if errors.Is(err, io.EOF) {
		return errors.New("missing request body")
	}

	if rest, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		return fmt.Errorf("unknown field %s", rest)
	}

	return errors.New("invalid request body")
}
