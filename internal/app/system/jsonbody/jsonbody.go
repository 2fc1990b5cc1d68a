// internal/app/system/jsonbody/jsonbody.go
package jsonbody

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/taskboard/internal/app/system/apperr"
)

// MaxBytes caps request bodies.
const MaxBytes = 1 << 20

var errInvalid = apperr.Validation("Invalid JSON body", nil)

// Decode reads a single JSON value from the request body into v. An empty
// body leaves v untouched. Malformed input is a validation error.
func Decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return apperr.Validation("Request body too large", nil)
		}
		return errInvalid
	}
	if dec.More() {
		return errInvalid
	}
	return nil
}
