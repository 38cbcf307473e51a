package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"monocart/internal/validate"
)

// ErrInvalidBody is returned when a request body is not valid JSON for the target
var ErrInvalidBody = errors.New("invalid request body")

const maxRequestBody = 1 << 20

// DecodeAndValidate decodes JSON request body and validates it
func DecodeAndValidate(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return validate.Struct(v)
}
