package pipeline

import (
	"errors"
	"net/http"

	"github.com/vyrodovalexey/mpix/internal/util"
)

// Fixed bodies of error responses.
const (
	BodyBadRequest   = "bad request"
	BodyUnauthorized = "unauthorized"
	BodyNotFound     = "not found"
	BodyServerError  = "server error"
)

// StatusFor maps an error to its HTTP status and fixed body.
func StatusFor(err error) (status int, body string) {
	switch util.KindOf(err) {
	case util.KindValidation:
		return http.StatusBadRequest, BodyBadRequest
	case util.KindUnauthorized:
		return http.StatusUnauthorized, BodyUnauthorized
	case util.KindNotFound:
		return http.StatusNotFound, BodyNotFound
	default:
		return http.StatusInternalServerError, BodyServerError
	}
}

// ErrorResponse builds the fixed response for err.
func ErrorResponse(err error) *Response {
	status, body := StatusFor(err)
	return Text(status, body)
}

var errNilResponse = errors.New("handler returned no response")
