package pipeline

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/vyrodovalexey/mpix/internal/util"
)

// Content types set by handlers.
const (
	ContentTypeText = "text/plain; charset=utf-8"
	ContentTypeHTML = "text/html"
	ContentTypeJSON = "application/json"
	ContentTypePNG  = "image/png"
)

// Response is a handler result before it is written to the client.
type Response struct {
	Status int
	Header http.Header
	Body   io.Reader
}

// NewResponse creates a response with a fixed body.
func NewResponse(status int, contentType string, body []byte) *Response {
	h := make(http.Header)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return &Response{Status: status, Header: h, Body: bytes.NewReader(body)}
}

// Text creates a plain-text response.
func Text(status int, body string) *Response {
	return NewResponse(status, ContentTypeText, []byte(body))
}

// JSON encodes v into an application/json response.
func JSON(status int, v any) (*Response, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, util.NewSerializationError("encode response", err)
	}
	return NewResponse(status, ContentTypeJSON, data), nil
}
