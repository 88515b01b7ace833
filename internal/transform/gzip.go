package transform

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/vyrodovalexey/mpix/internal/observability"
	"github.com/vyrodovalexey/mpix/internal/pipeline"
	"github.com/vyrodovalexey/mpix/internal/util"
)

// EncodingGzip is the content coding produced by Gzip.
const EncodingGzip = "gzip"

// Gzip compresses response bodies for clients that accept gzip.
type Gzip struct {
	level  int
	logger observability.Logger
}

// GzipOption is a functional option for Gzip.
type GzipOption func(*Gzip)

// WithLevel sets the compression level.
func WithLevel(level int) GzipOption {
	return func(g *Gzip) {
		g.level = level
	}
}

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) GzipOption {
	return func(g *Gzip) {
		g.logger = logger
	}
}

// NewGzip creates a gzip transform at the default compression level.
func NewGzip(opts ...GzipOption) (*Gzip, error) {
	g := &Gzip{
		level:  gzip.DefaultCompression,
		logger: observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.level < gzip.HuffmanOnly || g.level > gzip.BestCompression {
		return nil, util.NewConfigError("gzip.level", "invalid compression level "+strconv.Itoa(g.level))
	}
	return g, nil
}

// AcceptsGzip reports whether any Accept-Encoding value mentions gzip,
// ignoring case. The test is a plain substring match, not a token parse.
func AcceptsGzip(reqHeader http.Header) bool {
	for _, v := range reqHeader.Values("Accept-Encoding") {
		if strings.Contains(strings.ToLower(v), EncodingGzip) {
			return true
		}
	}
	return false
}

// Apply compresses resp when reqHeader negotiates gzip. The status and all
// other headers are preserved; Content-Length is updated only when present.
func (g *Gzip) Apply(reqHeader http.Header, resp *pipeline.Response) (*pipeline.Response, error) {
	if !AcceptsGzip(reqHeader) {
		return resp, nil
	}

	var plain []byte
	if resp.Body != nil {
		data, err := io.ReadAll(resp.Body)
		if closer, ok := resp.Body.(io.Closer); ok {
			_ = closer.Close()
		}
		if err != nil {
			return nil, util.NewInternalError("read response body", err)
		}
		plain = data
	}

	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, g.level)
	if err != nil {
		return nil, util.NewInternalError("gzip writer", err)
	}
	if _, err := zw.Write(plain); err != nil {
		return nil, util.NewInternalError("gzip write", err)
	}
	if err := zw.Close(); err != nil {
		return nil, util.NewInternalError("gzip close", err)
	}

	header := resp.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	header.Set("Content-Encoding", EncodingGzip)
	if header.Get("Content-Length") != "" {
		header.Set("Content-Length", strconv.Itoa(buf.Len()))
	}

	g.logger.Debug("gzipped",
		observability.Int("plain_size", len(plain)),
		observability.Int("gzipped_size", buf.Len()),
	)

	return &pipeline.Response{
		Status: resp.Status,
		Header: header,
		Body:   bytes.NewReader(buf.Bytes()),
	}, nil
}
