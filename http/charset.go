package http

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// requestBody returns the request body decoded to UTF-8 according to the
// charset parameter of its Content-Type.
func requestBody(r *http.Request) (io.Reader, error) {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return r.Body, nil
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("invalid Content-Type: %w", err)
	}
	charset := params["charset"]
	if charset == "" || strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "utf8") {
		return r.Body, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q", charset)
	}
	return transform.NewReader(r.Body, enc.NewDecoder()), nil
}
