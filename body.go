package fastigo

import (
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"
)

// Body wraps the fully-read request payload. Parsing is driven by the
// request Content-Type and happens lazily per accessor.
type Body struct {
	raw         []byte
	contentType string
	logger      *slog.Logger

	form *Form
}

func newBody(raw []byte, contentType string, logger *slog.Logger) *Body {
	return &Body{raw: raw, contentType: contentType, logger: logger}
}

// Raw returns the unparsed payload bytes.
func (b *Body) Raw() []byte { return b.raw }

// Len returns the payload size in bytes.
func (b *Body) Len() int { return len(b.raw) }

// ContentType returns the request Content-Type header value, parameters
// included.
func (b *Body) ContentType() string { return b.contentType }

// Text returns the payload as a string.
func (b *Body) Text() string { return string(b.raw) }

// JSON decodes the payload into v. A nil receiver means the body was
// never loaded from the transport.
func (b *Body) JSON(v any) error {
	if b == nil {
		return ErrBodyNotLoaded
	}
	return json.Unmarshal(b.raw, v)
}

// Form parses the payload as a form. multipart/form-data yields fields
// and files; application/x-www-form-urlencoded yields fields only. The
// result is cached, so repeated calls parse once.
func (b *Body) Form() *Form {
	if b.form != nil {
		return b.form
	}
	switch {
	case strings.HasPrefix(b.contentType, "multipart/form-data"):
		b.form = parseMultipart(b.raw, multipartBoundary(b.contentType), b.logger)
	case strings.HasPrefix(b.contentType, "application/x-www-form-urlencoded"):
		b.form = parseURLEncoded(b.raw)
	default:
		b.form = &Form{Fields: map[string]string{}, Files: map[string]*File{}}
	}
	return b.form
}

// Form holds decoded form data. Files only appear for multipart payloads.
type Form struct {
	Fields map[string]string
	Files  map[string]*File
}

func multipartBoundary(contentType string) string {
	_, after, ok := strings.Cut(contentType, "boundary=")
	if !ok {
		return ""
	}
	boundary, _, _ := strings.Cut(after, ";")
	return strings.Trim(strings.TrimSpace(boundary), `"`)
}

const dispositionMarker = `Content-Disposition: form-data; name="`

// parseMultipart walks the raw payload by splitting on the form-data
// disposition marker. Each chunk starts with the field name, optionally a
// filename and a part Content-Type, then a blank line and the payload up
// to the next boundary.
func parseMultipart(raw []byte, boundary string, logger *slog.Logger) *Form {
	form := &Form{Fields: map[string]string{}, Files: map[string]*File{}}
	chunks := strings.Split(string(raw), dispositionMarker)
	for _, chunk := range chunks[1:] {
		name, rest, ok := strings.Cut(chunk, `"`)
		if !ok {
			logger.Warn("multipart part without closing name quote, skipping")
			continue
		}

		var filename string
		hasFile := false
		if after, found := strings.CutPrefix(rest, `; filename="`); found {
			filename, rest, ok = strings.Cut(after, `"`)
			if !ok {
				logger.Warn("multipart part without closing filename quote, skipping", "field", name)
				continue
			}
			hasFile = true
		}

		headerBlock, payload, ok := strings.Cut(rest, "\r\n\r\n")
		if !ok {
			logger.Warn("multipart part without header separator, skipping", "field", name)
			continue
		}

		var partType string
		if _, after, found := strings.Cut(headerBlock, "Content-Type: "); found {
			partType, _, _ = strings.Cut(after, "\r\n")
			partType = strings.TrimSpace(partType)
		}

		if boundary != "" {
			if idx := strings.Index(payload, "\r\n--"+boundary); idx >= 0 {
				payload = payload[:idx]
			}
		} else {
			payload = strings.TrimSuffix(payload, "\r\n")
		}

		if hasFile {
			form.Files[name] = newFile(filename, partType, []byte(payload))
		} else {
			form.Fields[name] = payload
		}
	}
	return form
}

// parseURLEncoded splits key=value pairs on '&'. Percent-decoding failures
// keep the raw value. Later duplicates overwrite earlier ones.
func parseURLEncoded(raw []byte) *Form {
	form := &Form{Fields: map[string]string{}, Files: map[string]*File{}}
	for _, pair := range strings.Split(string(raw), "&") {
		if pair == "" {
			continue
		}
		key, val, _ := strings.Cut(pair, "=")
		if k, err := url.QueryUnescape(key); err == nil {
			key = k
		}
		if v, err := url.QueryUnescape(val); err == nil {
			val = v
		}
		form.Fields[key] = val
	}
	return form
}
