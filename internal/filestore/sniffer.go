package filestore

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	OctetStream       = "application/octet-stream"
	DefaultSniffLimit = 3072
)

// Sniffer classifies a stored file. Signature detection comes first, the
// extension of the client-supplied name second, octet-stream last.
type Sniffer struct{}

// NewSniffer sets how many leading bytes are inspected. mimetype keeps this
// limit process-wide.
func NewSniffer(limit uint32) *Sniffer {
	if limit > 0 {
		mimetype.SetLimit(limit)
	}
	return &Sniffer{}
}

// SniffFile returns a media type without parameters. An error means the file
// could not be read; an inconclusive result is not an error.
func (s *Sniffer) SniffFile(path, nameHint string) (string, error) {
	m, err := mimetype.DetectFile(path)
	if err != nil {
		return "", err
	}
	if !m.Is(OctetStream) {
		return stripParams(m.String()), nil
	}
	return byExtension(nameHint), nil
}

func byExtension(name string) string {
	ext := filepath.Ext(name)
	if ext == "" {
		return OctetStream
	}
	if t := mime.TypeByExtension(strings.ToLower(ext)); t != "" {
		return stripParams(t)
	}
	return OctetStream
}

// text/plain; charset=utf-8 -> text/plain
func stripParams(t string) string {
	base, _, _ := strings.Cut(t, ";")
	return strings.TrimSpace(base)
}
