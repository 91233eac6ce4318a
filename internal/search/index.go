// Package search keeps a denormalized, eventually consistent copy of
// committed file records for free-text lookup.
package search

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/logger"
	"go.uber.org/zap"
)

// DefaultLimit bounds the candidate set a free-text query resolves to.
const DefaultLimit = 200

// Config search index configuration
type Config struct {
	Enabled   bool   `mapstructure:"enabled"`
	KeyPrefix string `mapstructure:"key_prefix"`
	Limit     int    `mapstructure:"limit"`
}

// DefaultConfig returns the default search configuration
func DefaultConfig() *Config {
	return &Config{
		Enabled:   true,
		KeyPrefix: "fsb:files",
		Limit:     DefaultLimit,
	}
}

// Document is the indexed view of a complete file record.
type Document struct {
	ID         uuid.UUID
	Name       string
	Mime       string
	Size       uint64
	Hash       uint32
	UploadedAt time.Time
}

// Index is an upsert-by-key document store with ranked term search.
type Index interface {
	Upsert(ctx context.Context, doc Document) error
	// Search returns at most limit document ids, best match first.
	Search(ctx context.Context, query string, limit int) ([]uuid.UUID, error)
	// Enabled reports whether Search results should restrict listings.
	Enabled() bool
}

// Noop is used when the index is switched off. Upserts succeed and free-text
// queries do not restrict listings.
type Noop struct {
	logger *logger.Logger
}

func NewNoop(log *logger.Logger) *Noop {
	return &Noop{logger: log}
}

func (n *Noop) Upsert(context.Context, Document) error { return nil }

func (n *Noop) Search(ctx context.Context, query string, _ int) ([]uuid.UUID, error) {
	if query != "" {
		n.logger.WithContext(ctx).Debug("search index disabled, ignoring query", zap.String("query", query))
	}
	return nil, nil
}

func (n *Noop) Enabled() bool { return false }
