package search

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/lk2023060901/file-storage-backend/internal/pkg/errors"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/logger"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/metrics"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisIndex stores documents as hashes and maintains an inverted index of
// term sets:
//
//	<prefix>:doc:<uuid>    hash with the document fields
//	<prefix>:terms:<uuid>  set of terms the document is indexed under
//	<prefix>:term:<term>   set of document uuids
type RedisIndex struct {
	client  *redis.Client
	prefix  string
	limit   int
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewRedisIndex creates a redis-backed index
func NewRedisIndex(client *redis.Client, cfg *Config, m *metrics.Metrics, log *logger.Logger) *RedisIndex {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultConfig().KeyPrefix
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &RedisIndex{client: client, prefix: prefix, limit: limit, metrics: m, logger: log}
}

func (x *RedisIndex) docKey(id string) string   { return x.prefix + ":doc:" + id }
func (x *RedisIndex) termsKey(id string) string { return x.prefix + ":terms:" + id }
func (x *RedisIndex) termKey(t string) string   { return x.prefix + ":term:" + t }

func (x *RedisIndex) Enabled() bool { return true }

// Upsert replaces the stored document and its terms in one MULTI/EXEC.
func (x *RedisIndex) Upsert(ctx context.Context, doc Document) error {
	id := doc.ID.String()

	old, err := x.client.SMembers(ctx, x.termsKey(id))
	if err != nil {
		return x.fail("upsert", err)
	}
	terms := IndexTerms(doc.Name, doc.Mime)

	pipe := x.client.TxPipeline()
	for _, t := range old {
		pipe.SRem(ctx, x.termKey(t), id)
	}
	pipe.Del(ctx, x.termsKey(id))
	pipe.HSet(ctx, x.docKey(id),
		"uuid", id,
		"name", doc.Name,
		"mime", doc.Mime,
		"size", strconv.FormatUint(doc.Size, 10),
		"hash", strconv.FormatUint(uint64(doc.Hash), 10),
		"uploadedAt", doc.UploadedAt.UTC().Format(time.RFC3339Nano),
	)
	if len(terms) > 0 {
		members := make([]interface{}, len(terms))
		for i, t := range terms {
			pipe.SAdd(ctx, x.termKey(t), id)
			members[i] = t
		}
		pipe.SAdd(ctx, x.termsKey(id), members...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return x.fail("upsert", err)
	}

	x.logger.WithContext(ctx).Debug("search document upserted",
		zap.String("uuid", id),
		zap.Int("terms", len(terms)),
	)
	return nil
}

// Search resolves every query token against the inverted index.
func (x *RedisIndex) Search(ctx context.Context, query string, limit int) ([]uuid.UUID, error) {
	tokens := Tokens(query)
	if len(tokens) == 0 {
		return []uuid.UUID{}, nil
	}
	if limit <= 0 || limit > x.limit {
		limit = x.limit
	}

	pipe := x.client.Pipeline()
	cmds := make([]*goredis.StringSliceCmd, len(tokens))
	for i, t := range tokens {
		cmds[i] = pipe.SMembers(ctx, x.termKey(t))
	}
	if _, err := pipe.Exec(ctx); err != nil && !redis.IsNil(err) {
		return nil, x.fail("search", err)
	}

	hits := make(map[uuid.UUID]int)
	for _, cmd := range cmds {
		for _, member := range cmd.Val() {
			id, err := uuid.Parse(member)
			if err != nil {
				x.logger.WithContext(ctx).Warn("skipping malformed index member", zap.String("member", member))
				continue
			}
			hits[id]++
		}
	}
	return rank(hits, limit), nil
}

// Get returns the stored document, or false when it is not indexed.
func (x *RedisIndex) Get(ctx context.Context, id uuid.UUID) (Document, bool, error) {
	fields, err := x.client.HGetAll(ctx, x.docKey(id.String()))
	if err != nil {
		return Document{}, false, x.fail("get", err)
	}
	if len(fields) == 0 {
		return Document{}, false, nil
	}

	doc := Document{ID: id, Name: fields["name"], Mime: fields["mime"]}
	doc.Size, _ = strconv.ParseUint(fields["size"], 10, 64)
	hash, _ := strconv.ParseUint(fields["hash"], 10, 32)
	doc.Hash = uint32(hash)
	doc.UploadedAt, _ = time.Parse(time.RFC3339Nano, fields["uploadedAt"])
	return doc, true, nil
}

func (x *RedisIndex) fail(op string, err error) error {
	x.metrics.IncSearchIndexError(op)
	return apperrors.Wrap(fmt.Errorf("search index %s: %w", op, err), apperrors.ErrSearchIndex)
}
