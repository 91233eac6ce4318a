package data

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lk2023060901/file-storage-backend/internal/tagtemplate/biz"
)

// DefaultCacheSize 默认缓存的模板数量
const DefaultCacheSize = 1024

// CachedRepo 在仓储前加一层 LRU。模板创建后不可变，缓存无需失效
type CachedRepo struct {
	biz.TagTemplateRepo
	cache *lru.Cache[uuid.UUID, biz.Compact]
}

// NewCachedRepo 创建带缓存的仓储
func NewCachedRepo(inner biz.TagTemplateRepo, size int) (*CachedRepo, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[uuid.UUID, biz.Compact](size)
	if err != nil {
		return nil, fmt.Errorf("create template cache: %w", err)
	}
	return &CachedRepo{TagTemplateRepo: inner, cache: cache}, nil
}

// Create 写入后直接放入缓存
func (r *CachedRepo) Create(ctx context.Context, t *biz.TagTemplate) error {
	if err := r.TagTemplateRepo.Create(ctx, t); err != nil {
		return err
	}
	r.cache.Add(t.ID, biz.Compact{ID: t.ID, ValueType: t.ValueType})
	return nil
}

// FindCompact 先查缓存，未命中的再批量查库
func (r *CachedRepo) FindCompact(ctx context.Context, ids []uuid.UUID) ([]biz.Compact, error) {
	out := make([]biz.Compact, 0, len(ids))
	var misses []uuid.UUID
	for _, id := range ids {
		if c, ok := r.cache.Get(id); ok {
			out = append(out, c)
		} else {
			misses = append(misses, id)
		}
	}

	if len(misses) > 0 {
		found, err := r.TagTemplateRepo.FindCompact(ctx, misses)
		if err != nil {
			return nil, err
		}
		for _, c := range found {
			r.cache.Add(c.ID, c)
		}
		out = append(out, found...)
	}

	sortCompact(out)
	return out, nil
}

// Len 当前缓存条目数
func (r *CachedRepo) Len() int {
	return r.cache.Len()
}

func sortCompact(cs []biz.Compact) {
	ids := make([]uuid.UUID, len(cs))
	byID := make(map[uuid.UUID]biz.Compact, len(cs))
	for i, c := range cs {
		ids[i] = c.ID
		byID[c.ID] = c
	}
	biz.SortIDs(ids)
	for i, id := range ids {
		cs[i] = byID[id]
	}
}
