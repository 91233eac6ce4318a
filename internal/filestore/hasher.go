package filestore

import (
	"context"
	"hash"
	"hash/crc32"
	"io"
	"os"
)

// Hasher is a streaming CRC-32 (IEEE) sink. The result depends only on the
// bytes written, never on how they were chunked.
type Hasher struct {
	h hash.Hash32
}

func NewHasher() *Hasher {
	return &Hasher{h: crc32.NewIEEE()}
}

// Write never fails
func (h *Hasher) Write(p []byte) (int, error) {
	return h.h.Write(p)
}

func (h *Hasher) Sum32() uint32 {
	return h.h.Sum32()
}

// HashReader drains r into a Hasher, stopping early when ctx is done
func HashReader(ctx context.Context, r io.Reader) (uint32, error) {
	h := NewHasher()
	if _, err := io.Copy(h, &contextReader{ctx: ctx, r: r}); err != nil {
		return 0, err
	}
	return h.Sum32(), nil
}

// HashFile hashes the whole file at path
func HashFile(ctx context.Context, path string) (uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return HashReader(ctx, f)
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
