package filestore

import (
	"bytes"
	"context"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasherKnownValue(t *testing.T) {
	h := NewHasher()
	_, _ = h.Write([]byte("hello"))
	assert.Equal(t, uint32(0x3610a686), h.Sum32())
}

func TestHasherChunkIndependent(t *testing.T) {
	data := make([]byte, 10000)
	for i := range data {
		data[i] = byte(i * 31)
	}

	one := NewHasher()
	_, _ = one.Write(data)

	chunked := NewHasher()
	for i := 0; i < len(data); i += 100 {
		_, _ = chunked.Write(data[i : i+100])
	}

	assert.Equal(t, one.Sum32(), chunked.Sum32())
	assert.Equal(t, crc32.ChecksumIEEE(data), one.Sum32())
}

func TestHashReaderAndFile(t *testing.T) {
	ctx := context.Background()
	sum, err := HashReader(ctx, bytes.NewReader([]byte("hello")))
	require.NoError(t, err)
	assert.Equal(t, uint32(0x3610a686), sum)

	path := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))
	sum, err = HashFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x3610a686), sum)

	_, err = HashFile(ctx, filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = HashReader(cancelled, bytes.NewReader([]byte("hello")))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHashEmpty(t *testing.T) {
	sum, err := HashReader(context.Background(), bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Zero(t, sum)
}
