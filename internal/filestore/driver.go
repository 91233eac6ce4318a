// Package filestore keeps uploaded bytes on local disk in two namespaces:
// stagings (uploads in progress) and committed files.
//
// The driver never serializes writers. Callers must hold the owning
// database row lock so that at most one writer touches an object at a time.
package filestore

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/logger"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Namespace selects one of the two storage directories
type Namespace string

const (
	Staging   Namespace = "staging"
	Committed Namespace = "committed"
)

const DefaultBufferSize = 64 * 1024

// Config defines the on-disk layout
type Config struct {
	// Root holds the stagings/ and files/ directories. Both must be on the
	// same volume since promotion is a rename.
	Root       string `mapstructure:"root"`
	BufferSize int    `mapstructure:"buffer_size"`
	SniffLimit uint32 `mapstructure:"sniff_limit"`
}

// DefaultConfig returns default storage configuration
func DefaultConfig() *Config {
	return &Config{
		Root:       "data",
		BufferSize: DefaultBufferSize,
		SniffLimit: DefaultSniffLimit,
	}
}

// Metadata is derived from committed bytes
type Metadata struct {
	Mime string
	Hash uint32
}

// Driver is safe for concurrent use on distinct objects
type Driver struct {
	stagingsDir string
	filesDir    string
	bufferSize  int
	sniffer     *Sniffer
	metrics     *metrics.Metrics
	logger      *logger.Logger
}

// New creates both directories if needed and resolves them to absolute paths
func New(cfg *Config, log *logger.Logger, m *metrics.Metrics) (*Driver, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Root == "" {
		return nil, errors.New("filestore: root is required")
	}
	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	d := &Driver{
		bufferSize: bufferSize,
		sniffer:    NewSniffer(cfg.SniffLimit),
		metrics:    m,
		logger:     log.Named("filestore"),
	}

	var err error
	if d.stagingsDir, err = prepareDir(filepath.Join(cfg.Root, "stagings")); err != nil {
		return nil, err
	}
	if d.filesDir, err = prepareDir(filepath.Join(cfg.Root, "files")); err != nil {
		return nil, err
	}

	d.logger.Info("file store ready",
		zap.String("stagings", d.stagingsDir),
		zap.String("files", d.filesDir),
	)
	return d, nil
}

func prepareDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("filestore: create directory %q: %w", dir, err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("filestore: resolve directory %q: %w", dir, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("filestore: resolve directory %q: %w", dir, err)
	}
	return resolved, nil
}

// Path returns where object id of ns lives
func (d *Driver) Path(ns Namespace, id uuid.UUID) string {
	dir := d.filesDir
	if ns == Staging {
		dir = d.stagingsDir
	}
	return filepath.Join(dir, id.String())
}

// SizeOf returns the current length of the object; exists is false when
// there is no object yet.
func (d *Driver) SizeOf(ns Namespace, id uuid.UUID) (size uint64, exists bool, err error) {
	info, err := os.Stat(d.Path(ns, id))
	if errors.Is(err, fs.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, d.fail(&Error{Kind: MetadataReadFailed, Op: "size", Namespace: ns, ID: id, Err: err})
	}
	return uint64(info.Size()), true, nil
}

// Write stores r into object id starting at offset, creating the object if
// it is absent. A zero offset means no offset was given.
//
// Bytes beyond offset are always discarded first, so a resume at an earlier
// position drops the old tail. A non-zero offset greater than the current
// length fails with InvalidOffset.
//
// A failure mid-stream leaves the object truncated somewhere between offset
// and offset plus the bytes copied so far. Nothing is rolled back; such an
// object must not be promoted. When the stream errors or ctx is cancelled
// between chunks (both reported as StreamReadFailed) the buffered bytes are
// flushed first, so SizeOf reports everything received and a resume can
// continue from there.
func (d *Driver) Write(ctx context.Context, ns Namespace, id uuid.UUID, offset uint64, r io.Reader) (size uint64, err error) {
	f, err := os.OpenFile(d.Path(ns, id), os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, d.fail(&Error{Kind: CreateFailed, Op: "write", Namespace: ns, ID: id, Err: err})
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = d.fail(&Error{Kind: WriteFailed, Op: "write", Namespace: ns, ID: id, Err: cerr})
		}
	}()

	if offset != 0 {
		info, err := f.Stat()
		if err != nil {
			return 0, d.fail(&Error{Kind: MetadataReadFailed, Op: "write", Namespace: ns, ID: id, Err: err})
		}
		if current := uint64(info.Size()); current < offset {
			return 0, d.fail(&Error{Kind: InvalidOffset, Op: "write", Namespace: ns, ID: id, Offset: offset, CurrentSize: current})
		}
	}

	if err := f.Truncate(int64(offset)); err != nil {
		return 0, d.fail(&Error{Kind: WriteFailed, Op: "write", Namespace: ns, ID: id, Err: err})
	}
	if _, err := f.Seek(int64(offset), io.SeekStart); err != nil {
		return 0, d.fail(&Error{Kind: WriteFailed, Op: "write", Namespace: ns, ID: id, Err: err})
	}

	w := bufio.NewWriterSize(f, d.bufferSize)
	buf := make([]byte, d.bufferSize)
	var written uint64
	for {
		if err := ctx.Err(); err != nil {
			_ = w.Flush()
			d.metrics.AddWrittenBytes(string(ns), written)
			return 0, d.fail(&Error{Kind: StreamReadFailed, Op: "write", Namespace: ns, ID: id, Err: err})
		}

		n, rerr := r.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				d.metrics.AddWrittenBytes(string(ns), written)
				return 0, d.fail(&Error{Kind: WriteFailed, Op: "write", Namespace: ns, ID: id, Err: werr})
			}
			written += uint64(n)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			_ = w.Flush()
			d.metrics.AddWrittenBytes(string(ns), written)
			return 0, d.fail(&Error{Kind: StreamReadFailed, Op: "write", Namespace: ns, ID: id, Err: rerr})
		}
	}

	if err := w.Flush(); err != nil {
		return 0, d.fail(&Error{Kind: WriteFailed, Op: "write", Namespace: ns, ID: id, Err: err})
	}
	d.metrics.AddWrittenBytes(string(ns), written)

	info, err := f.Stat()
	if err != nil {
		return 0, d.fail(&Error{Kind: MetadataReadFailed, Op: "write", Namespace: ns, ID: id, Err: err})
	}
	return uint64(info.Size()), nil
}

// ReadMetadata hashes and sniffs the object concurrently. nameHint is the
// client-supplied file name, used only when signature sniffing is inconclusive.
func (d *Driver) ReadMetadata(ctx context.Context, ns Namespace, id uuid.UUID, nameHint string) (Metadata, error) {
	path := d.Path(ns, id)
	var md Metadata

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sum, err := HashFile(gctx, path)
		if err != nil {
			return &Error{Kind: HashFailed, Op: "metadata", Namespace: ns, ID: id, Err: err}
		}
		md.Hash = sum
		return nil
	})
	g.Go(func() error {
		t, err := d.sniffer.SniffFile(path, nameHint)
		if err != nil {
			return &Error{Kind: SniffFailed, Op: "metadata", Namespace: ns, ID: id, Err: err}
		}
		md.Mime = t
		return nil
	})

	if err := g.Wait(); err != nil {
		return Metadata{}, d.fail(err)
	}
	return md, nil
}

// Promote moves a staged object into the committed namespace under fileID.
// It is a plain rename; crossing volumes fails instead of copying.
func (d *Driver) Promote(stagingID, fileID uuid.UUID) error {
	if err := os.Rename(d.Path(Staging, stagingID), d.Path(Committed, fileID)); err != nil {
		return d.fail(&Error{Kind: PromoteFailed, Op: "promote", Namespace: Staging, ID: stagingID, Err: err})
	}
	return nil
}

// Unpromote moves a committed object back under its staging id. It undoes a
// Promote whose surrounding transaction failed to commit.
func (d *Driver) Unpromote(fileID, stagingID uuid.UUID) error {
	if err := os.Rename(d.Path(Committed, fileID), d.Path(Staging, stagingID)); err != nil {
		return d.fail(&Error{Kind: PromoteFailed, Op: "unpromote", Namespace: Committed, ID: fileID, Err: err})
	}
	return nil
}

// Open returns the object for reading
func (d *Driver) Open(ns Namespace, id uuid.UUID) (*os.File, error) {
	f, err := os.Open(d.Path(ns, id))
	if err != nil {
		return nil, d.fail(&Error{Kind: OpenFailed, Op: "open", Namespace: ns, ID: id, Err: err})
	}
	return f, nil
}

// Remove deletes the object. A missing object is not an error.
func (d *Driver) Remove(ns Namespace, id uuid.UUID) error {
	err := os.Remove(d.Path(ns, id))
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return d.fail(&Error{Kind: RemoveFailed, Op: "remove", Namespace: ns, ID: id, Err: err})
}

func (d *Driver) fail(err error) error {
	var e *Error
	if errors.As(err, &e) {
		d.metrics.IncWriteError(e.Kind.String())
	}
	return err
}
