package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// Sink receives checkpoints in ascending height order.
type Sink interface {
	// Append writes cp and makes it visible to readers of the ledger before returning.
	Append(cp Checkpoint) error
	Close() error
}

// FileSink writes checkpoints to a ledger file, flushing after every row.
type FileSink struct {
	path       string
	mode       Mode
	f          *os.File
	w          *csv.Writer
	syncWrites bool
}

var _ Sink = (*FileSink)(nil)

// Option configures a FileSink.
type Option func(*FileSink)

// WithSyncWrites makes Append fsync the file after every row.
func WithSyncWrites(enabled bool) Option {
	return func(s *FileSink) {
		s.syncWrites = enabled
	}
}

// OpenFile opens the ledger at path for writing. In ModeAppend an existing file
// is kept; if its last row lacks a line terminator one is added so the next row
// starts on its own line.
func OpenFile(path string, mode Mode, opts ...Option) (*FileSink, error) {
	flags := os.O_CREATE | os.O_WRONLY
	switch mode {
	case ModeOverwrite:
		flags |= os.O_TRUNC
	case ModeAppend:
		flags |= os.O_APPEND
	default:
		return nil, fmt.Errorf("unsupported ledger mode %s", mode)
	}

	if mode == ModeAppend {
		if err := terminateLastLine(path); err != nil {
			return nil, err
		}
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}

	s := &FileSink{
		path: path,
		mode: mode,
		f:    f,
		w:    csv.NewWriter(f),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the ledger file path.
func (s *FileSink) Path() string {
	return s.path
}

// Mode returns the mode the ledger was opened with.
func (s *FileSink) Mode() Mode {
	return s.mode
}

// Append writes "height,hash\n" and flushes it to the file.
func (s *FileSink) Append(cp Checkpoint) error {
	if err := s.w.Write(cp.Record()); err != nil {
		return fmt.Errorf("write checkpoint %d: %w", cp.Height, err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("flush checkpoint %d: %w", cp.Height, err)
	}
	if s.syncWrites {
		if err := s.f.Sync(); err != nil {
			return fmt.Errorf("sync checkpoint %d: %w", cp.Height, err)
		}
	}
	return nil
}

// Close flushes any buffered data and closes the file.
func (s *FileSink) Close() error {
	s.w.Flush()
	return errors.Join(s.w.Error(), s.f.Close())
}

// terminateLastLine appends "\n" to a non-empty file whose last byte is not one.
func terminateLastLine(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_APPEND, 0)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open ledger %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat ledger %s: %w", path, err)
	}
	if info.Size() == 0 {
		return nil
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read ledger %s: %w", path, err)
	}
	if last[0] == '\n' {
		return nil
	}
	if _, err := f.Write([]byte{'\n'}); err != nil {
		return fmt.Errorf("terminate last row of %s: %w", path, err)
	}
	return nil
}
