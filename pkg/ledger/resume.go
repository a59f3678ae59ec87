package ledger

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

const (
	tailChunkSize = 4096
	maxRowSize    = 64 * 1024
)

// ResumeStatus is the outcome of looking for an existing ledger.
type ResumeStatus int

const (
	// ResumeNotFound means there is no ledger or it holds no rows.
	ResumeNotFound ResumeStatus = iota
	// ResumeFound means the last row was read and Height is valid.
	ResumeFound
	// ResumeError means the ledger exists but its last row could not be read.
	ResumeError
)

func (s ResumeStatus) String() string {
	switch s {
	case ResumeNotFound:
		return "not_found"
	case ResumeFound:
		return "found"
	case ResumeError:
		return "error"
	default:
		return fmt.Sprintf("ResumeStatus(%d)", int(s))
	}
}

// Resume describes where an existing ledger left off.
// Height is only meaningful when Status is ResumeFound; Err only when Status is
// ResumeError.
type Resume struct {
	Status ResumeStatus
	Height uint64
	Err    error
}

// Found reports whether a last recorded height is available.
func (r Resume) Found() bool {
	return r.Status == ResumeFound
}

// DetectResume reads the last non-blank line of the ledger at path and returns
// the height recorded there. It never fails: problems reading an existing file
// are reported as ResumeError so the caller can carry on without resume data.
func DetectResume(path string) Resume {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Resume{Status: ResumeNotFound}
	}
	if err != nil {
		return Resume{Status: ResumeError, Err: fmt.Errorf("open ledger %s: %w", path, err)}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Resume{Status: ResumeError, Err: fmt.Errorf("stat ledger %s: %w", path, err)}
	}
	if info.IsDir() {
		return Resume{Status: ResumeError, Err: fmt.Errorf("ledger %s is a directory", path)}
	}

	line, err := lastLine(f, info.Size())
	if err != nil {
		return Resume{Status: ResumeError, Err: fmt.Errorf("read ledger %s: %w", path, err)}
	}
	if line == "" {
		return Resume{Status: ResumeNotFound}
	}

	cp, err := ParseRow(line)
	if err != nil {
		return Resume{Status: ResumeError, Err: fmt.Errorf("parse last row of %s: %w", path, err)}
	}
	return Resume{Status: ResumeFound, Height: cp.Height}
}

// lastLine returns the last non-blank line of f, reading backwards from the
// end so large ledgers are not scanned in full.
func lastLine(f *os.File, size int64) (string, error) {
	var tail []byte
	for off := size; off > 0; {
		n := int64(tailChunkSize)
		if n > off {
			n = off
		}
		off -= n

		buf := make([]byte, n)
		if _, err := f.ReadAt(buf, off); err != nil {
			return "", err
		}
		tail = append(buf, tail...)

		trimmed := bytes.TrimRight(tail, " \t\r\n")
		if i := bytes.LastIndexByte(trimmed, '\n'); i >= 0 {
			return strings.TrimSpace(string(trimmed[i+1:])), nil
		}
		if off == 0 {
			return strings.TrimSpace(string(trimmed)), nil
		}
		if len(trimmed) > maxRowSize {
			return "", fmt.Errorf("last row exceeds %d bytes", maxRowSize)
		}
	}
	return "", nil
}
