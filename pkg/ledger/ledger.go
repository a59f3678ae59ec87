// Package ledger persists checkpoints as "height,hash" rows in a delimited
// text file and reads back the last recorded height so a run can resume.
//
// The file has no header; rows are ascending by height and terminated by a
// single "\n". A resumed run appends to the file and never rewrites existing
// rows, so the only way to drop rows is a full overwrite.
package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultPath is the ledger file used when none is configured.
const DefaultPath = "checkpoints.csv"

// ErrMalformedRow is returned when a ledger line is not "height,hash".
var ErrMalformedRow = errors.New("malformed ledger row")

// Checkpoint is a block height and the hash of the block at that height.
type Checkpoint struct {
	Height uint64
	Hash   string
}

// Record returns the two fields written for c.
func (c Checkpoint) Record() []string {
	return []string{strconv.FormatUint(c.Height, 10), c.Hash}
}

// Mode selects how an existing ledger file is treated when opened for writing.
type Mode int

const (
	// ModeOverwrite truncates the file and starts a fresh ledger.
	ModeOverwrite Mode = iota
	// ModeAppend keeps existing rows and appends after them.
	ModeAppend
)

func (m Mode) String() string {
	switch m {
	case ModeOverwrite:
		return "overwrite"
	case ModeAppend:
		return "append"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseRow parses a single ledger line.
func ParseRow(line string) (Checkpoint, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = 2
	rec, err := r.Read()
	if err != nil {
		return Checkpoint{}, fmt.Errorf("%w %q: %v", ErrMalformedRow, line, err)
	}

	height, err := strconv.ParseUint(strings.TrimSpace(rec[0]), 10, 64)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("%w %q: invalid height: %v", ErrMalformedRow, line, err)
	}
	return Checkpoint{Height: height, Hash: strings.TrimSpace(rec[1])}, nil
}

// ReadAll reads every row of the ledger at path.
func ReadAll(path string) ([]Checkpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 2
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}

	out := make([]Checkpoint, 0, len(records))
	for i, rec := range records {
		height, err := strconv.ParseUint(rec[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: invalid height: %v", ErrMalformedRow, i+1, err)
		}
		out = append(out, Checkpoint{Height: height, Hash: rec[1]})
	}
	return out, nil
}
