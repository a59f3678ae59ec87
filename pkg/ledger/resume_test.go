package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectResume(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		content    *string
		wantStatus ResumeStatus
		wantHeight uint64
	}{
		{name: "missing file", content: nil, wantStatus: ResumeNotFound},
		{name: "empty file", content: ptr(""), wantStatus: ResumeNotFound},
		{name: "only blank lines", content: ptr("\n\n  \n"), wantStatus: ResumeNotFound},
		{name: "single row", content: ptr("0,a0\n"), wantStatus: ResumeFound, wantHeight: 0},
		{name: "several rows", content: ptr("0,a0\n1,b1\n2,c2\n"), wantStatus: ResumeFound, wantHeight: 2},
		{name: "no trailing newline", content: ptr("0,a0\n1,b1"), wantStatus: ResumeFound, wantHeight: 1},
		{name: "trailing blank lines", content: ptr("0,a0\n7,b1\n\n\n"), wantStatus: ResumeFound, wantHeight: 7},
		{name: "crlf rows", content: ptr("0,a0\r\n5,b1\r\n"), wantStatus: ResumeFound, wantHeight: 5},
		{name: "garbage last row", content: ptr("0,a0\nnot a row\n"), wantStatus: ResumeError},
		{name: "non numeric height", content: ptr("0,a0\ntip,b1\n"), wantStatus: ResumeError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "checkpoints.csv")
			if tt.content != nil {
				require.NoError(t, os.WriteFile(path, []byte(*tt.content), 0o644))
			}

			r := DetectResume(path)
			assert.Equal(t, tt.wantStatus, r.Status)
			assert.Equal(t, tt.wantHeight, r.Height)
			if tt.wantStatus == ResumeError {
				assert.Error(t, r.Err)
			} else {
				assert.NoError(t, r.Err)
			}
			assert.Equal(t, tt.wantStatus == ResumeFound, r.Found())
		})
	}
}

func TestDetectResume_LargeLedger(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "checkpoints.csv")

	var b strings.Builder
	hash := strings.Repeat("ab", 32)
	for h := 0; h < 5000; h++ {
		fmt.Fprintf(&b, "%d,%s\n", h, hash)
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	r := DetectResume(path)
	require.True(t, r.Found())
	assert.Equal(t, uint64(4999), r.Height)
}

func TestDetectResume_RowSpansChunks(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "checkpoints.csv")

	long := strings.Repeat("f", tailChunkSize+100)
	content := "0,a0\n12," + long + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r := DetectResume(path)
	require.True(t, r.Found())
	assert.Equal(t, uint64(12), r.Height)
}

func TestDetectResume_RowTooLong(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "checkpoints.csv")

	content := "0,a0\n1," + strings.Repeat("f", maxRowSize+tailChunkSize)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r := DetectResume(path)
	assert.Equal(t, ResumeError, r.Status)
	assert.ErrorContains(t, r.Err, "exceeds")
}

func TestDetectResume_Directory(t *testing.T) {
	t.Parallel()
	r := DetectResume(t.TempDir())
	assert.Equal(t, ResumeError, r.Status)
	assert.Error(t, r.Err)
}

func TestResumeStatus_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "not_found", ResumeNotFound.String())
	assert.Equal(t, "found", ResumeFound.String())
	assert.Equal(t, "error", ResumeError.String())
	assert.Equal(t, "ResumeStatus(4)", ResumeStatus(4).String())
}

func ptr(s string) *string { return &s }
