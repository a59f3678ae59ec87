package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrimHexPrefix(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lowercase prefix", input: "0xabcd", want: "abcd"},
		{name: "uppercase prefix", input: "0XABCD", want: "ABCD"},
		{name: "no prefix", input: "abcd", want: "abcd"},
		{name: "prefix only", input: "0x", want: ""},
		{name: "single zero", input: "0", want: "0"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TrimHexPrefix(tt.input))
		})
	}
}

func TestIsHex(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{
			name:  "daemon block hash",
			input: "7fb97df81221dd1366051b2d0bc7f49c66c22ac4431d879c895b06d66ef66f4c",
			want:  true,
		},
		{name: "with 0x prefix", input: "0x0102", want: true},
		{name: "uppercase", input: "A0B1", want: true},
		{name: "short", input: "a0", want: true},
		{name: "empty", input: "", want: false},
		{name: "prefix only", input: "0x", want: false},
		{name: "odd length", input: "abc", want: false},
		{name: "invalid characters", input: "0xghij", want: false},
		{name: "embedded comma", input: "ab,cd", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsHex(tt.input))
		})
	}
}
