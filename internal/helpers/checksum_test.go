package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSHA256(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "empty string",
			in:   "",
			want: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name: "basic string",
			in:   "hello world",
			want: "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, SHA256(tt.in))
			assert.Equal(t, tt.want, SHA256Bytes([]byte(tt.in)))
		})
	}
}

func TestShortChecksum(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "b94d27b9", ShortChecksum(SHA256("hello world")))
	assert.Equal(t, "abc", ShortChecksum("abc"))
	assert.Empty(t, ShortChecksum(""))
}
