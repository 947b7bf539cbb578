package codes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateLength(t *testing.T) {
	for _, length := range []int{1, 4, 6, 7, 32} {
		code := Generate(length)
		assert.Len(t, code, length)
	}
}

func TestGenerateCharset(t *testing.T) {
	code := Generate(64)
	for _, c := range code {
		valid := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
		assert.True(t, valid, "unexpected character %q in code", c)
	}
}

func TestGenerateVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		seen[Generate(12)] = true
	}
	// 100 draws of 48 bits of entropy must not collide.
	assert.Len(t, seen, 100)
}

func TestGenerateRejectsZeroLength(t *testing.T) {
	assert.Panics(t, func() { Generate(0) })
}
