package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCappedBuffer(t *testing.T) {
	b := newCappedBuffer(5)

	n, err := b.Write([]byte("abc"))
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "abc", b.String())

	n, err = b.Write([]byte("defgh"))
	assert.NoError(t, err)
	assert.Equal(t, 5, n, "writer must see every byte accepted")
	assert.Equal(t, "abcde...[truncated]", b.String())

	n, _ = b.Write([]byte("more"))
	assert.Equal(t, 4, n)
	assert.Equal(t, "abcde...[truncated]", b.String())
}

func TestCappedBuffer_ExactLimit(t *testing.T) {
	b := newCappedBuffer(3)
	b.Write([]byte("abc"))
	assert.Equal(t, "abc", b.String())
}
