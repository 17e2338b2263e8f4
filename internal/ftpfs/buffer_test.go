package ftpfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferAddMemAndLen(t *testing.T) {
	b := newBuffer()
	assert.Equal(t, 0, b.Len())
	b.AddMem([]byte("hello"))
	b.AddMem([]byte(" world"))
	assert.Equal(t, "hello world", string(b.Bytes()))
	assert.Equal(t, 11, b.Len())
}

func TestBufferBeginOffset(t *testing.T) {
	b := newBuffer()
	b.SetBeginOffset(100)
	assert.EqualValues(t, 100, b.BeginOffset())
}

func TestBufferClearKeepsCapacity(t *testing.T) {
	b := newBuffer()
	b.AddMem(make([]byte, 1024))
	cap1 := b.Cap()
	b.Clear()
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, cap1, b.Cap())
}

func TestBufferShrinkPartial(t *testing.T) {
	b := newBuffer()
	b.SetBeginOffset(10)
	b.AddMem([]byte("abcdefgh"))
	b.Shrink(3)
	assert.Equal(t, "defgh", string(b.Bytes()))
	assert.EqualValues(t, 13, b.BeginOffset())
}

func TestBufferShrinkEntire(t *testing.T) {
	b := newBuffer()
	b.SetBeginOffset(0)
	b.AddMem([]byte("abc"))
	b.Shrink(10)
	assert.Equal(t, 0, b.Len())
	assert.EqualValues(t, 3, b.BeginOffset())
}

func TestBufferShrinkNoop(t *testing.T) {
	b := newBuffer()
	b.AddMem([]byte("abc"))
	b.Shrink(0)
	assert.Equal(t, "abc", string(b.Bytes()))
}
