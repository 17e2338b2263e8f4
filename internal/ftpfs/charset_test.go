package ftpfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodePathRoundTripsWithCodepage(t *testing.T) {
	opt := DefaultOptions()
	opt.Codepage = "iso-8859-1"

	original := "café.txt" // café.txt
	encoded := encodePath(opt, original)
	decoded := decodePath(opt, encoded)
	assert.Equal(t, original, decoded)
}

func TestEncodeDecodePathPassthroughWhenNoCodepage(t *testing.T) {
	opt := DefaultOptions()
	assert.Equal(t, "plain.txt", encodePath(opt, "plain.txt"))
	assert.Equal(t, "plain.txt", decodePath(opt, "plain.txt"))
}
