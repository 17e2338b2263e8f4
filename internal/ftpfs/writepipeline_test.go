package ftpfs

import (
	"io/ioutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runFakeUpload mimics what Handle.startWrite's goroutine does: drain
// p via a Stor-shaped io.Reader consumer, then deliver the result on
// doneCh.
func runFakeUpload(p *uploadPipe) <-chan []byte {
	out := make(chan []byte, 1)
	go func() {
		data, err := ioutil.ReadAll(p)
		out <- data
		p.doneCh <- uploadResult{n: int64(len(data)), err: err}
	}()
	return out
}

func TestUploadPipeSendThenEOF(t *testing.T) {
	p := newUploadPipe()
	got := runFakeUpload(p)

	p.awaitReady()
	p.send([]byte("chunk-one"))
	p.send([]byte("-chunk-two"))
	res := p.closeEOF()

	require.NoError(t, res.err)
	assert.Equal(t, "chunk-one-chunk-two", string(<-got))
}

func TestUploadPipeEmptyBody(t *testing.T) {
	p := newUploadPipe()
	got := runFakeUpload(p)

	p.awaitReady()
	res := p.closeEOF()

	require.NoError(t, res.err)
	assert.Equal(t, "", string(<-got))
}

func TestUploadPipeChunkLargerThanReadBuffer(t *testing.T) {
	p := newUploadPipe()
	got := runFakeUpload(p)

	p.awaitReady()
	big := make([]byte, writeChunkBuffer+10)
	for i := range big {
		big[i] = byte(i)
	}
	p.send(big)
	res := p.closeEOF()

	require.NoError(t, res.err)
	assert.Equal(t, big, <-got)
}
