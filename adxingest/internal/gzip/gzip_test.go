package gzip

import (
	"bytes"
	"compress/gzip"
	"io"
	"math/rand"
	"testing"

	"github.com/tj/assert"
)

const letterBytes = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

func randStringBytes(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letterBytes[rand.Intn(len(letterBytes))]
	}
	return string(b)
}

func TestStreamer(t *testing.T) {
	str := randStringBytes(4 * 1024 * 1024)

	streamer := New()
	streamer.Reset(bytes.NewReader([]byte(str)))

	compressedBuf := bytes.Buffer{}
	_, err := io.Copy(&compressedBuf, streamer)
	assert.NoError(t, err)

	assert.Equal(t, int64(len(str)), streamer.InputSize())

	gzipReader, err := gzip.NewReader(&compressedBuf)
	assert.NoError(t, err)

	gotBuf := bytes.Buffer{}
	_, err = io.Copy(&gotBuf, gzipReader)
	assert.NoError(t, err)

	assert.Equal(t, str, gotBuf.String())
}

func TestCompress(t *testing.T) {
	streamer := Compress(bytes.NewReader([]byte("hello")))

	compressedBuf := bytes.Buffer{}
	_, err := io.Copy(&compressedBuf, streamer)
	assert.NoError(t, err)
	assert.Equal(t, int64(5), streamer.InputSize())
}
