package wire

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/harunnryd/volcasr/pkg/errorsx"
)

// Compress wraps b in a gzip container.
func Compress(b []byte) []byte {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write(b)
	_ = zw.Close()
	return buf.Bytes()
}

// Decompress inflates a gzip container. A corrupt payload means the session
// can no longer be trusted, so malformed input always surfaces an error.
func Decompress(b []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonDecompress)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonDecompress)
	}
	return out, nil
}
