package compression

import "github.com/cockroachdb/errors"

// NoneCodec is a no-op codec (no compression).
type NoneCodec struct{}

func (c *NoneCodec) MethodByte() byte { return MethodNone }

func (c *NoneCodec) Compress(src []byte) ([]byte, error) {
	dst := make([]byte, len(src))
	copy(dst, src)
	return dst, nil
}

func (c *NoneCodec) Decompress(src []byte, decompressedSize int) ([]byte, error) {
	if len(src) != decompressedSize {
		return nil, errors.Newf("uncompressed block holds %d bytes, header says %d", len(src), decompressedSize)
	}
	dst := make([]byte, decompressedSize)
	copy(dst, src)
	return dst, nil
}
