package compression

import (
	"github.com/cockroachdb/errors"
	"github.com/pierrec/lz4/v4"
)

// errIncompressible is returned by LZ4Codec.Compress when the output would
// not be smaller than the input.
var errIncompressible = errors.New("lz4: incompressible data")

// LZ4Codec implements LZ4 block compression.
type LZ4Codec struct{}

func (c *LZ4Codec) MethodByte() byte { return MethodLZ4 }

func (c *LZ4Codec) Compress(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return []byte{}, nil
	}
	dst := make([]byte, lz4.CompressBlockBound(len(src)))
	n, err := lz4.CompressBlock(src, dst, nil)
	if err != nil {
		return nil, errors.Wrap(err, "lz4 compress")
	}
	if n == 0 || n >= len(src) {
		return nil, errIncompressible
	}
	return dst[:n], nil
}

func (c *LZ4Codec) Decompress(src []byte, decompressedSize int) ([]byte, error) {
	if decompressedSize == 0 {
		return []byte{}, nil
	}
	dst := make([]byte, decompressedSize)
	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return nil, errors.Wrap(err, "lz4 decompress")
	}
	if n != decompressedSize {
		return nil, errors.Newf("lz4 decompress: expected %d bytes, got %d", decompressedSize, n)
	}
	return dst, nil
}
