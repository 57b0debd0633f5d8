package compression

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Codec compresses and decompresses data blocks.
type Codec interface {
	// MethodByte returns the single-byte codec identifier.
	MethodByte() byte
	Compress(src []byte) ([]byte, error)
	Decompress(src []byte, decompressedSize int) ([]byte, error)
}

// Method byte constants matching ClickHouse format.
const (
	MethodNone byte = 0x02
	MethodLZ4  byte = 0x82
)

// CodecByName returns the codec for "lz4" or "none".
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "lz4":
		return &LZ4Codec{}, nil
	case "none":
		return &NoneCodec{}, nil
	}
	return nil, errors.Newf("unknown compression codec %q", name)
}

func codecForMethod(method byte) (Codec, error) {
	switch method {
	case MethodLZ4:
		return &LZ4Codec{}, nil
	case MethodNone:
		return &NoneCodec{}, nil
	}
	return nil, errors.Newf("unknown compression method: 0x%02x", method)
}
