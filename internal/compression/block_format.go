package compression

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
)

// Compressed block format (ClickHouse layout, with an xxHash64 checksum in
// place of the 16-byte CityHash128):
//
//	[checksum (8 LE)] [method_byte (1)] [compressed_size_with_header (4 LE)] [uncompressed_size (4 LE)] [payload...]
//
// compressed_size_with_header includes the 9-byte header but not the
// checksum. The checksum covers header and payload.

const (
	ChecksumSize = 8
	HeaderSize   = 9

	// MaxBlockSize is the largest uncompressed payload written per block.
	MaxBlockSize = 1 << 20
)

// ErrChecksumMismatch is returned when a block fails verification.
var ErrChecksumMismatch = errors.New("compressed block checksum mismatch")

// CompressBlock compresses data and returns the full block (checksum +
// header + compressed payload). Data that does not shrink is stored with
// MethodNone.
func CompressBlock(codec Codec, data []byte) ([]byte, error) {
	compressed, err := codec.Compress(data)
	if errors.Is(err, errIncompressible) {
		codec = &NoneCodec{}
		compressed, err = codec.Compress(data)
	}
	if err != nil {
		return nil, err
	}

	sizeWithHeader := HeaderSize + len(compressed)
	block := make([]byte, ChecksumSize+sizeWithHeader)
	body := block[ChecksumSize:]

	body[0] = codec.MethodByte()
	binary.LittleEndian.PutUint32(body[1:5], uint32(sizeWithHeader))
	binary.LittleEndian.PutUint32(body[5:9], uint32(len(data)))
	copy(body[HeaderSize:], compressed)

	binary.LittleEndian.PutUint64(block[:ChecksumSize], xxhash.Sum64(body))
	return block, nil
}

// DecompressBlock verifies and decompresses a single block, returning the
// data and the number of input bytes consumed.
func DecompressBlock(data []byte) ([]byte, int, error) {
	sizeWithHeader, uncompressedSize, err := ReadBlockHeader(data)
	if err != nil {
		return nil, 0, err
	}
	end := ChecksumSize + int(sizeWithHeader)
	if int(sizeWithHeader) < HeaderSize || end > len(data) {
		return nil, 0, errors.Newf("compressed block size mismatch: header says %d, have %d",
			sizeWithHeader, len(data)-ChecksumSize)
	}

	body := data[ChecksumSize:end]
	if binary.LittleEndian.Uint64(data[:ChecksumSize]) != xxhash.Sum64(body) {
		return nil, 0, ErrChecksumMismatch
	}

	codec, err := codecForMethod(body[0])
	if err != nil {
		return nil, 0, err
	}
	out, err := codec.Decompress(body[HeaderSize:], int(uncompressedSize))
	if err != nil {
		return nil, 0, err
	}
	return out, end, nil
}

// ReadBlockHeader reads the header from a compressed block and returns
// (compressedSizeWithHeader, uncompressedSize, error).
func ReadBlockHeader(data []byte) (compressedTotal uint32, uncompressed uint32, err error) {
	if len(data) < ChecksumSize+HeaderSize {
		return 0, 0, errors.Newf("compressed block too small: %d bytes", len(data))
	}
	header := data[ChecksumSize:]
	compressedTotal = binary.LittleEndian.Uint32(header[1:5])
	uncompressed = binary.LittleEndian.Uint32(header[5:9])
	return compressedTotal, uncompressed, nil
}

// WriteCompressed splits data into blocks of at most MaxBlockSize bytes and
// writes them to w.
func WriteCompressed(w io.Writer, codec Codec, data []byte) error {
	for len(data) > 0 {
		n := min(len(data), MaxBlockSize)
		block, err := CompressBlock(codec, data[:n])
		if err != nil {
			return err
		}
		if _, err := w.Write(block); err != nil {
			return errors.Wrap(err, "writing compressed block")
		}
		data = data[n:]
	}
	return nil
}

// ReadCompressed decompresses a sequence of blocks written by
// WriteCompressed.
func ReadCompressed(data []byte) ([]byte, error) {
	var out bytes.Buffer
	for offset := 0; offset < len(data); {
		block, n, err := DecompressBlock(data[offset:])
		if err != nil {
			return nil, errors.Wrapf(err, "block at offset %d", offset)
		}
		out.Write(block)
		offset += n
	}
	return out.Bytes(), nil
}

// BlockInfo describes one block of a compressed file.
type BlockInfo struct {
	Offset           int
	Method           byte
	CompressedSize   uint32 // header included, checksum excluded
	UncompressedSize uint32
}

// ScanBlocks walks the block headers of data without decompressing or
// verifying the payloads.
func ScanBlocks(data []byte) ([]BlockInfo, error) {
	var blocks []BlockInfo
	for offset := 0; offset < len(data); {
		csz, usz, err := ReadBlockHeader(data[offset:])
		if err != nil {
			return nil, errors.Wrapf(err, "block at offset %d", offset)
		}
		end := offset + ChecksumSize + int(csz)
		if int(csz) < HeaderSize || end > len(data) {
			return nil, errors.Newf("block at offset %d: size %d out of bounds", offset, csz)
		}
		blocks = append(blocks, BlockInfo{
			Offset:           offset,
			Method:           data[offset+ChecksumSize],
			CompressedSize:   csz,
			UncompressedSize: usz,
		})
		offset = end
	}
	return blocks, nil
}
