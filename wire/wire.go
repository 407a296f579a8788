// Package wire implements the little-endian, 8-byte-aligned serialization
// primitives spec §6 requires for the dictionary's image format: a header,
// a handful of fixed-size scalar fields, and a sequence of length-prefixed,
// 8-byte-aligned blobs. Borrowed (memory-mapped) loads reinterpret those
// blobs in place via unsafe casts instead of copying them, so the same
// decode path serves both DeserializeOwned and DeserializeBorrowed.
package wire

import (
	"encoding/binary"
	"io"
	"unsafe"
)

// Magic and Version identify the image format; Deserialize rejects any
// image whose header doesn't match exactly (spec §7 ImageCorrupt).
const (
	Magic   uint64 = 0x5844434154444943 // "XDCATDIC" in ASCII, little-endian
	Version uint32 = 1
)

// FormatTag distinguishes the two BC-store encodings in the header.
type FormatTag byte

const (
	FormatPointer FormatTag = 'P'
	FormatBytes   FormatTag = 'B'
)

// Header mirrors spec §6's fixed 16-byte header.
type Header struct {
	Tag        FormatTag
	BinaryMode bool
}

func PutU64(dst []byte, v uint64) { binary.LittleEndian.PutUint64(dst, v) }
func PutU32(dst []byte, v uint32) { binary.LittleEndian.PutUint32(dst, v) }
func GetU64(src []byte) uint64    { return binary.LittleEndian.Uint64(src) }
func GetU32(src []byte) uint32    { return binary.LittleEndian.Uint32(src) }

// WriteHeader writes the 16-byte fixed header.
func WriteHeader(w io.Writer, h Header) (int64, error) {
	buf := make([]byte, 16)
	PutU64(buf[0:8], Magic)
	PutU32(buf[8:12], Version)
	buf[12] = byte(h.Tag)
	if h.BinaryMode {
		buf[13] = 1
	}
	n, err := w.Write(buf)
	return int64(n), err
}

// ReadHeader parses the 16-byte fixed header from the front of image.
func ReadHeader(image []byte) (Header, int, error) {
	if len(image) < 16 {
		return Header{}, 0, ErrCorrupt
	}
	if GetU64(image[0:8]) != Magic || GetU32(image[8:12]) != Version {
		return Header{}, 0, ErrCorrupt
	}
	tag := FormatTag(image[12])
	if tag != FormatPointer && tag != FormatBytes {
		return Header{}, 0, ErrCorrupt
	}
	return Header{Tag: tag, BinaryMode: image[13] != 0}, 16, nil
}

// ErrCorrupt is returned whenever a header/length/size check fails during
// decode; callers map it to errutil.ErrImageCorrupt.
var ErrCorrupt = corruptError{}

type corruptError struct{}

func (corruptError) Error() string { return "wire: corrupt or truncated image" }

func align8(n int) int {
	return (n + 7) &^ 7
}

// WriteBlock writes an 8-byte length prefix followed by data, then pads
// with zero bytes up to the next 8-byte boundary, per spec §6's "All
// length-prefixed blobs are 8-byte aligned."
func WriteBlock(w io.Writer, data []byte) (int64, error) {
	lenBuf := make([]byte, 8)
	PutU64(lenBuf, uint64(len(data)))
	n1, err := w.Write(lenBuf)
	if err != nil {
		return int64(n1), err
	}
	n2, err := w.Write(data)
	if err != nil {
		return int64(n1 + n2), err
	}
	pad := align8(len(data)) - len(data)
	if pad > 0 {
		n3, err := w.Write(make([]byte, pad))
		if err != nil {
			return int64(n1 + n2 + n3), err
		}
		return int64(n1 + n2 + n3), nil
	}
	return int64(n1 + n2), nil
}

// ReadBlock reads one length-prefixed, 8-byte-aligned block starting at
// offset in image, returning the block's payload (a sub-slice of image,
// never copied — this is what makes borrowed/mmap loads zero-copy) and the
// offset of the next block.
func ReadBlock(image []byte, offset int) (payload []byte, next int, err error) {
	if offset+8 > len(image) {
		return nil, 0, ErrCorrupt
	}
	n := int(GetU64(image[offset : offset+8]))
	start := offset + 8
	if n < 0 || start+n > len(image) {
		return nil, 0, ErrCorrupt
	}
	end := start + n
	return image[start:end], start + align8(n), nil
}

// AppendBlock appends a length-prefixed, 8-byte-aligned block (length, data,
// zero padding) to dst and returns the extended slice — the append-based
// counterpart to WriteBlock for callers composing an in-memory buffer
// rather than writing to an io.Writer, used when one component nests
// several sub-components inside its own length-prefixed block (the DAC
// levels within a bc_store block, for instance).
func AppendBlock(dst []byte, data []byte) []byte {
	lenBuf := make([]byte, 8)
	PutU64(lenBuf, uint64(len(data)))
	dst = append(dst, lenBuf...)
	dst = append(dst, data...)
	pad := align8(len(data)) - len(data)
	if pad > 0 {
		dst = append(dst, make([]byte, pad)...)
	}
	return dst
}

// BytesToWords reinterprets an 8-byte-aligned byte slice as a []uint64
// without copying. b's length must be a multiple of 8; this is the
// zero-copy primitive behind borrowed/mmap loads.
func BytesToWords(b []byte) []uint64 {
	if len(b) == 0 {
		return nil
	}
	n := len(b) / 8
	return unsafe.Slice((*uint64)(unsafe.Pointer(&b[0])), n)
}

// BytesToU32s reinterprets a byte slice as a []uint32 without copying.
func BytesToU32s(b []byte) []uint32 {
	if len(b) == 0 {
		return nil
	}
	n := len(b) / 4
	return unsafe.Slice((*uint32)(unsafe.Pointer(&b[0])), n)
}

// WordsToBytes is the write-side counterpart: a little-endian byte view of
// a []uint64, used when serializing in-memory words back to the wire.
func WordsToBytes(words []uint64) []byte {
	out := make([]byte, len(words)*8)
	for i, w := range words {
		PutU64(out[i*8:i*8+8], w)
	}
	return out
}

// U32sToBytes is the write-side counterpart for []uint32.
func U32sToBytes(vals []uint32) []byte {
	out := make([]byte, len(vals)*4)
	for i, v := range vals {
		PutU32(out[i*4:i*4+4], v)
	}
	return out
}
