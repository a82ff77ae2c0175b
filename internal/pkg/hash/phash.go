package hash

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/corona10/goimagehash"
	_ "golang.org/x/image/webp"
)

// Size is the encoded width of a FixedHash in bytes.
const Size = 8

var (
	// ErrInvalidHashLength indicates an encoded hash that is not exactly Size bytes.
	ErrInvalidHashLength = errors.New("invalid hash length")
	// ErrDecodeImage indicates image bytes in an unknown or corrupt format.
	ErrDecodeImage = errors.New("failed to decode image")
)

// FixedHash is a 64-bit perceptual fingerprint stored as big-endian bytes.
// Two hashes are equal only when every byte is equal.
type FixedHash [Size]byte

// FromUint64 builds a FixedHash from the raw goimagehash value.
func FromUint64(v uint64) FixedHash {
	var h FixedHash
	binary.BigEndian.PutUint64(h[:], v)
	return h
}

// Decode parses one encoded hash.
func Decode(b []byte) (FixedHash, error) {
	var h FixedHash
	if len(b) != Size {
		return h, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidHashLength, len(b), Size)
	}
	copy(h[:], b)
	return h, nil
}

// ParseHex parses the String form of a hash.
func ParseHex(s string) (FixedHash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return FixedHash{}, fmt.Errorf("failed to parse hash %q: %w", s, err)
	}
	return Decode(b)
}

// Encode returns the fixed-width encoding of h.
func (h FixedHash) Encode() [Size]byte {
	return h
}

// Bytes returns the encoding of h as a fresh slice.
func (h FixedHash) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, h[:])
	return b
}

// Uint64 returns the raw goimagehash value.
func (h FixedHash) Uint64() uint64 {
	return binary.BigEndian.Uint64(h[:])
}

// String returns a hex string representation of the hash.
func (h FixedHash) String() string {
	return hex.EncodeToString(h[:])
}

// Base64 returns the hash in the form used by moderation log lines.
func (h FixedHash) Base64() string {
	return base64.StdEncoding.EncodeToString(h[:])
}

// PerceptualHasher decodes images and computes their DCT-based perceptual hash.
type PerceptualHasher struct{}

// NewPerceptualHasher creates a new PerceptualHasher.
func NewPerceptualHasher() *PerceptualHasher {
	return &PerceptualHasher{}
}

// DecodeImage decodes gif, jpeg, png or webp bytes.
func (ph *PerceptualHasher) DecodeImage(data []byte) (image.Image, error) {
	return ph.DecodeImageReader(bytes.NewReader(data))
}

// DecodeImageReader decodes an image from an io.Reader.
func (ph *PerceptualHasher) DecodeImageReader(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeImage, err)
	}
	return img, nil
}

// ComputePHash computes the perceptual hash of a decoded image.
func (ph *PerceptualHasher) ComputePHash(img image.Image) (FixedHash, error) {
	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return FixedHash{}, fmt.Errorf("failed to compute pHash: %w", err)
	}
	return FromUint64(hash.GetHash()), nil
}

// ComputeHashFromBytes decodes image bytes and hashes the result.
func (ph *PerceptualHasher) ComputeHashFromBytes(data []byte) (FixedHash, error) {
	img, err := ph.DecodeImage(data)
	if err != nil {
		return FixedHash{}, err
	}
	return ph.ComputePHash(img)
}
