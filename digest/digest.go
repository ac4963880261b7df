// Package digest computes digests over the original bytes of bencoded values, e.g.
// the info hash of a torrent.
package digest

import (
	"bytes"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"strings"

	"github.com/go-gum/bencode"
	"github.com/zeebo/blake3"
)

var ErrUnknownAlgorithm = errors.New("unknown digest algorithm")

// Algorithm names a hash function.
type Algorithm string

const (
	// SHA1 is the info hash of version 1 torrents.
	SHA1 Algorithm = "sha1"

	// SHA256 is the info hash of version 2 torrents.
	SHA256 Algorithm = "sha256"

	BLAKE3 Algorithm = "blake3"
)

// Algorithms returns all supported algorithms.
func Algorithms() []Algorithm {
	return []Algorithm{SHA1, SHA256, BLAKE3}
}

// ParseAlgorithm returns the algorithm with the given name. Names are case
// insensitive.
func ParseAlgorithm(name string) (Algorithm, error) {
	algo := Algorithm(strings.ToLower(name))
	if _, err := algo.New(); err != nil {
		return "", err
	}

	return algo, nil
}

// New returns a new hash.Hash computing the algorithm.
func (a Algorithm) New() (hash.Hash, error) {
	switch a {
	case SHA1:
		return sha1.New(), nil
	case SHA256:
		return sha256.New(), nil
	case BLAKE3:
		return blake3.New(), nil
	default:
		return nil, fmt.Errorf("%q: %w", string(a), ErrUnknownAlgorithm)
	}
}

// Digest is the output of a hash function together with the algorithm that
// produced it.
type Digest struct {
	Algorithm Algorithm
	Sum       []byte
}

// String returns the digest as "<algorithm>:<hex>".
func (d Digest) String() string {
	return string(d.Algorithm) + ":" + d.Hex()
}

// Hex returns the hex encoded sum.
func (d Digest) Hex() string {
	return hex.EncodeToString(d.Sum)
}

// Equal reports whether both digests have the same algorithm and sum.
func (d Digest) Equal(o Digest) bool {
	return d.Algorithm == o.Algorithm && bytes.Equal(d.Sum, o.Sum)
}

// Parse parses the "<algorithm>:<hex>" form returned by [Digest.String].
func Parse(text string) (Digest, error) {
	name, encoded, ok := strings.Cut(text, ":")
	if !ok {
		return Digest{}, fmt.Errorf("parsing digest %q: missing algorithm", text)
	}

	algo, err := ParseAlgorithm(name)
	if err != nil {
		return Digest{}, fmt.Errorf("parsing digest: %w", err)
	}

	sum, err := hex.DecodeString(encoded)
	if err != nil {
		return Digest{}, fmt.Errorf("parsing digest: %w", err)
	}

	hasher, _ := algo.New()
	if len(sum) != hasher.Size() {
		return Digest{}, fmt.Errorf("%s digest is %d bytes, want %d", algo, len(sum), hasher.Size())
	}

	return Digest{Algorithm: algo, Sum: sum}, nil
}

// Sum computes the digest of data.
func Sum(algo Algorithm, data []byte) (Digest, error) {
	return SumReader(algo, bytes.NewReader(data))
}

// SumReader computes the digest of everything read from r.
func SumReader(algo Algorithm, r io.Reader) (Digest, error) {
	hasher, err := algo.New()
	if err != nil {
		return Digest{}, err
	}

	if _, err := io.Copy(hasher, r); err != nil {
		return Digest{}, fmt.Errorf("hashing: %w", err)
	}

	return Digest{Algorithm: algo, Sum: hasher.Sum(nil)}, nil
}

// SumSpan computes the digest of the original bytes of the value found at path in
// data. The bytes are hashed as they appear in data, without re-encoding, so that
// non canonical input still yields the digest other implementations compute.
// data is decoded with the extended codec.
func SumSpan(algo Algorithm, data []byte, path ...string) (Digest, error) {
	return SumSpanWith(bencode.Extended(bencode.WithDecoration()), algo, data, path...)
}

// SumSpanWith is like [SumSpan] but decodes data with codec, which must have been
// created with [bencode.WithDecoration].
func SumSpanWith(codec *bencode.Codec, algo Algorithm, data []byte, path ...string) (Digest, error) {
	if !codec.Decorating() {
		return Digest{}, fmt.Errorf("codec without decoration: %w", bencode.ErrNotSupported)
	}

	root, err := codec.Decode(data)
	if err != nil {
		return Digest{}, fmt.Errorf("decoding: %w", err)
	}

	return SumDecoded(algo, root, data, path...)
}

// SumDecoded computes the digest of the value found at path in root, a decorated
// tree decoded from data.
func SumDecoded(algo Algorithm, root bencode.Value, data []byte, path ...string) (Digest, error) {
	span, err := bencode.FindSpan(root, path...)
	if err != nil {
		return Digest{}, err
	}

	raw, err := span.Slice(data)
	if err != nil {
		return Digest{}, err
	}

	return Sum(algo, raw)
}

// InfoHash computes the info hash of a torrent metainfo file, the digest of its
// "info" dictionary.
func InfoHash(algo Algorithm, metainfo []byte) (Digest, error) {
	return SumSpan(algo, metainfo, "info")
}
