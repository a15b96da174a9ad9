package record

import (
	"crypto/md5"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// HashFailedSentinel is stored when every digest tier fails. Hashing is
// advisory; persistence continues with this value rather than aborting.
const HashFailedSentinel = "hash-generation-failed"

// Digest is the result of a primary hash computation.
//
// Degraded is true when the hex value did not come from a cryptographic
// digest. Degraded hashes are uniquified with a timestamp and random suffix
// so distinct uploads never collide, but they are useless as stable dedup
// keys across devices.
type Digest struct {
	Hex      string
	Degraded bool
}

// DigestFunc computes a raw digest over data.
type DigestFunc func(data []byte) ([]byte, error)

// Hasher computes content hashes for asset bytes.
//
// The digest tiers are injectable so tests (and constrained builds) can
// exercise the degradation chain:
//
//	tier 1: Secure   - the platform digest primitive (default SHA-256)
//	tier 2: Software - a software digest used when tier 1 fails
//	tier 3: rolling multiplicative hash + timestamp + random suffix
//
// A Hasher never returns an error: on total failure both the primary hash
// and the secondary checksum collapse to HashFailedSentinel.
type Hasher struct {
	Secure   DigestFunc
	Software DigestFunc

	// now and randomHex are test seams for the degraded suffix.
	now       func() time.Time
	randomHex func(n int) (string, error)
}

// NewHasher returns a Hasher using SHA-256 for both cryptographic tiers.
func NewHasher() *Hasher {
	return &Hasher{
		Secure:    sha256Digest,
		Software:  sha256Digest,
		now:       time.Now,
		randomHex: randomHex,
	}
}

// PrimaryHash computes the 256-bit content hash of data, hex encoded.
// Falls through the digest tiers; never fails.
func (h *Hasher) PrimaryHash(data []byte) Digest {
	if sum, err := h.digest(h.Secure, data); err == nil {
		return Digest{Hex: hex.EncodeToString(sum)}
	}
	if sum, err := h.digest(h.Software, data); err == nil {
		return Digest{Hex: hex.EncodeToString(sum)}
	}
	return h.degraded(data)
}

// SecondaryChecksum computes the legacy MD5 checksum of data, hex encoded.
// Used only for auxiliary comparison against older records, never as a
// dedup key. Returns the sentinel on failure.
func (h *Hasher) SecondaryChecksum(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// digest runs fn and converts panics and nil results into errors so the
// caller can fall through to the next tier.
func (h *Hasher) digest(fn DigestFunc, data []byte) (sum []byte, err error) {
	if fn == nil {
		return nil, fmt.Errorf("digest unavailable")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("digest panicked: %v", r)
		}
	}()
	sum, err = fn(data)
	if err == nil && len(sum) == 0 {
		err = fmt.Errorf("digest returned no output")
	}
	return sum, err
}

// degraded computes the tier-3 rolling hash. The timestamp and random
// suffix guarantee distinct uploads never share a degraded hash even when
// their bytes collide under the weak hash.
func (h *Hasher) degraded(data []byte) Digest {
	var acc uint64
	for _, b := range data {
		acc = acc*31 + uint64(b)
	}

	suffix, err := h.randomHex(4)
	if err != nil {
		return Digest{Hex: HashFailedSentinel, Degraded: true}
	}
	return Digest{
		Hex:      fmt.Sprintf("%016x-%d-%s", acc, h.now().UnixNano(), suffix),
		Degraded: true,
	}
}

func sha256Digest(data []byte) ([]byte, error) {
	sum := sha256.Sum256(data)
	return sum[:], nil
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
