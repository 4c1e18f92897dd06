package id

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// NewDomainID returns a fresh random identifier for an isolation domain.
func NewDomainID() string {
	return uuid.NewString()
}

// IsDomainID reports whether s parses as a domain identifier.
func IsDomainID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// Crockford's Base32 (no I, L, O, U).
const ulidEncoding = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var (
	ulidMu      sync.Mutex
	ulidLastMs  int64
	ulidCounter uint16
)

// ULID returns a new lexicographically sortable identifier.
// IDs created within the same millisecond stay unique through a counter
// mixed into the random part.
func ULID() string {
	ulidMu.Lock()
	defer ulidMu.Unlock()

	now := time.Now().UnixMilli()
	if now == ulidLastMs {
		ulidCounter++
		if ulidCounter == 0 {
			for now == ulidLastMs {
				time.Sleep(time.Millisecond)
				now = time.Now().UnixMilli()
			}
			ulidLastMs = now
		}
	} else {
		ulidLastMs = now
		ulidCounter = 0
	}

	return encodeULID(now, ulidCounter)
}

func encodeULID(ms int64, counter uint16) string {
	out := make([]byte, 26)

	// 48-bit timestamp, 5 bits per character, most significant first.
	for i := 9; i >= 0; i-- {
		out[i] = ulidEncoding[ms&0x1F]
		ms >>= 5
	}

	var entropy [10]byte
	_, _ = rand.Read(entropy[:])
	entropy[0] ^= byte(counter >> 8)
	entropy[1] ^= byte(counter)

	// 80 bits of entropy into 16 characters.
	var acc uint64
	var bits uint
	pos := 10
	for _, b := range entropy {
		acc = acc<<8 | uint64(b)
		bits += 8
		for bits >= 5 {
			bits -= 5
			out[pos] = ulidEncoding[(acc>>bits)&0x1F]
			pos++
		}
	}

	return string(out)
}

// IsValidULID reports whether s is a well-formed ULID.
func IsValidULID(s string) bool {
	if len(s) != 26 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if decodeULIDChar(s[i]) < 0 {
			return false
		}
	}
	return true
}

// ULIDTime extracts the timestamp encoded in a ULID.
func ULIDTime(s string) (time.Time, error) {
	if !IsValidULID(s) {
		return time.Time{}, fmt.Errorf("invalid ULID: %s", s)
	}

	var ms int64
	for i := 0; i < 10; i++ {
		ms = ms<<5 | int64(decodeULIDChar(s[i]))
	}
	return time.UnixMilli(ms), nil
}

func decodeULIDChar(c byte) int {
	for i := 0; i < len(ulidEncoding); i++ {
		if ulidEncoding[i] == c {
			return i
		}
	}
	return -1
}
