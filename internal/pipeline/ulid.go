package pipeline

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// Job IDs are ULIDs: a 48-bit millisecond timestamp followed by 80 random
// bits, rendered as 26 Crockford base32 characters. The timestamp prefix
// keeps IDs sortable by creation time.

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var (
	ulidMu  sync.Mutex
	lastTS  uint64
	lastSeq uint16
)

func generateULID() string {
	ulidMu.Lock()
	defer ulidMu.Unlock()

	ts := uint64(time.Now().UnixMilli())
	if ts == lastTS {
		lastSeq++
	} else {
		lastTS = ts
		lastSeq = 0
	}

	var b [16]byte
	b[0] = byte(ts >> 40)
	b[1] = byte(ts >> 32)
	b[2] = byte(ts >> 24)
	b[3] = byte(ts >> 16)
	b[4] = byte(ts >> 8)
	b[5] = byte(ts)
	rand.Read(b[6:])
	// A counter in the first two random bytes keeps IDs issued within the
	// same millisecond distinct and ordered.
	binary.BigEndian.PutUint16(b[6:8], lastSeq)

	return encodeBase32(b)
}

// encodeBase32 renders 128 bits as 26 base32 characters. 26 characters hold
// 130 bits, so the stream is padded with two leading zero bits; the first
// character therefore only ever encodes values 0 through 7.
func encodeBase32(b [16]byte) string {
	var out [26]byte
	for i := range out {
		var v byte
		for j := 0; j < 5; j++ {
			pos := i*5 - 2 + j
			if pos < 0 {
				continue
			}
			if b[pos/8]&(1<<(7-pos%8)) != 0 {
				v |= 1 << (4 - j)
			}
		}
		out[i] = crockford[v]
	}
	return string(out[:])
}
