package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu   sync.Mutex
	mono io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	// Monotonic entropy keeps IDs minted in the same millisecond ordered
	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New returns a time-sortable ULID string prefixed for reconciliation runs
func New() string {
	mu.Lock()
	defer mu.Unlock()

	v, err := ulid.New(ulid.Timestamp(time.Now().UTC()), mono)
	if err != nil {
		panic(err)
	}
	return "REC_" + v.String()
}

// Time extracts the generation time encoded in an identifier from New
func Time(s string) (time.Time, bool) {
	if len(s) < 4 || s[:4] != "REC_" {
		return time.Time{}, false
	}
	v, err := ulid.ParseStrict(s[4:])
	if err != nil {
		return time.Time{}, false
	}
	return ulid.Time(v.Time()), true
}
