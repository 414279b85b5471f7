package bk

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Clock abstracts time retrieval so business logic is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator abstracts unique token generation so tests are deterministic.
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random 32-character hex tokens.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return strings.ReplaceAll(uuid.New().String(), "-", "") }

// GenerateArchiveName returns "YYYYmmdd_HHMMSS_<token>" where token is the
// first 16 characters of a fresh ID.
func GenerateArchiveName(clock Clock, idgen IDGenerator) string {
	token := idgen.New()
	if len(token) > 16 {
		token = token[:16]
	}
	return clock.Now().Format("20060102_150405") + "_" + token
}
