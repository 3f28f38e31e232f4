package service

import (
	"crypto/rand"
	"io"
	"time"
)

// Caps bundles the process-wide time source and CSPRNG. Services receive one
// shared record at startup instead of reaching for globals, so tests can
// substitute a frozen clock or a scripted reader.
type Caps struct {
	Now  func() time.Time
	Rand io.Reader
}

// DefaultCaps returns the production time source and CSPRNG.
func DefaultCaps() Caps {
	return Caps{Now: time.Now, Rand: rand.Reader}
}
