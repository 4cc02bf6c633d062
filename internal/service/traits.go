package service

import (
	"time"

	"github.com/google/uuid"
)

// Clock and IDGenerator pull wall-clock reads and id assignment behind
// interfaces purely so tests can supply deterministic fakes.
type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID() string
}

// SystemClock is the default Clock, backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// UUIDGenerator is the default IDGenerator, backed by google/uuid.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.New().String() }
