// Package settings reads process-wide configuration from the environment.
package settings

import (
	"sync"

	"github.com/xyproto/env/v2"
)

// Environment variables.
const (
	EnvLog        = "X64JIT_LOG"
	EnvDump       = "X64JIT_DUMP"
	EnvBufferSize = "X64JIT_BUFFER_SIZE"
)

const (
	DefaultLogLevel   = "warn"
	DefaultBufferSize = 256
	minBufferSize     = 16
)

type Settings struct {
	// Log level name: trace, debug, info, warn, or error.
	LogLevel string
	// Log the disassembly of every published function at the debug level.
	Dump bool
	// Initial capacity of an assembler's code buffer when none is supplied.
	BufferSize int
}

var (
	once   sync.Once
	loaded Settings
)

// Load reads the environment once and returns the cached settings on later calls.
func Load() Settings {
	once.Do(func() { loaded = Read() })
	return loaded
}

// Read reads the environment without caching. The env package keeps its own snapshot of the
// environment, which is reloaded first so that changes made since the last read are seen.
func Read() Settings {
	env.Load()
	s := Settings{
		LogLevel:   env.Str(EnvLog, DefaultLogLevel),
		Dump:       env.Bool(EnvDump),
		BufferSize: env.Int(EnvBufferSize, DefaultBufferSize),
	}
	if s.BufferSize < minBufferSize {
		s.BufferSize = minBufferSize
	}
	return s
}
