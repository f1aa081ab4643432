package executor

import (
	"bytes"
	"strings"
	"sync"
)

const truncatedMarker = "\n[output truncated]"

// cappedBuffer keeps the first max bytes written to it and drops the rest.
type cappedBuffer struct {
	mu        sync.Mutex
	max       int
	buf       bytes.Buffer
	truncated bool
}

func newCappedBuffer(max int) *cappedBuffer {
	if max <= 0 {
		max = DefaultMaxOutputBytes
	}
	return &cappedBuffer{max: max}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(p) == 0 || b.truncated {
		return len(p), nil
	}
	remain := b.max - b.buf.Len()
	if len(p) > remain {
		b.buf.Write(p[:remain])
		b.truncated = true
		return len(p), nil
	}
	b.buf.Write(p)
	return len(p), nil
}

func (b *cappedBuffer) Truncated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.truncated
}

// String returns the captured text. A cut in the middle of a UTF-8
// sequence is replaced, and the truncation marker is appended.
func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := strings.ToValidUTF8(b.buf.String(), "\uFFFD")
	if b.truncated {
		s += truncatedMarker
	}
	return s
}
