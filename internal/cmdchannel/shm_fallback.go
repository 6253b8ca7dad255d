package cmdchannel

import "sync"

// inProcessRegistry stands in for /dev/shm on platforms (or sandboxes)
// where a real shared-memory file cannot be opened. It still provides
// the two properties the spec requires of the transport (§9):
// creator-identity verification via the ring's own owner-tag bytes, and
// reset-on-attach, both of which live inside the segment bytes
// themselves, not in this registry.
var (
	inProcessMu       sync.Mutex
	inProcessSegments = make(map[uint32][]byte)
)

type inProcessSegment struct {
	key  uint32
	data []byte
}

func (s *inProcessSegment) bytes() []byte { return s.data }

func (s *inProcessSegment) close() error {
	// Intentionally does not delete the entry: a second process in the
	// same test binary attaching to the same key must still observe the
	// owner tag, exactly as a real /dev/shm segment would survive a
	// consumer closing its mapping.
	return nil
}

func openInProcessSegment(key uint32, size int) (segment, bool, error) {
	inProcessMu.Lock()
	defer inProcessMu.Unlock()

	buf, ok := inProcessSegments[key]
	created := false
	if !ok || len(buf) < size {
		buf = make([]byte, size)
		inProcessSegments[key] = buf
		created = !ok
	}
	return &inProcessSegment{key: key, data: buf}, created, nil
}
