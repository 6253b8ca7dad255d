//go:build !unix

package cmdchannel

// openSharedSegment falls back to the in-process registry on platforms
// without POSIX shared memory (see shm_unix.go for the primary path).
func openSharedSegment(key uint32, size int) (segment, bool, error) {
	return openInProcessSegment(key, size)
}
