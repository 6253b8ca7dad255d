//go:build unix

package cmdchannel

import (
	"fmt"
	"os"
	"syscall"
)

// unixSegment is a shared-memory segment backed by a file under
// /dev/shm, mmap'd MAP_SHARED so two processes that open the same key
// observe the same bytes.
type unixSegment struct {
	file *os.File
	data []byte
}

func (s *unixSegment) bytes() []byte { return s.data }

func (s *unixSegment) close() error {
	err := syscall.Munmap(s.data)
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// openSharedSegment creates (or attaches to) the /dev/shm segment for
// key, truncating/extending it to size, and returns whether this call
// was the creator.
func openSharedSegment(key uint32, size int) (segment, bool, error) {
	path := fmt.Sprintf("/dev/shm/trading-engine-cmd-%d", key)

	created := false
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err == nil {
		created = true
	} else if os.IsExist(err) {
		file, err = os.OpenFile(path, os.O_RDWR, 0o600)
		if err != nil {
			return nil, false, err
		}
	} else {
		// /dev/shm unavailable (e.g. sandboxed CI): fall back to an
		// in-process registry providing the same two properties.
		return openInProcessSegment(key, size)
	}

	if created {
		if err := file.Truncate(int64(size)); err != nil {
			_ = file.Close()
			return nil, false, err
		}
	} else {
		info, err := file.Stat()
		if err != nil {
			_ = file.Close()
			return nil, false, err
		}
		if int(info.Size()) < size {
			_ = file.Close()
			return nil, false, fmt.Errorf("cmdchannel: existing segment %s smaller than requested size", path)
		}
	}

	data, err := syscall.Mmap(int(file.Fd()), 0, size, syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		_ = file.Close()
		return nil, false, err
	}
	return &unixSegment{file: file, data: data}, created, nil
}
