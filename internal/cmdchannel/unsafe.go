package cmdchannel

import "unsafe"

// ptrAt returns a pointer into buf at the given byte offset, used to hand
// the write/read sequence counters embedded in the ring header to
// sync/atomic. The offsets used by callers (16, 24) are always 8-byte
// aligned within ringHeaderSize.
func ptrAt(buf []byte, offset int) unsafe.Pointer {
	return unsafe.Pointer(&buf[offset])
}
