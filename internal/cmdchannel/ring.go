package cmdchannel

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"main/internal/codec"
	internalerrors "main/internal/errors"
)

// DefaultRingCapacity is the default number of slots in a ring, matching
// the spec's default (§4.1). Capacity must be a power of two so that the
// modulo-by-capacity index computation can use a mask.
const DefaultRingCapacity = 16384

// ringHeaderSize is ownerTag(8) + capacity(4) + reserved(4) + writeSeq(8)
// + readSeq(8), padded to 64 bytes; both cursors share that one header
// cache line, and the first slot starts right after it.
const ringHeaderSize = 64

var (
	// ErrOwnerTagMismatch is fatal: the engine refuses to attach to a
	// shared-memory segment created by a foreign process (§4.1, §9).
	ErrOwnerTagMismatch = internalerrors.New("cmdchannel: owner tag mismatch on ring attach")
	// ErrInvalidCapacity is returned when the requested capacity is not a
	// power of two.
	ErrInvalidCapacity = internalerrors.New("cmdchannel: ring capacity must be a power of two")
)

// segment is the backing store for a ring: a contiguous byte region
// shared between producer and consumer processes, plus however it was
// obtained (mmap'd file, or an in-process stand-in — see shm_*.go).
type segment interface {
	bytes() []byte
	close() error
}

// RingChannel is the single-producer/single-consumer lock-free ring
// buffer transport (§4.1 primary transport).
type RingChannel struct {
	seg      segment
	buf      []byte
	capacity uint32
	mask     uint32
	ownerTag uint64
}

// OpenRing attaches to (creating if absent) the shared-memory ring
// identified by key, verifying or stamping the owner tag, then resetting
// the ring so no stale entries from a prior consumer are replayed.
func OpenRing(key uint32, ownerTag uint64, capacity int) (*RingChannel, error) {
	if capacity <= 0 {
		capacity = DefaultRingCapacity
	}
	if capacity&(capacity-1) != 0 {
		return nil, ErrInvalidCapacity
	}

	size := ringHeaderSize + capacity*codec.CommandFrameSize
	seg, created, err := openSharedSegment(key, size)
	if err != nil {
		return nil, internalerrors.Wrap(err, "cmdchannel: open shared segment")
	}

	buf := seg.bytes()
	r := &RingChannel{seg: seg, buf: buf, capacity: uint32(capacity), mask: uint32(capacity - 1), ownerTag: ownerTag}

	if created {
		r.writeOwnerTag(ownerTag)
		binary.LittleEndian.PutUint32(buf[8:12], uint32(capacity))
	} else {
		existing := r.readOwnerTag()
		if existing != ownerTag {
			_ = seg.close()
			return nil, ErrOwnerTagMismatch
		}
		if existingCap := binary.LittleEndian.Uint32(buf[8:12]); existingCap != uint32(capacity) {
			_ = seg.close()
			return nil, fmt.Errorf("cmdchannel: ring capacity mismatch: attached=%d requested=%d", existingCap, capacity)
		}
	}

	// Reset-on-attach: the consumer always starts from whatever the
	// producer has already written, dropping anything it might have
	// partially consumed from a previous, crashed instance.
	write := r.loadWriteSeq()
	r.storeReadSeq(write)

	return r, nil
}

func (r *RingChannel) writeOwnerTag(tag uint64) {
	binary.LittleEndian.PutUint64(r.buf[0:8], tag)
}

func (r *RingChannel) readOwnerTag() uint64 {
	return binary.LittleEndian.Uint64(r.buf[0:8])
}

func (r *RingChannel) writeSeqPtr() *uint64 {
	return (*uint64)(ptrAt(r.buf, 16))
}

func (r *RingChannel) readSeqPtr() *uint64 {
	return (*uint64)(ptrAt(r.buf, 24))
}

func (r *RingChannel) loadWriteSeq() uint64 { return atomic.LoadUint64(r.writeSeqPtr()) }
func (r *RingChannel) loadReadSeq() uint64  { return atomic.LoadUint64(r.readSeqPtr()) }
func (r *RingChannel) storeReadSeq(v uint64) {
	atomic.StoreUint64(r.readSeqPtr(), v)
}

func (r *RingChannel) slot(seq uint64) []byte {
	idx := uint32(seq) & r.mask
	off := ringHeaderSize + int(idx)*codec.CommandFrameSize
	return r.buf[off : off+codec.CommandFrameSize]
}

// Push is the producer side: it never blocks. It returns false if the
// ring is full (the producer is responsible for backing off or dropping).
func (r *RingChannel) Push(frame []byte) bool {
	write := r.loadWriteSeq()
	read := r.loadReadSeq()
	if write-read >= uint64(r.capacity) {
		return false
	}
	copy(r.slot(write), frame)
	atomic.StoreUint64(r.writeSeqPtr(), write+1)
	return true
}

// Recv pops and decodes the next record, busy-polling until one is
// available or ctx is done (§4.1 "tight busy loop").
func (r *RingChannel) Recv(ctx context.Context) (codec.Command, error) {
	for {
		read := r.loadReadSeq()
		write := r.loadWriteSeq()
		if read != write {
			frame := r.slot(read)
			magic, _ := codec.Magic(frame)
			atomic.StoreUint64(r.readSeqPtr(), read+1)
			if magic != codec.TraderCmdMagic {
				return codec.Command{}, ErrMalformedRecord
			}
			cmd, ok := codec.DecodeCommand(frame)
			if !ok {
				return codec.Command{}, ErrMalformedRecord
			}
			switch cmd.Type {
			case codec.CmdNewOrder, codec.CmdCancelOrder, codec.CmdCancelTicker, codec.CmdCancelAll:
				return cmd, nil
			default:
				return codec.Command{}, ErrMalformedRecord
			}
		}
		select {
		case <-ctx.Done():
			return codec.Command{}, ctx.Err()
		default:
		}
	}
}

// Close releases the underlying shared-memory segment.
func (r *RingChannel) Close() error {
	return r.seg.close()
}
