package codec

import (
	"encoding/binary"
	"math"

	"main/internal/schema"
)

// TraderCmdType is the 32-bit type discriminant of a command record (§6).
type TraderCmdType uint32

const (
	CmdNewOrder     TraderCmdType = 1
	CmdCancelOrder  TraderCmdType = 2
	CmdCancelTicker TraderCmdType = 3
	CmdCancelAll    TraderCmdType = 4
)

// TraderCmdMagic is the fixed magic constant every command record must
// carry; a mismatch is a per-record failure (§4.1). The numeric value is
// identical to the original source's 0x1709394 constant.
const TraderCmdMagic uint32 = 0x01709394

const (
	// CommandHeaderSize is magic(4) + type(4) + strategy_id(16).
	CommandHeaderSize = 24
	// CommandPayloadSize is the tagged-union payload slot, sized to the
	// largest variant (new-order: 37 bytes, rounded up to a multiple of 8).
	CommandPayloadSize = 40
	CommandFrameSize   = CommandHeaderSize + CommandPayloadSize
)

// NewOrderPayload is the type=1 command payload (§6).
type NewOrderPayload struct {
	UserOrderID  uint32
	TickerIndex  schema.TickerIndex
	Direction    schema.OrderSide
	Offset       schema.Offset
	Type         schema.OrderType
	Volume       int32
	Price        float64
	Flags        uint32
	WithoutCheck bool
}

// CancelOrderPayload is the type=2 command payload.
type CancelOrderPayload struct {
	OrderID uint64
}

// CancelTickerPayload is the type=3 command payload.
type CancelTickerPayload struct {
	TickerIndex schema.TickerIndex
}

// Command is a fully decoded command record.
type Command struct {
	Type         TraderCmdType
	StrategyID   schema.StrategyID
	NewOrder     NewOrderPayload
	CancelOrder  CancelOrderPayload
	CancelTicker CancelTickerPayload
}

// EncodeCommand serializes a Command into a fixed CommandFrameSize buffer.
func EncodeCommand(dst []byte, cmd Command) []byte {
	if cap(dst) < CommandFrameSize {
		dst = make([]byte, CommandFrameSize)
	} else {
		dst = dst[:CommandFrameSize]
		for i := range dst {
			dst[i] = 0
		}
	}
	binary.LittleEndian.PutUint32(dst[0:4], TraderCmdMagic)
	binary.LittleEndian.PutUint32(dst[4:8], uint32(cmd.Type))
	copy(dst[8:24], cmd.StrategyID[:])

	payload := dst[CommandHeaderSize:]
	switch cmd.Type {
	case CmdNewOrder:
		encodeNewOrder(payload, cmd.NewOrder)
	case CmdCancelOrder:
		binary.LittleEndian.PutUint64(payload[0:8], cmd.CancelOrder.OrderID)
	case CmdCancelTicker:
		binary.LittleEndian.PutUint32(payload[0:4], uint32(cmd.CancelTicker.TickerIndex))
	case CmdCancelAll:
		// no payload
	}
	return dst
}

func encodeNewOrder(dst []byte, p NewOrderPayload) {
	binary.LittleEndian.PutUint32(dst[0:4], p.UserOrderID)
	binary.LittleEndian.PutUint32(dst[4:8], uint32(p.TickerIndex))
	binary.LittleEndian.PutUint32(dst[8:12], uint32(p.Direction))
	binary.LittleEndian.PutUint32(dst[12:16], uint32(p.Offset))
	binary.LittleEndian.PutUint32(dst[16:20], uint32(p.Type))
	binary.LittleEndian.PutUint32(dst[20:24], uint32(p.Volume))
	binary.LittleEndian.PutUint64(dst[24:32], math.Float64bits(p.Price))
	binary.LittleEndian.PutUint32(dst[32:36], p.Flags)
	if p.WithoutCheck {
		dst[36] = 1
	} else {
		dst[36] = 0
	}
}

// DecodeCommand parses a fixed-size command frame. ok is false when the
// buffer is too short; the caller must still validate Magic itself.
func DecodeCommand(src []byte) (Command, bool) {
	if len(src) < CommandFrameSize {
		return Command{}, false
	}
	var cmd Command
	cmd.Type = TraderCmdType(binary.LittleEndian.Uint32(src[4:8]))
	copy(cmd.StrategyID[:], src[8:24])

	payload := src[CommandHeaderSize:]
	switch cmd.Type {
	case CmdNewOrder:
		cmd.NewOrder = decodeNewOrder(payload)
	case CmdCancelOrder:
		cmd.CancelOrder.OrderID = binary.LittleEndian.Uint64(payload[0:8])
	case CmdCancelTicker:
		cmd.CancelTicker.TickerIndex = schema.TickerIndex(binary.LittleEndian.Uint32(payload[0:4]))
	case CmdCancelAll:
		// no payload
	}
	return cmd, true
}

func decodeNewOrder(src []byte) NewOrderPayload {
	return NewOrderPayload{
		UserOrderID:  binary.LittleEndian.Uint32(src[0:4]),
		TickerIndex:  schema.TickerIndex(binary.LittleEndian.Uint32(src[4:8])),
		Direction:    schema.OrderSide(binary.LittleEndian.Uint32(src[8:12])),
		Offset:       schema.Offset(binary.LittleEndian.Uint32(src[12:16])),
		Type:         schema.OrderType(binary.LittleEndian.Uint32(src[16:20])),
		Volume:       int32(binary.LittleEndian.Uint32(src[20:24])),
		Price:        math.Float64frombits(binary.LittleEndian.Uint64(src[24:32])),
		Flags:        binary.LittleEndian.Uint32(src[32:36]),
		WithoutCheck: src[36] != 0,
	}
}

// Magic reads the magic field out of a raw frame without fully decoding it.
func Magic(src []byte) (uint32, bool) {
	if len(src) < 4 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(src[0:4]), true
}
