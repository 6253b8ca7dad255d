package codec

import (
	"encoding/binary"
	"math"

	"main/internal/schema"
)

// OrderResponseSize is the packed size of an OrderResponse record,
// rounded up from its 57 significant bytes to an 8-byte multiple.
const OrderResponseSize = 64

// OrderResponse is the engine-to-strategy record surfaced for order
// acknowledgments, fills, and terminal completion (§6).
type OrderResponse struct {
	UserOrderID     uint32
	BrokerOrderID   uint64
	TickerIndex     schema.TickerIndex
	Direction       schema.OrderSide
	Offset          schema.Offset
	OriginalVolume  int64
	TradedVolume    int64
	Completed       bool
	ErrorCode       schema.ErrorCode
	ThisTraded      int32
	ThisTradedPrice float64
}

// EncodeOrderResponse serializes r into a fixed OrderResponseSize buffer.
func EncodeOrderResponse(dst []byte, r OrderResponse) []byte {
	if cap(dst) < OrderResponseSize {
		dst = make([]byte, OrderResponseSize)
	} else {
		dst = dst[:OrderResponseSize]
	}
	binary.LittleEndian.PutUint32(dst[0:4], r.UserOrderID)
	binary.LittleEndian.PutUint64(dst[4:12], r.BrokerOrderID)
	binary.LittleEndian.PutUint32(dst[12:16], uint32(r.TickerIndex))
	binary.LittleEndian.PutUint32(dst[16:20], uint32(r.Direction))
	binary.LittleEndian.PutUint32(dst[20:24], uint32(r.Offset))
	binary.LittleEndian.PutUint64(dst[24:32], uint64(r.OriginalVolume))
	binary.LittleEndian.PutUint64(dst[32:40], uint64(r.TradedVolume))
	if r.Completed {
		dst[40] = 1
	} else {
		dst[40] = 0
	}
	binary.LittleEndian.PutUint32(dst[41:45], uint32(int32(r.ErrorCode)))
	binary.LittleEndian.PutUint32(dst[45:49], uint32(r.ThisTraded))
	binary.LittleEndian.PutUint64(dst[49:57], math.Float64bits(r.ThisTradedPrice))
	return dst
}

// DecodeOrderResponse parses a fixed-size OrderResponse payload.
func DecodeOrderResponse(src []byte) (OrderResponse, bool) {
	if len(src) < OrderResponseSize {
		return OrderResponse{}, false
	}
	return OrderResponse{
		UserOrderID:     binary.LittleEndian.Uint32(src[0:4]),
		BrokerOrderID:   binary.LittleEndian.Uint64(src[4:12]),
		TickerIndex:     schema.TickerIndex(binary.LittleEndian.Uint32(src[12:16])),
		Direction:       schema.OrderSide(binary.LittleEndian.Uint32(src[16:20])),
		Offset:          schema.Offset(binary.LittleEndian.Uint32(src[20:24])),
		OriginalVolume:  int64(binary.LittleEndian.Uint64(src[24:32])),
		TradedVolume:    int64(binary.LittleEndian.Uint64(src[32:40])),
		Completed:       src[40] != 0,
		ErrorCode:       schema.ErrorCode(int32(binary.LittleEndian.Uint32(src[41:45]))),
		ThisTraded:      int32(binary.LittleEndian.Uint32(src[45:49])),
		ThisTradedPrice: math.Float64frombits(binary.LittleEndian.Uint64(src[49:57])),
	}, true
}
