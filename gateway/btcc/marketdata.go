package btcc

import (
	"context"

	"github.com/bytedance/sonic"

	"main/internal/gateway"
	"main/internal/schema"
	"main/pkg/websocket"
)

// pusher runs the optional market-data push thread (§4.6, thread (4)):
// a WebSocket connection to BTCC's price feed, translated into
// cb.OnTick calls for every subscribed ticker.
type pusher struct {
	cb             gateway.Callbacks
	marketToTicker map[string]schema.TickerIndex
	tickerToMarket map[schema.TickerIndex]string
	manager        *websocket.Manager
	consumer       *websocket.Consumer
	cancel         context.CancelFunc
}

func newPusher(markets map[schema.TickerIndex]string, cb gateway.Callbacks) *pusher {
	marketToTicker := make(map[string]schema.TickerIndex, len(markets))
	for idx, market := range markets {
		marketToTicker[market] = idx
	}
	return &pusher{
		cb:             cb,
		marketToTicker: marketToTicker,
		tickerToMarket: markets,
	}
}

func (p *pusher) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	p.cancel = cancel

	dialer := websocket.NewDialer(ctx, wsHost, "443", wsPath)
	consumer := websocket.NewConsumer(1024, websocket.OverflowDropOldest)
	p.consumer = consumer

	manager, err := websocket.NewManager(websocket.Config{
		Dialer:       dialer,
		Parser:       &topicParser{marketToTicker: p.marketToTicker},
		Encoder:      &controlEncoder{tickerToMarket: p.tickerToMarket},
		Fanout:       websocket.FanoutShared,
		MaxFrameSize: 64 << 10,
	})
	if err != nil {
		return
	}
	p.manager = manager

	for idx := range p.tickerToMarket {
		_ = manager.AddConsumer(websocket.TopicID(idx), consumer)
	}

	go p.consume(ctx)
	_ = manager.Run(ctx)
}

func (p *pusher) consume(ctx context.Context) {
	for {
		frame, ok := p.consumer.Next()
		if !ok {
			return
		}
		idx := schema.TickerIndex(frame.Topic)
		if price, ok := parseTickPrice(frame.Buf); ok {
			p.cb.OnTick(idx, schema.Price(price))
		}
		frame.Release()
		if ctx.Err() != nil {
			return
		}
	}
}

func (p *pusher) stop() {
	if p.cancel != nil {
		p.cancel()
	}
	if p.consumer != nil {
		p.consumer.Close()
	}
}

func parseTickPrice(payload []byte) (int64, bool) {
	node, err := sonic.Get(payload, "params", 1, "last")
	if err != nil {
		return 0, false
	}
	f, err := node.Float64()
	if err != nil {
		return 0, false
	}
	return int64(f), true
}

// topicParser extracts the market name from a BTCC state-update push
// message and maps it to the subscribed ticker index.
type topicParser struct {
	marketToTicker map[string]schema.TickerIndex
}

func (p *topicParser) ParseTopic(payload []byte) (websocket.TopicID, bool) {
	node, err := sonic.Get(payload, "params", 0)
	if err != nil {
		return 0, false
	}
	market, err := node.String()
	if err != nil {
		return 0, false
	}
	idx, ok := p.marketToTicker[market]
	if !ok {
		return 0, false
	}
	return websocket.TopicID(idx), true
}

// controlEncoder builds BTCC's state.subscribe / state.unsubscribe
// JSON-RPC control frames.
type controlEncoder struct {
	tickerToMarket map[schema.TickerIndex]string
}

func (e *controlEncoder) EncodeSubscribe(dst []byte, topic websocket.TopicID) (websocket.MessageType, []byte, error) {
	return e.encode(dst, topic, "state.subscribe")
}

func (e *controlEncoder) EncodeUnsubscribe(dst []byte, topic websocket.TopicID) (websocket.MessageType, []byte, error) {
	return e.encode(dst, topic, "state.unsubscribe")
}

func (e *controlEncoder) encode(dst []byte, topic websocket.TopicID, method string) (websocket.MessageType, []byte, error) {
	market := e.tickerToMarket[schema.TickerIndex(topic)]
	msg := map[string]any{
		"method": method,
		"params": []string{market},
		"id":     uint32(topic),
	}
	b, err := sonic.ConfigFastest.Marshal(msg)
	if err != nil {
		return 0, nil, err
	}
	return websocket.MessageText, append(dst, b...), nil
}
