package cmdchannel

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"main/internal/codec"
)

// PubSubChannel is the fallback transport (§4.1): a pub/sub topic
// derived from account_id, carrying the identical command payload the
// ring buffer would carry. Used when key_of_cmd_queue is 0 (§6).
type PubSubChannel struct {
	client *redis.Client
	sub    *redis.PubSub
	ch     <-chan *redis.Message
}

// TopicForAccount derives the pub/sub topic name from an account id.
func TopicForAccount(accountID string) string {
	return fmt.Sprintf("trading-engine.cmd.%s", accountID)
}

// OpenPubSub subscribes to the command topic for accountID.
func OpenPubSub(ctx context.Context, addr, accountID string) (*PubSubChannel, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	sub := client.Subscribe(ctx, TopicForAccount(accountID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		_ = client.Close()
		return nil, err
	}
	return &PubSubChannel{client: client, sub: sub, ch: sub.Channel()}, nil
}

// Recv decodes the next command message, or returns a malformed-record
// error for a wrong-magic/unknown-type/too-short payload.
func (p *PubSubChannel) Recv(ctx context.Context) (codec.Command, error) {
	select {
	case <-ctx.Done():
		return codec.Command{}, ctx.Err()
	case msg, ok := <-p.ch:
		if !ok {
			return codec.Command{}, fmt.Errorf("cmdchannel: pub/sub subscription closed")
		}
		raw := []byte(msg.Payload)
		magic, ok := codec.Magic(raw)
		if !ok || magic != codec.TraderCmdMagic {
			return codec.Command{}, ErrMalformedRecord
		}
		cmd, ok := codec.DecodeCommand(raw)
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
}

// Close unsubscribes and releases the Redis connection.
func (p *PubSubChannel) Close() error {
	err := p.sub.Close()
	if cerr := p.client.Close(); err == nil {
		err = cerr
	}
	return err
}

// Publish encodes and publishes a command to the account's topic; used
// by producers (strategies), not by the engine itself.
func Publish(ctx context.Context, client *redis.Client, accountID string, cmd codec.Command) error {
	frame := codec.EncodeCommand(make([]byte, 0, codec.CommandFrameSize), cmd)
	return client.Publish(ctx, TopicForAccount(accountID), frame).Err()
}
