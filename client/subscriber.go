package client

import (
	"fmt"
	"sort"

	"github.com/coregx/kvstore/resp"
)

// Subscriber is the client-side handle on a connection that has entered
// the server's Pub/Sub state. Once created, the underlying Client must
// only be driven through Subscriber.
type Subscriber struct {
	c          *Client
	subscribed map[string]struct{}
}

// Subscribe writes one Subscribe frame for channels and yields a
// Subscriber, after reading exactly len(channels) ["subscribe", channel,
// count] acknowledgements and validating each names the channel it
// corresponds to.
func (c *Client) Subscribe(channels []string) (*Subscriber, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("client: subscribe requires at least one channel")
	}
	s := &Subscriber{c: c, subscribed: make(map[string]struct{})}
	if err := s.sendSubscribe(channels); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Subscriber) sendSubscribe(channels []string) error {
	elems := make([]resp.Frame, 0, len(channels)+1)
	elems = append(elems, resp.BulkString("subscribe"))
	for _, ch := range channels {
		elems = append(elems, resp.BulkString(ch))
	}
	if err := resp.WriteFrame(s.c.writer, resp.Array(elems)); err != nil {
		return fmt.Errorf("client: write subscribe: %w", err)
	}
	if err := s.c.writer.Flush(); err != nil {
		return fmt.Errorf("client: flush subscribe: %w", err)
	}

	for _, want := range channels {
		ack, err := s.c.readFrameDirect()
		if err != nil {
			return err
		}
		elems, ok := ack.Elems()
		if !ok || len(elems) != 3 {
			return fmt.Errorf("%w: subscribe ack %v", ErrUnexpectedReply, ack)
		}
		kind, _ := elems[0].BulkBytes()
		ch, _ := elems[1].BulkBytes()
		if string(kind) != "subscribe" || string(ch) != want {
			return fmt.Errorf("%w: subscribe ack for %q, want %q", ErrUnexpectedReply, ch, want)
		}
		s.subscribed[want] = struct{}{}
	}
	return nil
}

// Subscribe adds more channels to an already-open Subscriber.
func (s *Subscriber) Subscribe(channels []string) error {
	return s.sendSubscribe(channels)
}

// Unsubscribe removes the given channels, or every currently subscribed
// channel (in ascending name order) if channels is empty, reading one
// acknowledgement per removal.
func (s *Subscriber) Unsubscribe(channels []string) error {
	if len(channels) == 0 {
		channels = s.GetSubscribed()
	}

	elems := make([]resp.Frame, 0, len(channels)+1)
	elems = append(elems, resp.BulkString("unsubscribe"))
	for _, ch := range channels {
		elems = append(elems, resp.BulkString(ch))
	}
	if err := resp.WriteFrame(s.c.writer, resp.Array(elems)); err != nil {
		return fmt.Errorf("client: write unsubscribe: %w", err)
	}
	if err := s.c.writer.Flush(); err != nil {
		return fmt.Errorf("client: flush unsubscribe: %w", err)
	}

	for _, want := range channels {
		ack, err := s.c.readFrameDirect()
		if err != nil {
			return err
		}
		elems, ok := ack.Elems()
		if !ok || len(elems) != 3 {
			return fmt.Errorf("%w: unsubscribe ack %v", ErrUnexpectedReply, ack)
		}
		kind, _ := elems[0].BulkBytes()
		ch, _ := elems[1].BulkBytes()
		if string(kind) != "unsubscribe" || string(ch) != want {
			return fmt.Errorf("%w: unsubscribe ack for %q, want %q", ErrUnexpectedReply, ch, want)
		}
		delete(s.subscribed, want)
	}
	return nil
}

// GetSubscribed returns the currently subscribed channels, sorted for
// determinism.
func (s *Subscriber) GetSubscribed() []string {
	out := make([]string, 0, len(s.subscribed))
	for ch := range s.subscribed {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}

// NextMessage blocks for the next published message on any subscribed
// channel and returns its channel name and payload.
func (s *Subscriber) NextMessage() (channel string, payload []byte, err error) {
	f, err := s.c.readFrameDirect()
	if err != nil {
		return "", nil, err
	}
	elems, ok := f.Elems()
	if !ok || len(elems) != 3 {
		return "", nil, fmt.Errorf("%w: message frame %v", ErrUnexpectedReply, f)
	}
	kind, _ := elems[0].BulkBytes()
	if string(kind) != "message" {
		return "", nil, fmt.Errorf("%w: expected message frame, got %v", ErrUnexpectedReply, f)
	}
	ch, _ := elems[1].BulkBytes()
	payload, _ = elems[2].BulkBytes()
	return string(ch), payload, nil
}
