package server

import (
	"errors"
	"io"
	"sort"

	"github.com/coregx/kvstore/command"
	"github.com/coregx/kvstore/resp"
	"github.com/coregx/kvstore/store"
)

// pubSubMessage is one payload delivered on a subscribed channel, tagged
// with its channel name so the multiplexing select in runPubSub can write
// a ["message", channel, payload] frame without consulting the store
// again.
type pubSubMessage struct {
	channel string
	payload []byte
}

// subscription bundles a store.Subscription with the forwarder goroutine's
// stop signal. Go has no cooperative select-cancel equivalent to the
// original's stream combinator, so each channel gets its own forwarder
// goroutine fanning into one shared channel, stopped via done on
// unsubscribe.
type subscription struct {
	sub  *store.Subscription
	done chan struct{}
}

// runPubSub enters the Pub/Sub state for an already-issued Subscribe
// command and runs it until the client disconnects, shutdown is
// observed, or a read error occurs. It multiplexes three sources: the
// next pub/sub message, the next inbound frame, and shutdown.
func (h *Handler) runPubSub(initial *command.Subscribe) {
	subs := make(map[string]*subscription)
	messages := make(chan pubSubMessage, 1024)

	h.addSubscriptions(subs, messages, initial.Channels)

	pending := h.readFrameAsync()
	for {
		select {
		case msg := <-messages:
			h.writeReply(resp.Array([]resp.Frame{
				resp.BulkString("message"),
				resp.BulkString(msg.channel),
				resp.Bulk(msg.payload),
			}))

		case r := <-pending:
			if r.err != nil {
				h.stopAll(subs)
				switch {
				case errors.Is(r.err, io.EOF):
					h.log.Debug("connection closed by peer while subscribed")
				default:
					h.log.Warn("frame read failed while subscribed", "error", r.err)
				}
				return
			}

			cmd, err := command.FromFrame(r.frame)
			if err != nil {
				h.writeReply(resp.Err("ERR " + err.Error()))
			} else {
				h.log.Debug("applying command while subscribed", "cmd", cmd.Name())
				switch c := cmd.(type) {
				case *command.Subscribe:
					h.addSubscriptions(subs, messages, c.Channels)
				case *command.Unsubscribe:
					h.removeSubscriptions(subs, c.Channels)
				default:
					h.writeReply(resp.Err("ERR unknown command '" + cmd.Name() + "'"))
				}
			}
			pending = h.readFrameAsync()

		case <-h.shutdown.Done():
			h.conn.Close()
			<-pending
			h.stopAll(subs)
			h.log.Debug("connection exiting on shutdown while subscribed")
			return
		}
	}
}

// addSubscriptions subscribes to each channel not already subscribed,
// starts its forwarder goroutine, and emits a ["subscribe", channel,
// count] ack frame per channel in the order given, where count is the
// connection's own running total of subscribed channels.
func (h *Handler) addSubscriptions(subs map[string]*subscription, messages chan pubSubMessage, channels []string) {
	for _, ch := range channels {
		if _, already := subs[ch]; already {
			continue
		}
		sub := h.db.Subscribe(ch)
		st := &subscription{sub: sub, done: make(chan struct{})}
		subs[ch] = st
		go forwardMessages(ch, st, messages)

		h.writeReply(resp.Array([]resp.Frame{
			resp.BulkString("subscribe"),
			resp.BulkString(ch),
			resp.Integer(uint64(len(subs))),
		}))
	}
}

// removeSubscriptions removes the named channels, or every currently
// subscribed channel (in ascending name order) if channels is empty,
// emitting one ["unsubscribe", channel, remaining] frame per removal.
func (h *Handler) removeSubscriptions(subs map[string]*subscription, channels []string) {
	if len(channels) == 0 {
		channels = make([]string, 0, len(subs))
		for ch := range subs {
			channels = append(channels, ch)
		}
		sort.Strings(channels)
	}

	for _, ch := range channels {
		st, ok := subs[ch]
		if !ok {
			continue
		}
		close(st.done)
		h.db.Unsubscribe(st.sub)
		delete(subs, ch)

		h.writeReply(resp.Array([]resp.Frame{
			resp.BulkString("unsubscribe"),
			resp.BulkString(ch),
			resp.Integer(uint64(len(subs))),
		}))
	}
}

func (h *Handler) stopAll(subs map[string]*subscription) {
	for ch, st := range subs {
		close(st.done)
		h.db.Unsubscribe(st.sub)
		delete(subs, ch)
	}
}

// forwardMessages bridges a store.Subscription's channel into the shared
// messages channel, tagging each payload with its channel name, until
// st.done closes.
func forwardMessages(channel string, st *subscription, messages chan pubSubMessage) {
	for {
		select {
		case payload, ok := <-st.sub.C():
			if !ok {
				return
			}
			select {
			case messages <- pubSubMessage{channel: channel, payload: payload}:
			case <-st.done:
				return
			}
		case <-st.done:
			return
		}
	}
}
