package command

import (
	"github.com/coregx/kvstore/resp"
	"github.com/coregx/kvstore/store"
)

// Unsubscribe is the UNSUBSCRIBE command. Outside pub/sub state it is
// unsupported (Apply below); inside pub/sub state the connection handler
// interprets it directly rather than through Apply, since removing
// channels means consulting the handler's own subscriptions map — an
// empty Channels list there means "all currently subscribed".
type Unsubscribe struct {
	Channels []string
}

func (c *Unsubscribe) Name() string { return "unsubscribe" }

func parseUnsubscribe(p *resp.Parser) (Command, error) {
	var channels []string
	for p.Remaining() > 0 {
		ch, err := p.NextString()
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return &Unsubscribe{Channels: channels}, nil
}

// Apply handles the top-level case: UNSUBSCRIBE issued in Command state,
// outside any pub/sub state machine, is unsupported.
func (c *Unsubscribe) Apply(db *store.Store) resp.Frame {
	return resp.Err("ERR Unsubscribe is unsupported in this context")
}

func (c *Unsubscribe) ToFrame() resp.Frame {
	elems := make([]resp.Frame, 0, len(c.Channels)+1)
	elems = append(elems, resp.BulkString("unsubscribe"))
	for _, ch := range c.Channels {
		elems = append(elems, resp.BulkString(ch))
	}
	return resp.Array(elems)
}
