package command

import "github.com/coregx/kvstore/resp"

// Subscribe is the SUBSCRIBE command: enter (or extend) the per-connection
// pub/sub state machine on one or more channels. It deliberately has no
// Apply method — a server driving the connection handler must type-switch
// for it explicitly, since "applying" it means taking over the
// connection's read loop rather than producing one reply frame.
type Subscribe struct {
	Channels []string
}

func (c *Subscribe) Name() string { return "subscribe" }

func parseSubscribe(p *resp.Parser) (Command, error) {
	var channels []string
	for p.Remaining() > 0 {
		ch, err := p.NextString()
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	if len(channels) == 0 {
		return nil, resp.ErrProtocol
	}
	return &Subscribe{Channels: channels}, nil
}

func (c *Subscribe) ToFrame() resp.Frame {
	elems := make([]resp.Frame, 0, len(c.Channels)+1)
	elems = append(elems, resp.BulkString("subscribe"))
	for _, ch := range c.Channels {
		elems = append(elems, resp.BulkString(ch))
	}
	return resp.Array(elems)
}
