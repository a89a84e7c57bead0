package command

import (
	"github.com/coregx/kvstore/resp"
	"github.com/coregx/kvstore/store"
)

// Ping is the PING command, with an optional echo payload.
type Ping struct {
	Msg    []byte
	HasMsg bool
}

func (c *Ping) Name() string { return "ping" }

func parsePing(p *resp.Parser) (Command, error) {
	if p.Remaining() == 0 {
		return &Ping{}, nil
	}
	msg, err := p.NextBytes()
	if err != nil {
		return nil, err
	}
	return &Ping{Msg: msg, HasMsg: true}, nil
}

// Apply replies PONG, or echoes Msg back as a bulk reply if present.
func (c *Ping) Apply(db *store.Store) resp.Frame {
	if !c.HasMsg {
		return resp.Simple("PONG")
	}
	return resp.Bulk(c.Msg)
}

func (c *Ping) ToFrame() resp.Frame {
	elems := []resp.Frame{resp.BulkString("ping")}
	if c.HasMsg {
		elems = append(elems, resp.Bulk(c.Msg))
	}
	return resp.Array(elems)
}
