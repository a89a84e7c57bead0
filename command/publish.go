package command

import (
	"github.com/coregx/kvstore/resp"
	"github.com/coregx/kvstore/store"
)

// Publish is the PUBLISH command: broadcast a message to a channel.
type Publish struct {
	Channel string
	Message []byte
}

func (c *Publish) Name() string { return "publish" }

func parsePublish(p *resp.Parser) (Command, error) {
	channel, err := p.NextString()
	if err != nil {
		return nil, err
	}
	message, err := p.NextBytes()
	if err != nil {
		return nil, err
	}
	return &Publish{Channel: channel, Message: message}, nil
}

// Apply broadcasts Message to Channel's subscribers and replies with the
// channel's subscriber count (see store.Store.Publish).
func (c *Publish) Apply(db *store.Store) resp.Frame {
	n := db.Publish(c.Channel, c.Message)
	return resp.Integer(n)
}

func (c *Publish) ToFrame() resp.Frame {
	return resp.Array([]resp.Frame{
		resp.BulkString("publish"),
		resp.BulkString(c.Channel),
		resp.Bulk(c.Message),
	})
}
