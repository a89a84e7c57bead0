package command

import (
	"github.com/coregx/kvstore/resp"
	"github.com/coregx/kvstore/store"
)

// Get is the GET command: look up one key.
type Get struct {
	Key string
}

func (c *Get) Name() string { return "get" }

func parseGet(p *resp.Parser) (Command, error) {
	key, err := p.NextString()
	if err != nil {
		return nil, err
	}
	return &Get{Key: key}, nil
}

// Apply replies with the stored value, or Null if the key is absent or has
// expired.
func (c *Get) Apply(db *store.Store) resp.Frame {
	value, ok := db.Get(c.Key)
	if !ok {
		return resp.Null()
	}
	return resp.Bulk(value)
}

// ToFrame renders the command for the wire (client side).
func (c *Get) ToFrame() resp.Frame {
	return resp.Array([]resp.Frame{
		resp.BulkString("get"),
		resp.BulkString(c.Key),
	})
}
