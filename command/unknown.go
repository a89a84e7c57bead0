package command

import (
	"fmt"

	"github.com/coregx/kvstore/resp"
	"github.com/coregx/kvstore/store"
)

// Unknown is an unrecognized command name. It parses successfully rather
// than failing FromFrame, so the connection stays open and the caller
// gets an ordinary error reply instead of a torn-down connection.
type Unknown struct {
	CmdName string
}

func (c *Unknown) Name() string { return c.CmdName }

func (c *Unknown) Apply(db *store.Store) resp.Frame {
	return resp.Err(fmt.Sprintf("ERR unknown command '%s'", c.CmdName))
}
