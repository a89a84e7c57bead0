// Package command implements the typed command model: parsing a Frame
// into a typed Command, applying it against the store, and rendering a
// Command back into a Frame for the client side.
package command

import (
	"strings"

	"github.com/coregx/kvstore/resp"
	"github.com/coregx/kvstore/store"
)

// Command is implemented by every parsed command variant. Name is used
// for logging and to build the "unknown command" error message.
type Command interface {
	Name() string
}

// Applier is implemented by every command that can be applied against the
// store directly, producing exactly one response Frame. Subscribe is
// deliberately excluded: applying it means entering the per-connection
// pub/sub state machine, which the server package drives explicitly
// rather than through this uniform one-shot interface.
type Applier interface {
	Command
	Apply(db *store.Store) resp.Frame
}

// parseFunc parses a command's arguments from the cursor positioned just
// after the command name.
type parseFunc func(p *resp.Parser) (Command, error)

// dispatch is a table-driven lookup, a stand-in for the sum-type match a
// language with closed enums would use here: one entry per known command
// name, keyed lowercase.
var dispatch = map[string]parseFunc{
	"get":         parseGet,
	"set":         parseSet,
	"publish":     parsePublish,
	"subscribe":   parseSubscribe,
	"unsubscribe": parseUnsubscribe,
	"ping":        parsePing,
}

// FromFrame parses a Command out of f, which must be an Array frame whose
// first element is the command name. An unrecognized name is not an
// error: it parses successfully as Unknown, to be answered with an Error
// reply rather than terminating the connection.
func FromFrame(f resp.Frame) (Command, error) {
	p, err := resp.NewParser(f)
	if err != nil {
		return nil, err
	}

	name, err := p.NextString()
	if err != nil {
		return nil, err
	}
	lower := strings.ToLower(name)

	parse, ok := dispatch[lower]
	if !ok {
		return &Unknown{CmdName: lower}, nil
	}

	cmd, err := parse(p)
	if err != nil {
		return nil, err
	}
	if err := p.Finish(); err != nil {
		return nil, err
	}
	return cmd, nil
}
