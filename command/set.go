package command

import (
	"strconv"
	"strings"
	"time"

	"github.com/coregx/kvstore/resp"
	"github.com/coregx/kvstore/store"
)

// Set is the SET command: store value at key, with an optional TTL given
// as either EX seconds or PX milliseconds.
type Set struct {
	Key   string
	Value []byte
	TTL   *time.Duration
}

func (c *Set) Name() string { return "set" }

func parseSet(p *resp.Parser) (Command, error) {
	key, err := p.NextString()
	if err != nil {
		return nil, err
	}
	value, err := p.NextBytes()
	if err != nil {
		return nil, err
	}

	set := &Set{Key: key, Value: value}
	if p.Remaining() == 0 {
		return set, nil
	}

	mode, err := p.NextString()
	if err != nil {
		return nil, err
	}
	n, err := p.NextInt()
	if err != nil {
		return nil, err
	}

	var ttl time.Duration
	switch strings.ToLower(mode) {
	case "ex":
		ttl = time.Duration(n) * time.Second
	case "px":
		ttl = time.Duration(n) * time.Millisecond
	default:
		return nil, resp.ErrProtocol
	}
	set.TTL = &ttl
	return set, nil
}

// Apply stores the value and always replies Simple("OK").
func (c *Set) Apply(db *store.Store) resp.Frame {
	db.Set(c.Key, c.Value, c.TTL)
	return resp.Simple("OK")
}

// ToFrame renders the command for the wire. A TTL is always rendered as PX
// in milliseconds, regardless of whether it was originally set via EX,
// per the command model's wire-rendering rule.
func (c *Set) ToFrame() resp.Frame {
	elems := []resp.Frame{
		resp.BulkString("set"),
		resp.BulkString(c.Key),
		resp.Bulk(c.Value),
	}
	if c.TTL != nil {
		ms := strconv.FormatInt(c.TTL.Milliseconds(), 10)
		elems = append(elems, resp.BulkString("px"), resp.BulkString(ms))
	}
	return resp.Array(elems)
}
