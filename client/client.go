// Package client implements a TCP client library: connect, wrap the
// socket in the frame codec, and offer one method per command.
package client

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/coregx/kvstore/resp"
)

// ErrConnectionReset is returned when the server closes the connection
// (or the stream otherwise ends) while a response is expected.
var ErrConnectionReset = errors.New("client: connection reset")

// ErrUnexpectedReply is returned when a response frame's kind does not
// match what the command promises.
var ErrUnexpectedReply = errors.New("client: unexpected reply")

// Client is a single connection to the server, wrapping the socket in the
// RESP codec. It is not safe for concurrent use by multiple goroutines,
// mirroring the server's "all writes on one connection are serialized"
// rule — a caller wanting concurrency should open multiple Clients.
type Client struct {
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer
}

// Dial connects to addr (host:port) and returns a ready Client.
func Dial(addr string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", addr, err)
	}
	return &Client{
		conn:   conn,
		reader: bufio.NewReader(conn),
		writer: bufio.NewWriter(conn),
	}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }

// readFrameDirect reads one frame without writing a request first, used
// by Subscriber to read subscribe/unsubscribe acks and published
// messages that arrive unprompted.
func (c *Client) readFrameDirect() (resp.Frame, error) {
	f, err := resp.ReadFrame(c.reader, nil)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return resp.Frame{}, ErrConnectionReset
		}
		return resp.Frame{}, fmt.Errorf("client: read frame: %w", err)
	}
	return f, nil
}

func (c *Client) call(req resp.Frame) (resp.Frame, error) {
	if err := resp.WriteFrame(c.writer, req); err != nil {
		return resp.Frame{}, fmt.Errorf("client: write request: %w", err)
	}
	if err := c.writer.Flush(); err != nil {
		return resp.Frame{}, fmt.Errorf("client: flush request: %w", err)
	}
	reply, err := resp.ReadFrame(c.reader, nil)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return resp.Frame{}, ErrConnectionReset
		}
		return resp.Frame{}, fmt.Errorf("client: read reply: %w", err)
	}
	return reply, nil
}

// Get fetches the value stored at key. ok is false if the key is absent
// or has expired.
func (c *Client) Get(key string) (value []byte, ok bool, err error) {
	reply, err := c.call(resp.Array([]resp.Frame{resp.BulkString("get"), resp.BulkString(key)}))
	if err != nil {
		return nil, false, err
	}
	if reply.IsNull() {
		return nil, false, nil
	}
	if b, is := reply.BulkBytes(); is {
		return b, true, nil
	}
	if s, is := reply.Str(); is && reply.Kind() == resp.KindSimple {
		return []byte(s), true, nil
	}
	return nil, false, fmt.Errorf("%w: get reply kind %v", ErrUnexpectedReply, reply.Kind())
}

// Set stores value at key with no expiration.
func (c *Client) Set(key string, value []byte) error {
	return c.setFrame(resp.Array([]resp.Frame{
		resp.BulkString("set"), resp.BulkString(key), resp.Bulk(value),
	}))
}

// SetExpires stores value at key, expiring after ttl. ttl is always
// rendered on the wire as PX milliseconds, regardless of its Go
// duration's unit.
func (c *Client) SetExpires(key string, value []byte, ttl time.Duration) error {
	ms := fmt.Sprintf("%d", ttl.Milliseconds())
	return c.setFrame(resp.Array([]resp.Frame{
		resp.BulkString("set"), resp.BulkString(key), resp.Bulk(value),
		resp.BulkString("px"), resp.BulkString(ms),
	}))
}

func (c *Client) setFrame(req resp.Frame) error {
	reply, err := c.call(req)
	if err != nil {
		return err
	}
	if s, ok := reply.Str(); ok && reply.Kind() == resp.KindSimple && s == "OK" {
		return nil
	}
	return fmt.Errorf("%w: set reply %v", ErrUnexpectedReply, reply)
}

// Publish sends message to channel and reports the channel's subscriber
// count as returned by the server.
func (c *Client) Publish(channel string, message []byte) (uint64, error) {
	reply, err := c.call(resp.Array([]resp.Frame{
		resp.BulkString("publish"), resp.BulkString(channel), resp.Bulk(message),
	}))
	if err != nil {
		return 0, err
	}
	n, ok := reply.Int()
	if !ok {
		return 0, fmt.Errorf("%w: publish reply %v", ErrUnexpectedReply, reply)
	}
	return n, nil
}

// Ping round-trips an optional message. With no msg, the server replies
// PONG; Ping returns that literally as bytes.
func (c *Client) Ping(msg []byte) ([]byte, error) {
	elems := []resp.Frame{resp.BulkString("ping")}
	if msg != nil {
		elems = append(elems, resp.Bulk(msg))
	}
	reply, err := c.call(resp.Array(elems))
	if err != nil {
		return nil, err
	}
	if b, ok := reply.BulkBytes(); ok {
		return b, nil
	}
	if s, ok := reply.Str(); ok && reply.Kind() == resp.KindSimple {
		return []byte(s), nil
	}
	return nil, fmt.Errorf("%w: ping reply %v", ErrUnexpectedReply, reply)
}
