// Package server implements the per-connection handler and the listening
// accept loop.
package server

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"net"

	"github.com/coregx/kvstore/command"
	"github.com/coregx/kvstore/resp"
	"github.com/coregx/kvstore/shutdown"
	"github.com/coregx/kvstore/store"
)

// errShutdown is a private sentinel used internally to unwind the command
// loop when shutdown is observed while waiting for the next frame; it
// never escapes this package.
var errShutdown = errors.New("server: shutdown observed")

// Handler drives one client connection through the Command state and, if
// the client issues SUBSCRIBE, the Pub/Sub state. A Handler is
// single-use: construct one per accepted connection and call Run once.
type Handler struct {
	conn     net.Conn
	reader   *bufio.Reader
	writer   *bufio.Writer
	db       *store.Store
	shutdown *shutdown.Receiver
	log      *slog.Logger
}

// NewHandler wires a Handler to an accepted connection, the shared store,
// and a shutdown observer. log should already carry connection-identifying
// fields (see Listener, which attaches a uuid-derived "conn" key).
func NewHandler(conn net.Conn, db *store.Store, sd *shutdown.Receiver, log *slog.Logger) *Handler {
	return &Handler{
		conn:     conn,
		reader:   bufio.NewReader(conn),
		writer:   bufio.NewWriter(conn),
		db:       db,
		shutdown: sd,
		log:      log,
	}
}

// Run executes the connection's full lifetime: Command state until EOF,
// shutdown, a read error, or a SUBSCRIBE transitions it into Pub/Sub
// state, from which it runs until the client disconnects or shutdown is
// observed. Run always closes the underlying connection before returning.
func (h *Handler) Run() {
	defer h.conn.Close()

	for {
		frame, err := h.nextFrame()
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				h.log.Debug("connection closed by peer")
			case errors.Is(err, errShutdown):
				h.log.Debug("connection exiting on shutdown")
			default:
				h.log.Warn("frame read failed", "error", err)
			}
			return
		}

		cmd, err := command.FromFrame(frame)
		if err != nil {
			h.writeReply(resp.Err("ERR " + err.Error()))
			continue
		}
		h.log.Debug("applying command", "cmd", cmd.Name())

		if sub, ok := cmd.(*command.Subscribe); ok {
			h.runPubSub(sub)
			return
		}

		applier, ok := cmd.(command.Applier)
		if !ok {
			// Only Subscribe lacks Apply; every other dispatch entry
			// implements Applier, so this is unreachable in practice.
			h.writeReply(resp.Err("ERR command not applicable in this context"))
			continue
		}
		h.writeReply(applier.Apply(h.db))
	}
}

// frameResult is what a background ReadFrame call reports back.
type frameResult struct {
	frame resp.Frame
	err   error
}

// readFrameAsync starts reading the next frame in its own goroutine and
// returns a channel that receives exactly one result. ReadFrame blocks on
// network I/O, so running it off-goroutine is what lets the caller select
// on it alongside shutdown (Command state) or alongside shutdown and
// pending pub/sub messages (Pub/Sub state, see runPubSub) — a blocking
// read has no direct cancellation hook of its own in Go.
func (h *Handler) readFrameAsync() <-chan frameResult {
	ch := make(chan frameResult, 1)
	go func() {
		f, err := resp.ReadFrame(h.reader, nil)
		ch <- frameResult{f, err}
	}()
	return ch
}

// nextFrame waits for either the next complete inbound frame or
// shutdown. Observing shutdown here closes the connection to unblock the
// background goroutine's pending read rather than leaving it running
// forever.
func (h *Handler) nextFrame() (resp.Frame, error) {
	pending := h.readFrameAsync()
	select {
	case r := <-pending:
		return r.frame, r.err
	case <-h.shutdown.Done():
		h.conn.Close()
		<-pending // drain the goroutine so it doesn't leak
		return resp.Frame{}, errShutdown
	}
}

func (h *Handler) writeReply(f resp.Frame) {
	if err := resp.WriteFrame(h.writer, f); err != nil {
		h.log.Warn("write failed", "error", err)
		return
	}
	if err := h.writer.Flush(); err != nil {
		h.log.Warn("flush failed", "error", err)
	}
}
