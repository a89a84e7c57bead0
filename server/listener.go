package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coregx/kvstore/shutdown"
	"github.com/coregx/kvstore/store"
)

// MaxConnections is the permit semaphore's capacity.
const MaxConnections = 250

// maxBackoff bounds the accept-retry backoff; a failure that would need a
// longer sleep is surfaced as fatal instead.
const maxBackoff = 64 * time.Second

// Listener owns the TCP socket, the shared store, the connection permit
// semaphore, and the shutdown signal every handler observes.
type Listener struct {
	ln       net.Listener
	db       *store.Store
	notifier *shutdown.Notifier
	sem      chan struct{}
	wg       sync.WaitGroup
	log      *slog.Logger
}

// Listen opens addr for TCP and returns a Listener ready to Run.
// SO_REUSEADDR is set via controlReuseAddr so a restarted server does not
// stall in TIME_WAIT.
func Listen(addr string, db *store.Store, log *slog.Logger) (*Listener, error) {
	lc := net.ListenConfig{Control: controlReuseAddr}
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("server: listen %s: %w", addr, err)
	}
	return &Listener{
		ln:       ln,
		db:       db,
		notifier: shutdown.New(),
		sem:      make(chan struct{}, MaxConnections),
		log:      log,
	}, nil
}

// Addr reports the bound address, useful when addr was given as ":0".
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Run drives the accept loop until ctx is canceled. On cancellation it
// stops accepting, signals shutdown to every in-flight handler, and
// waits for all of them to finish before returning, using a
// sync.WaitGroup to track the outstanding handlers.
func (l *Listener) Run(ctx context.Context) error {
	stopped := make(chan struct{})
	go func() {
		<-ctx.Done()
		l.notifier.Signal()
		l.ln.Close()
		close(stopped)
	}()

	failures := 0
	for {
		select {
		case l.sem <- struct{}{}:
		case <-ctx.Done():
			<-stopped
			l.wg.Wait()
			return nil
		}

		conn, err := l.ln.Accept()
		if err != nil {
			<-l.sem
			select {
			case <-ctx.Done():
				<-stopped
				l.wg.Wait()
				return nil
			default:
			}

			wait := time.Duration(1<<uint(failures)) * time.Second
			if wait > maxBackoff {
				return fmt.Errorf("server: accept failed past backoff limit: %w", err)
			}
			l.log.Warn("accept failed, retrying", "backoff", wait, "error", err)
			time.Sleep(wait)
			failures++
			continue
		}
		failures = 0

		id := uuid.NewString()
		connLog := l.log.With("conn", id)
		l.wg.Add(1)
		go l.serve(conn, connLog)
	}
}

func (l *Listener) serve(conn net.Conn, log *slog.Logger) {
	defer l.wg.Done()
	defer func() { <-l.sem }()
	defer func() {
		if r := recover(); r != nil {
			log.Error("connection handler panicked", "panic", r)
		}
	}()

	log.Debug("connection accepted")
	NewHandler(conn, l.db, l.notifier.Subscribe(), log).Run()
}
