package client_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/coregx/kvstore/client"
	"github.com/coregx/kvstore/server"
	"github.com/coregx/kvstore/store"
)

func startServer(t *testing.T) string {
	t.Helper()
	db := store.New()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ln, err := server.Listen("127.0.0.1:0", db, log)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ln.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		db.Close()
	})
	return ln.Addr().String()
}

func TestClientGetSetPing(t *testing.T) {
	addr := startServer(t)
	c, err := client.Dial(addr)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Set("hello", []byte("world")); err != nil {
		t.Fatal(err)
	}
	value, ok, err := c.Get("hello")
	if err != nil || !ok || string(value) != "world" {
		t.Fatalf("got %q, %v, %v", value, ok, err)
	}

	pong, err := c.Ping(nil)
	if err != nil || string(pong) != "PONG" {
		t.Fatalf("got %q, %v", pong, err)
	}

	echo, err := c.Ping([]byte("hi"))
	if err != nil || string(echo) != "hi" {
		t.Fatalf("got %q, %v", echo, err)
	}
}

func TestClientGetMissing(t *testing.T) {
	addr := startServer(t)
	c, err := client.Dial(addr)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	_, ok, err := c.Get("nope")
	if err != nil || ok {
		t.Fatalf("got ok=%v err=%v, want ok=false", ok, err)
	}
}

func TestClientSetExpires(t *testing.T) {
	addr := startServer(t)
	c, err := client.Dial(addr)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.SetExpires("k", []byte("v"), 100*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	_, ok, err := c.Get("k")
	if err != nil || ok {
		t.Fatalf("expected expired key, got ok=%v err=%v", ok, err)
	}
}

func TestClientPublishSubscribe(t *testing.T) {
	addr := startServer(t)

	subConn, err := client.Dial(addr)
	if err != nil {
		t.Fatal(err)
	}
	defer subConn.Close()

	sub, err := subConn.Subscribe([]string{"news"})
	if err != nil {
		t.Fatal(err)
	}
	if got := sub.GetSubscribed(); len(got) != 1 || got[0] != "news" {
		t.Fatalf("got %v", got)
	}

	pubConn, err := client.Dial(addr)
	if err != nil {
		t.Fatal(err)
	}
	defer pubConn.Close()

	n, err := pubConn.Publish("news", []byte("hello"))
	if err != nil || n != 1 {
		t.Fatalf("got %d, %v", n, err)
	}

	ch, payload, err := sub.NextMessage()
	if err != nil || ch != "news" || string(payload) != "hello" {
		t.Fatalf("got %q %q %v", ch, payload, err)
	}
}

func TestClientSubscriberUnsubscribe(t *testing.T) {
	addr := startServer(t)
	c, err := client.Dial(addr)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	sub, err := c.Subscribe([]string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	if err := sub.Unsubscribe(nil); err != nil {
		t.Fatal(err)
	}
	if got := sub.GetSubscribed(); len(got) != 0 {
		t.Fatalf("got %v, want empty", got)
	}
}
