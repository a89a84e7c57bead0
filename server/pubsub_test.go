package server

import (
	"testing"

	"github.com/coregx/kvstore/resp"
)

func mustStr(t *testing.T, f resp.Frame) string {
	t.Helper()
	b, ok := f.BulkBytes()
	if ok {
		return string(b)
	}
	s, ok := f.Str()
	if !ok {
		t.Fatalf("frame %v has no string form", f)
	}
	return s
}

func TestSubscribeEmitsAckPerChannel(t *testing.T) {
	ln, _, stop := startTestListener(t)
	defer stop()

	c := dialTestClient(t, ln.Addr())
	c.send(resp.Array([]resp.Frame{
		resp.BulkString("subscribe"), resp.BulkString("a"), resp.BulkString("b"),
	}))

	ack1 := c.recv()
	elems1, _ := ack1.Elems()
	if mustStr(t, elems1[0]) != "subscribe" || mustStr(t, elems1[1]) != "a" {
		t.Fatalf("got %v", ack1)
	}
	n1, _ := elems1[2].Int()
	if n1 != 1 {
		t.Fatalf("got count %d, want 1", n1)
	}

	ack2 := c.recv()
	elems2, _ := ack2.Elems()
	if mustStr(t, elems2[0]) != "subscribe" || mustStr(t, elems2[1]) != "b" {
		t.Fatalf("got %v", ack2)
	}
	n2, _ := elems2[2].Int()
	if n2 != 2 {
		t.Fatalf("got count %d, want 2", n2)
	}
}

func TestPublishedMessageDeliveredToSubscriber(t *testing.T) {
	ln, db, stop := startTestListener(t)
	defer stop()

	c := dialTestClient(t, ln.Addr())
	c.send(resp.Array([]resp.Frame{resp.BulkString("subscribe"), resp.BulkString("news")}))
	c.recv() // ack

	// The subscribe ack is only written after store registration
	// completes, so by the time recv() above returns, publishing directly
	// against the store (bypassing a second connection) is guaranteed to
	// reach this subscriber.
	if n := db.Publish("news", []byte("probe")); n != 1 {
		t.Fatalf("got %d receivers, want 1", n)
	}

	msg := c.recv()
	elems, _ := msg.Elems()
	if mustStr(t, elems[0]) != "message" || mustStr(t, elems[1]) != "news" {
		t.Fatalf("got %v", msg)
	}
}

func TestUnsubscribeAllEmitsOneFramePerChannel(t *testing.T) {
	ln, _, stop := startTestListener(t)
	defer stop()

	c := dialTestClient(t, ln.Addr())
	c.send(resp.Array([]resp.Frame{
		resp.BulkString("subscribe"), resp.BulkString("a"), resp.BulkString("b"),
	}))
	c.recv()
	c.recv()

	c.send(resp.Array([]resp.Frame{resp.BulkString("unsubscribe")}))

	first := c.recv()
	second := c.recv()

	elemsFirst, _ := first.Elems()
	elemsSecond, _ := second.Elems()
	if mustStr(t, elemsFirst[1]) != "a" || mustStr(t, elemsSecond[1]) != "b" {
		t.Fatalf("got %v then %v, want a then b (ascending order)", first, second)
	}
}

func TestUnknownCommandInPubSubStateIsUnknownReply(t *testing.T) {
	ln, _, stop := startTestListener(t)
	defer stop()

	c := dialTestClient(t, ln.Addr())
	c.send(resp.Array([]resp.Frame{resp.BulkString("subscribe"), resp.BulkString("a")}))
	c.recv() // ack

	c.send(resp.Array([]resp.Frame{resp.BulkString("get"), resp.BulkString("k")}))
	reply := c.recv()
	if reply.Kind() != resp.KindError {
		t.Fatalf("got %v, want error", reply)
	}
}
