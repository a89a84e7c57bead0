package store

import (
	"testing"
	"time"
)

func TestPublishNoSubscribersReturnsZero(t *testing.T) {
	s := New()
	defer s.Close()

	if n := s.Publish("nobody", []byte("x")); n != 0 {
		t.Fatalf("got %d, want 0", n)
	}
}

func TestSubscribePublishDelivers(t *testing.T) {
	s := New()
	defer s.Close()

	sub := s.Subscribe("hello")
	n := s.Publish("hello", []byte("world"))
	if n != 1 {
		t.Fatalf("got %d receivers, want 1", n)
	}

	select {
	case msg := <-sub.C():
		if string(msg) != "world" {
			t.Fatalf("got %q", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestPublishOrderPreserved(t *testing.T) {
	s := New()
	defer s.Close()

	sub := s.Subscribe("hello")
	s.Publish("hello", []byte("m1"))
	s.Publish("hello", []byte("m2"))
	s.Publish("hello", []byte("m3"))

	want := []string{"m1", "m2", "m3"}
	for _, w := range want {
		select {
		case msg := <-sub.C():
			if string(msg) != w {
				t.Fatalf("got %q, want %q", msg, w)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out")
		}
	}
}

func TestUnsubscribeRemovesReceiverAndReportsCount(t *testing.T) {
	s := New()
	defer s.Close()

	a := s.Subscribe("hello")
	b := s.Subscribe("hello")

	remaining := s.Unsubscribe(a)
	if remaining != 1 {
		t.Fatalf("got %d, want 1", remaining)
	}

	n := s.Publish("hello", []byte("x"))
	if n != 1 {
		t.Fatalf("got %d receivers, want 1", n)
	}

	select {
	case <-a.C():
		t.Fatal("unsubscribed receiver must not get the message")
	default:
	}

	select {
	case msg := <-b.C():
		if string(msg) != "x" {
			t.Fatalf("got %q", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}

func TestLaggingSubscriberDropsSilently(t *testing.T) {
	s := New()
	defer s.Close()

	sub := s.Subscribe("hello")
	for i := 0; i < messageBufferSize+10; i++ {
		s.Publish("hello", []byte("x"))
	}
	// Must not deadlock or error; the publisher simply drops overflow.
	if n := len(sub.c); n != messageBufferSize {
		t.Fatalf("got buffered %d, want %d", n, messageBufferSize)
	}
}
