package resp

import (
	"bufio"
	"bytes"
	"io"
	"testing"
)

// encode is a test helper that writes f to a buffer and returns its bytes.
func encode(t *testing.T, f Frame) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	if err := WriteFrame(w, f); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	return buf.Bytes()
}

// decode is a test helper that reads exactly one frame from b.
func decode(t *testing.T, b []byte) (Frame, error) {
	t.Helper()
	r := bufio.NewReader(bytes.NewReader(b))
	return ReadFrame(r, nil)
}

func TestRoundTrip(t *testing.T) {
	cases := []Frame{
		Simple("OK"),
		Simple("PONG"),
		Err("ERR unknown command 'foo'"),
		Integer(0),
		Integer(42),
		Integer(18446744073709551615),
		Bulk([]byte("hello world")),
		Bulk([]byte{}),
		Bulk([]byte("\x00\x01\xff binary")),
		Null(),
		Array(nil),
		Array([]Frame{BulkString("get"), BulkString("key")}),
		Array([]Frame{
			BulkString("message"),
			BulkString("hello"),
			Array([]Frame{Integer(1), Null()}),
		}),
	}

	for i, want := range cases {
		wire := encode(t, want)
		got, err := decode(t, wire)
		if err != nil {
			t.Fatalf("case %d: decode: %v", i, err)
		}
		if !got.Equal(want) {
			t.Errorf("case %d: round trip mismatch: wire=%q", i, wire)
		}
	}
}

func TestReadFrameStreamingChunks(t *testing.T) {
	f := Array([]Frame{
		BulkString("set"),
		BulkString("hello"),
		BulkString("world"),
	})
	wire := encode(t, f)

	r, w := io.Pipe()
	go func() {
		for _, chunk := range splitChunks(wire, 3) {
			_, _ = w.Write(chunk)
		}
		w.Close()
	}()

	got, err := ReadFrame(bufio.NewReader(r), nil)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if !got.Equal(f) {
		t.Errorf("got %+v, want %+v", got, f)
	}
}

func splitChunks(b []byte, n int) [][]byte {
	var out [][]byte
	for len(b) > 0 {
		k := n
		if k > len(b) {
			k = len(b)
		}
		out = append(out, b[:k])
		b = b[k:]
	}
	return out
}

func TestReadFrameEOFBetweenFrames(t *testing.T) {
	r := bufio.NewReader(bytes.NewReader(nil))
	_, err := ReadFrame(r, nil)
	if err != io.EOF {
		t.Fatalf("got %v, want io.EOF", err)
	}
}

func TestReadFrameMidFrameEOF(t *testing.T) {
	_, err := decode(t, []byte("$5\r\nhel"))
	if err != io.ErrUnexpectedEOF {
		t.Fatalf("got %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestReadFrameProtocolErrors(t *testing.T) {
	cases := []string{
		"?foo\r\n",          // unknown tag
		"+foo\rbar\r\n",     // embedded CR in simple string
		":notanumber\r\n",   // bad integer
		"$-2\r\n",           // invalid negative bulk length
		"$3\r\nabXX",        // missing trailing CRLF
		"*-1\r\n",           // negative array length not supported
		"*2\r\n$1\r\na\r\n", // array truncated mid-element
	}
	for _, wire := range cases {
		_, err := decode(t, []byte(wire))
		if err == nil {
			t.Errorf("wire %q: expected error, got nil", wire)
		}
	}
}

func TestReadFrameOverflow(t *testing.T) {
	opts := &Options{MaxBulkLen: 4}
	r := bufio.NewReader(bytes.NewReader([]byte("$100\r\n")))
	_, err := ReadFrame(r, opts)
	if err != ErrOverflow {
		t.Fatalf("got %v, want ErrOverflow", err)
	}
}

func TestReadFrameUTF8(t *testing.T) {
	_, err := decode(t, []byte("+\xff\xfe\r\n"))
	if err != ErrUTF8 {
		t.Fatalf("got %v, want ErrUTF8", err)
	}
}

func TestNullDistinctFromEmptyBulk(t *testing.T) {
	null, err := decode(t, []byte("$-1\r\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !null.IsNull() {
		t.Fatal("expected Null")
	}

	empty, err := decode(t, []byte("$0\r\n\r\n"))
	if err != nil {
		t.Fatal(err)
	}
	if empty.IsNull() {
		t.Fatal("empty bulk must not be Null")
	}
	b, ok := empty.BulkBytes()
	if !ok || len(b) != 0 {
		t.Fatalf("expected empty bulk, got %v %v", b, ok)
	}
}
