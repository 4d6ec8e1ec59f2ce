package wire

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// wsEchoServer upgrades each request and echoes every text frame back.
func wsEchoServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, msg); err != nil {
				return
			}
		}
	}))
}

func TestWebSocketTransport_RoundTrip(t *testing.T) {
	srv := wsEchoServer(t)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	tr, err := WebSocketDialer(url, nil)(context.Background())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer tr.Close()

	if _, err := tr.Write([]byte("PING :check\r\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	buf := make([]byte, 64)
	n, err := tr.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := string(buf[:n]); got != "PING :check\r\n" {
		t.Fatalf("got %q", got)
	}
}

func TestWebSocketTransport_FramesThroughConn(t *testing.T) {
	srv := wsEchoServer(t)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	tr, err := WebSocketDialer(url, nil)(context.Background())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	lines := make(chan string, 2)
	c := NewConn(tr, func(o *Options) {
		o.OnMessage = func(line []byte) { lines <- string(line) }
	})

	go c.ReadLoop(context.Background())

	// One frame may carry several lines or a partial one; the framer
	// reassembles either way.
	if err := c.Write("NICK n0"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := c.Write("JOIN #chan"); err != nil {
		t.Fatalf("write: %v", err)
	}

	for _, want := range []string{"NICK n0", "JOIN #chan"} {
		select {
		case got := <-lines:
			if got != want {
				t.Fatalf("got %q, want %q", got, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("echo of %q never arrived", want)
		}
	}

	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestWebSocketDialer_Unreachable(t *testing.T) {
	_, err := WebSocketDialer("ws://127.0.0.1:1/nope", nil)(context.Background())
	if err == nil {
		t.Fatal("expected dial error")
	}
}
