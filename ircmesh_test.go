package ircmesh

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ircmesh/event"
	"github.com/hupe1980/ircmesh/internal/testutil"
	"github.com/hupe1980/ircmesh/serialize"
	"github.com/hupe1980/ircmesh/wire"
)

// testClient wires a client to an in-memory transport.
func testClient(t *testing.T, optFns ...func(o *Options)) (*Client, *testutil.Transport) {
	t.Helper()

	tr := testutil.NewTransport()
	opts := append([]func(o *Options){
		WithDialer(func(context.Context) (wire.Transport, error) { return tr, nil }),
	}, optFns...)

	client, err := NewClient("irc.example.org:6667", opts...)
	require.NoError(t, err)
	return client, tr
}

func TestNewClient_Defaults(t *testing.T) {
	client, err := NewClient("irc.example.org:6667")
	require.NoError(t, err)

	assert.Equal(t, "irc.example.org:6667", client.Addr())
	// The rfc2812 vocabulary is preloaded.
	assert.NotEmpty(t, client.Serializer().Specs("PRIVMSG"))
	assert.NotEmpty(t, client.Serializer().Specs("JOIN"))
	assert.True(t, client.IsClosing(), "fresh client has no session")
}

func TestNewClient_WithoutDefaultHandlers(t *testing.T) {
	client, tr := testClient(t, WithoutDefaultHandlers())
	ctx := context.Background()
	require.NoError(t, client.Connect(ctx))
	defer client.Disconnect(context.Background())

	fired := make(chan struct{}, 1)
	client.On("PING", func(context.Context, event.Payload) error {
		fired <- struct{}{}
		return nil
	})

	tr.DeliverString("PING :x\r\n")

	select {
	case <-fired:
		t.Fatal("PING dispatched with an empty handler chain")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestClient_ConnectTriggersEvent(t *testing.T) {
	client, _ := testClient(t)

	connected := client.Events().WaitChan(EventClientConnect)
	require.NoError(t, client.Connect(context.Background()))
	defer client.Disconnect(context.Background())

	select {
	case <-connected:
	case <-time.After(time.Second):
		t.Fatal("client_connect never fired")
	}
	assert.False(t, client.IsClosing())
}

func TestClient_ConnectIdempotentWhileLive(t *testing.T) {
	var dials atomic.Int32
	tr := testutil.NewTransport()

	client, err := NewClient("irc.example.org:6667",
		WithDialer(func(context.Context) (wire.Transport, error) {
			dials.Add(1)
			return tr, nil
		}))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, client.Connect(ctx))
	require.NoError(t, client.Connect(ctx))
	defer client.Disconnect(context.Background())

	assert.Equal(t, int32(1), dials.Load())
}

func TestClient_ConcurrentConnectYieldsOneSession(t *testing.T) {
	var dials atomic.Int32
	client, err := NewClient("irc.example.org:6667",
		WithDialer(func(context.Context) (wire.Transport, error) {
			dials.Add(1)
			return testutil.NewTransport(), nil
		}))
	require.NoError(t, err)

	var connects, disconnects atomic.Int32
	client.On(EventClientConnect, func(context.Context, event.Payload) error {
		connects.Add(1)
		return nil
	})
	client.On(EventClientDisconnect, func(context.Context, event.Payload) error {
		disconnects.Add(1)
		return nil
	})

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, client.Connect(ctx))
		}()
	}
	wg.Wait()
	defer client.Disconnect(context.Background())

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), connects.Load(), "exactly one client_connect")
	assert.Equal(t, int32(0), disconnects.Load(), "losing session must not fire a disconnect")
	assert.False(t, client.IsClosing())
}

func TestClient_ConnectDialError(t *testing.T) {
	cause := errors.New("refused")
	client, err := NewClient("irc.example.org:6667",
		WithDialer(func(context.Context) (wire.Transport, error) { return nil, cause }))
	require.NoError(t, err)

	err = client.Connect(context.Background())
	require.ErrorIs(t, err, cause)
	assert.True(t, client.IsClosing())
}

func TestClient_SendSerializesAndWrites(t *testing.T) {
	client, tr := testClient(t)
	ctx := context.Background()
	require.NoError(t, client.Connect(ctx))
	defer client.Disconnect(context.Background())

	require.NoError(t, client.Send(ctx, "PRIVMSG", serialize.Params{"target": "#chan", "message": "hi"}))
	assert.Equal(t, "PRIVMSG #chan :hi\r\n", string(tr.Written()))
}

func TestClient_SendErrors(t *testing.T) {
	client, tr := testClient(t)
	ctx := context.Background()

	// not connected yet
	err := client.SendMessage("QUIT")
	require.ErrorIs(t, err, wire.ErrNotConnected)

	require.NoError(t, client.Connect(ctx))
	defer client.Disconnect(context.Background())

	// serialization failures surface synchronously and write nothing
	err = client.Send(ctx, "NOPE", nil)
	require.ErrorIs(t, err, serialize.ErrUnknownCommand)
	err = client.Send(ctx, "PRIVMSG", serialize.Params{"target": "#chan"})
	require.ErrorIs(t, err, serialize.ErrMissingArguments)
	assert.Empty(t, tr.Written())
}

func TestClient_InboundLineDispatchesEvent(t *testing.T) {
	client, tr := testClient(t)
	ctx := context.Background()

	payloads := make(chan event.Payload, 1)
	client.On("PRIVMSG", func(_ context.Context, p event.Payload) error {
		payloads <- p
		return nil
	})

	require.NoError(t, client.Connect(ctx))
	defer client.Disconnect(context.Background())

	tr.DeliverString(":n0!u@h PRIVMSG #chan :hello\r\n")

	select {
	case p := <-payloads:
		assert.Equal(t, "n0", p["nick"])
		assert.Equal(t, "#chan", p["target"])
		assert.Equal(t, "hello", p["message"])
	case <-time.After(time.Second):
		t.Fatal("PRIVMSG never dispatched")
	}
}

func TestClient_MalformedLineSkipped(t *testing.T) {
	logger := testutil.NewRecordingLogger()
	client, tr := testClient(t, WithLogger(logger))
	ctx := context.Background()

	payloads := make(chan event.Payload, 1)
	client.On("PRIVMSG", func(_ context.Context, p event.Payload) error {
		payloads <- p
		return nil
	})

	require.NoError(t, client.Connect(ctx))
	defer client.Disconnect(context.Background())

	tr.DeliverString("GIBBERISH no such command\r\n")
	tr.DeliverString(":n0!u@h PRIVMSG #chan :still works\r\n")

	select {
	case p := <-payloads:
		assert.Equal(t, "still works", p["message"])
	case <-time.After(time.Second):
		t.Fatal("connection did not survive the malformed line")
	}
	assert.True(t, logger.Contains("failed to parse line"))
}

func TestClient_DisconnectFiresEventExactlyOnce(t *testing.T) {
	client, tr := testClient(t)
	ctx := context.Background()
	require.NoError(t, client.Connect(ctx))

	var disconnects atomic.Int32
	client.On(EventClientDisconnect, func(context.Context, event.Payload) error {
		disconnects.Add(1)
		return nil
	})

	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, client.Disconnect(waitCtx))
	assert.True(t, client.IsClosing())
	assert.True(t, tr.Closed())

	// Further disconnects are no-ops.
	require.NoError(t, client.Disconnect(ctx))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), disconnects.Load())
}

func TestClient_RemoteHangupFiresDisconnect(t *testing.T) {
	client, tr := testClient(t)
	ctx := context.Background()

	lost := client.Events().WaitChan(EventClientDisconnect)
	require.NoError(t, client.Connect(ctx))

	// Remote side goes away.
	tr.Close()

	select {
	case <-lost:
	case <-time.After(time.Second):
		t.Fatal("client_disconnect never fired on remote hangup")
	}
	assert.True(t, client.IsClosing())
}

func TestClient_ReconnectAfterDisconnect(t *testing.T) {
	transports := []*testutil.Transport{testutil.NewTransport(), testutil.NewTransport()}
	var dials atomic.Int32

	client, err := NewClient("irc.example.org:6667",
		WithDialer(func(context.Context) (wire.Transport, error) {
			return transports[dials.Add(1)-1], nil
		}))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, client.Connect(ctx))

	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, client.Disconnect(waitCtx))

	require.NoError(t, client.Connect(ctx))
	defer client.Disconnect(context.Background())

	require.NoError(t, client.SendMessage("PING check"))
	assert.Equal(t, "PING check\r\n", string(transports[1].Written()))
	assert.Empty(t, transports[0].Written())
}

func TestClient_MessageHandlerChainManagement(t *testing.T) {
	client, tr := testClient(t, WithoutDefaultHandlers())
	ctx := context.Background()

	var order []string
	seen := make(chan struct{}, 2)
	client.AddMessageHandler(func(ctx context.Context, next NextHandler, _ *Client, line []byte) error {
		order = append(order, "appended")
		seen <- struct{}{}
		return next(ctx, line)
	})
	client.PrependMessageHandler(func(ctx context.Context, next NextHandler, _ *Client, line []byte) error {
		order = append(order, "prepended")
		return next(ctx, line)
	})

	require.NoError(t, client.Connect(ctx))
	defer client.Disconnect(context.Background())

	tr.DeliverString("anything\r\n")
	select {
	case <-seen:
	case <-time.After(time.Second):
		t.Fatal("chain never ran")
	}
	assert.Equal(t, []string{"prepended", "appended"}, order)
}

func TestClient_ClearMessageHandlers(t *testing.T) {
	client, tr := testClient(t)
	ctx := context.Background()

	fired := make(chan struct{}, 1)
	client.On("PING", func(context.Context, event.Payload) error {
		fired <- struct{}{}
		return nil
	})
	client.ClearMessageHandlers()

	require.NoError(t, client.Connect(ctx))
	defer client.Disconnect(context.Background())

	tr.DeliverString("PING :x\r\n")
	select {
	case <-fired:
		t.Fatal("cleared chain still dispatched")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestClient_WaitAndWaitForDelegation(t *testing.T) {
	client, _ := testClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan struct{})
	var name string
	var err error
	go func() {
		defer close(done)
		name, err = client.Wait(ctx, "custom")
	}()

	time.Sleep(10 * time.Millisecond)
	client.Trigger(ctx, "custom", nil)

	<-done
	require.NoError(t, err)
	assert.Equal(t, "CUSTOM", name)

	got, err := client.WaitFor(ctx, nil, event.ModeAll)
	require.NoError(t, err)
	assert.Nil(t, got)
}
