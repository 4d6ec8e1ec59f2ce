package router

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ircmesh"
	"github.com/hupe1980/ircmesh/event"
	"github.com/hupe1980/ircmesh/internal/testutil"
)

func newRouter(t *testing.T, optFns ...func(o *Options)) (*ircmesh.Client, *Router) {
	t.Helper()
	client, err := ircmesh.NewClient("irc.example.org:6667")
	require.NoError(t, err)
	return client, New(client, optFns...)
}

func privmsg(nick, target, message string) event.Payload {
	return event.Payload{"nick": nick, "target": target, "message": message}
}

func TestRouter_RegistersPrivmsgHandler(t *testing.T) {
	client, _ := newRouter(t)
	assert.Equal(t, 1, client.Events().HandlerCount("PRIVMSG"))
}

func TestRouter_RouteReturnsFunc(t *testing.T) {
	_, r := newRouter(t)
	fn := func(context.Context, Match) error { return nil }
	got := r.Route(regexp.MustCompile("x"), fn)
	assert.NotNil(t, got)
}

func TestRouter_NoRoutes(t *testing.T) {
	_, r := newRouter(t)
	require.NoError(t, r.Handle(context.Background(), privmsg("n", "#c", "anything")))
}

func TestRouter_NoMatchingRoute(t *testing.T) {
	_, r := newRouter(t)
	r.Route(regexp.MustCompile(`^hello, (?P<name>.+)$`), func(context.Context, Match) error {
		t.Fatal("should not have been invoked")
		return nil
	})
	require.NoError(t, r.Handle(context.Background(), privmsg("n", "#c", "does not match")))
}

func TestRouter_MatchingRouteExtractsFields(t *testing.T) {
	_, r := newRouter(t)

	var names []string
	r.Route(regexp.MustCompile(`^hello, (?P<name>.+)$`), func(_ context.Context, m Match) error {
		names = append(names, m.Fields["name"])
		return nil
	})

	ctx := context.Background()
	require.NoError(t, r.Handle(ctx, privmsg("n", "#c", "hello, jack")))
	require.NoError(t, r.Handle(ctx, privmsg("n", "#c", "hello, hello, recursion")))

	assert.Equal(t, []string{"jack", "hello, recursion"}, names)
}

func TestRouter_FirstMatchWins(t *testing.T) {
	_, r := newRouter(t)

	var hit []string
	r.Route(regexp.MustCompile(`^cmd`), func(context.Context, Match) error {
		hit = append(hit, "first")
		return nil
	})
	r.Route(regexp.MustCompile(`^cmd extra`), func(context.Context, Match) error {
		hit = append(hit, "second")
		return nil
	})

	require.NoError(t, r.Handle(context.Background(), privmsg("n", "#c", "cmd extra words")))
	assert.Equal(t, []string{"first"}, hit)
}

func TestRouter_MatchMetadata(t *testing.T) {
	_, r := newRouter(t)

	var got Match
	r.Route(regexp.MustCompile(`^!echo (?P<words>.+)$`), func(_ context.Context, m Match) error {
		got = m
		return nil
	})

	require.NoError(t, r.Handle(context.Background(), privmsg("sender", "#chan", "!echo hi there")))
	assert.Equal(t, "sender", got.Nick)
	assert.Equal(t, "#chan", got.Target)
	assert.Equal(t, "!echo hi there", got.Message)
	assert.Equal(t, "hi there", got.Fields["words"])
}

func TestMatch_Reply(t *testing.T) {
	channel := Match{Nick: "sender", Target: "#chan"}
	assert.Equal(t, "#chan", channel.Reply())

	direct := Match{Nick: "sender", Target: "mynick"}
	assert.Equal(t, "sender", direct.Reply())
}

func TestRouter_RouteErrorLogged(t *testing.T) {
	logger := testutil.NewRecordingLogger()
	_, r := newRouter(t, func(o *Options) { o.Logger = logger })

	r.Route(regexp.MustCompile(`^boom$`), func(context.Context, Match) error {
		return errors.New("route exploded")
	})

	// Handler errors are contained, not propagated to the dispatcher.
	require.NoError(t, r.Handle(context.Background(), privmsg("n", "#c", "boom")))
	assert.True(t, logger.Contains("route failed"))
}
