package schedulefeed

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/handball-sync/internal/platform/logging"
	"github.com/riskibarqy/handball-sync/internal/platform/resilience"
	"github.com/riskibarqy/handball-sync/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func newTestClient(t *testing.T, handler fasthttp.RequestHandler, breaker resilience.CircuitBreakerConfig) *Client {
	t.Helper()

	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = fasthttp.Serve(ln, handler) }()
	t.Cleanup(func() { _ = ln.Close() })

	return NewClient(ClientConfig{
		URLFor:         func(id string) string { return "http://feed.test/teams/" + id + "/schedule" },
		Timeout:        2 * time.Second,
		Logger:         logging.NewNop(),
		CircuitBreaker: breaker,
		Dial:           func(string) (net.Conn, error) { return ln.Dial() },
	})
}

func TestClient_FetchTeamSchedule(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Path()) != "/teams/5555/schedule" {
			ctx.SetStatusCode(fasthttp.StatusNotFound)
			return
		}
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"matches":[
			{"matchId":"100000001","date":"01.01.2025","time":"19:30","homeTeam":"Home","awayTeam":"Away","result":"30 – 25","tournament":"T"},
			{"matchId":"100000002","date":"08.01.2025","time":"18:00","homeTeam":"Away","awayTeam":"Home","result":"-"},
			{"matchId":"","date":"09.01.2025"}
		]}`)
	}, resilience.CircuitBreakerConfig{})

	entries, err := client.FetchTeamSchedule(context.Background(), usecase.Team{Label: "Herrer 1", ID: "5555"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Herrer 1", entries[0].Team)
	assert.Equal(t, "30-25", entries[0].Result)
	assert.Equal(t, "-", entries[1].Result)
}

func TestClient_AcceptsBareArray(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyString(`[{"matchId":"100000003","date":"02.02.2025"}]`)
	}, resilience.CircuitBreakerConfig{})

	entries, err := client.FetchTeamSchedule(context.Background(), usecase.Team{Label: "Damer", ID: "1"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "100000003", entries[0].MatchID)
}

func TestClient_NonRetryableStatusFails(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	}, resilience.CircuitBreakerConfig{})

	_, err := client.FetchTeamSchedule(context.Background(), usecase.Team{Label: "Damer", ID: "1"})
	require.Error(t, err)
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		hits.Add(1)
		ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
	}, resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1, OpenTimeout: time.Minute})

	team := usecase.Team{Label: "Damer", ID: "1"}
	_, err := client.FetchTeamSchedule(context.Background(), team)
	require.Error(t, err)
	assert.True(t, crerr.Is(err, errFeedTransient))

	_, err = client.FetchTeamSchedule(context.Background(), team)
	require.Error(t, err)
	assert.True(t, crerr.Is(err, usecase.ErrDependencyUnavailable))
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_NoFeedConfigured(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{URLFor: func(string) string { return "" }, Logger: logging.NewNop()})
	_, err := client.FetchTeamSchedule(context.Background(), usecase.Team{ID: "1"})
	require.Error(t, err)
	assert.True(t, crerr.Is(err, usecase.ErrDependencyUnavailable))
}
