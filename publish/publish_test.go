package publish

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/gridsniper/indicators"
	"github.com/rustyeddy/gridsniper/strategies"
)

func testSignal() Signal {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return Signal{
		Ticker: "BTC-USD",
		Decision: strategies.Decision{
			Action:  strategies.DipBuy,
			Reason:  "rsi 28.00 <= 30.00",
			Profile: "sniper",
			Set: indicators.Set{
				Time:  at,
				Close: 39900,
				RSI:   indicators.Value{V: 28, Ready: true},
			},
		},
		At: at,
	}
}

func TestRedisPublish(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	p := NewRedis(rdb, "gs", 10*time.Minute)

	s := testSignal()
	b, err := json.Marshal(s)
	require.NoError(t, err)

	mock.ExpectSet("gs:signal:BTC-USD", b, 10*time.Minute).SetVal("OK")
	mock.ExpectPublish("gs:signals", b).SetVal(1)

	require.NoError(t, p.Publish(context.Background(), s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisPublishSetError(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	p := NewRedis(rdb, "", 0)
	assert.Equal(t, "gridsniper:signals", p.Channel())

	s := testSignal()
	b, _ := json.Marshal(s)
	mock.ExpectSet("gridsniper:signal:BTC-USD", b, 0).SetErr(errors.New("connection refused"))

	err := p.Publish(context.Background(), s)
	assert.ErrorContains(t, err, "redis set BTC-USD")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLatest(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	p := NewRedis(rdb, "gs", time.Minute)

	want := testSignal()
	b, _ := json.Marshal(want)
	mock.ExpectGet("gs:signal:BTC-USD").SetVal(string(b))

	got, err := p.Latest(context.Background(), "BTC-USD")
	require.NoError(t, err)
	assert.Equal(t, strategies.DipBuy, got.Decision.Action)
	assert.Equal(t, 28.0, got.Decision.Set.RSI.V)
	assert.True(t, got.At.Equal(want.At))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLatestMissing(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	p := NewRedis(rdb, "gs", time.Minute)
	mock.ExpectGet("gs:signal:ETH-USD").RedisNil()

	_, err := p.Latest(context.Background(), "ETH-USD")
	assert.ErrorIs(t, err, ErrNoSignal)
}

func TestNop(t *testing.T) {
	t.Parallel()

	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), testSignal()))
}
