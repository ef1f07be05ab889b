package api

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONCodec(t *testing.T) {
	codec := JSONCodec{}
	assert.Equal(t, "json", codec.Name())

	data, err := codec.Marshal(&RequestSettlementRequest{CircleID: "c1", ToUserID: "alice", Amount: decimal.RequireFromString("12.50")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"circleId":"c1","toUserId":"alice","amount":"12.5"}`, string(data))

	var req RequestSettlementRequest
	require.NoError(t, codec.Unmarshal([]byte(`{"circleId":"c1","amount":"7.25"}`), &req))
	assert.Equal(t, "c1", req.CircleID)
	assert.True(t, decimal.RequireFromString("7.25").Equal(req.Amount))

	var empty ListCirclesRequest
	assert.NoError(t, codec.Unmarshal(nil, &empty))

	assert.Error(t, codec.Unmarshal([]byte(`{"amount":"seven"}`), &req))
}

func TestBalancesEmbedFlatten(t *testing.T) {
	data, err := JSONCodec{}.Marshal(&WatchCircleResponse{CircleBalances{CircleID: "c1"}})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"circleId":"c1"`)
}
