package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsEncodeIsCanonical(t *testing.T) {
	p := NewParams().
		Add("volume", "0.001").
		Add("market", "KRW-BTC").
		Add("side", "bid")

	assert.Equal(t, "market=KRW-BTC&side=bid&volume=0.001", p.Encode())
	assert.Equal(t, 3, p.Len())
	assert.Equal(t, "bid", p.Get("side"))
	assert.Equal(t, "", p.Get("price"))
}

func TestParamsEncodeEscapesValues(t *testing.T) {
	p := NewParams().Add("order_by", "desc").Add("q", "a b&c")
	assert.Equal(t, "order_by=desc&q=a+b%26c", p.Encode())
}

func TestParamsSetReplaces(t *testing.T) {
	p := NewParams().Add("page", "1").Add("market", "KRW-BTC")
	p.Set("page", "2")
	assert.Equal(t, "market=KRW-BTC&page=2", p.Encode())
	assert.Equal(t, 2, p.Len())
}

func TestParamsMarshalJSON(t *testing.T) {
	p := NewParams().
		Add("side", "bid").
		Add("market", "KRW-BTC").
		Add("uuids[]", "u2").
		Add("uuids[]", "u1")

	b, err := p.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"market":"KRW-BTC","side":"bid","uuids":["u2","u1"]}`, string(b))
}

func TestNilParams(t *testing.T) {
	var p *Params
	assert.Equal(t, "", p.Encode())
	assert.Equal(t, 0, p.Len())

	r := &Request{Method: "GET", Path: "/v1/accounts"}
	assert.Equal(t, "", r.QueryString())
}
