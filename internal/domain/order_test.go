package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/bithumbkit/bithumb/types"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestTerminalStatesNeverMove(t *testing.T) {
	all := []OrderState{StatePending, StateOpen, StatePartiallyFilled, StateFilled, StateCancelled, StateRejected}
	for _, from := range []OrderState{StateFilled, StateCancelled, StateRejected} {
		for _, to := range all {
			if to == from {
				assert.True(t, CanTransition(from, to))
				continue
			}
			assert.False(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestPartiallyFilledDoesNotRegress(t *testing.T) {
	o := &Order{UUID: "u1", State: StatePartiallyFilled}
	err := o.Apply(StateOpen, time.Now())

	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, StatePartiallyFilled, te.From)
	assert.Equal(t, StatePartiallyFilled, o.State)
}

func TestForwardTransitions(t *testing.T) {
	now := time.Unix(1700000000, 0)
	o := NewPendingOrder(LimitOrder("KRW-BTC", SideBuy, d("0.001"), d("50000000")), now)
	assert.Equal(t, StatePending, o.State)

	later := now.Add(time.Second)
	require.NoError(t, o.Apply(StateOpen, later))
	require.NoError(t, o.Apply(StateOpen, later))
	require.NoError(t, o.Apply(StatePartiallyFilled, later))
	require.NoError(t, o.Apply(StateFilled, later))
	assert.True(t, o.IsTerminal())
	assert.Equal(t, later, o.UpdatedAt)
	assert.Error(t, o.Apply(StateCancelled, later))
}

func TestAssignUUIDOnce(t *testing.T) {
	o := &Order{}
	assert.Error(t, o.AssignUUID(""))
	require.NoError(t, o.AssignUUID("C0101"))
	require.NoError(t, o.AssignUUID("C0101"))
	assert.Error(t, o.AssignUUID("C0102"))
	assert.Equal(t, "C0101", o.UUID)
}

func TestStateFromExchange(t *testing.T) {
	s, err := StateFromExchange(types.OrderStateWait, decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, StateOpen, s)

	s, err = StateFromExchange(types.OrderStateWait, d("0.0005"))
	require.NoError(t, err)
	assert.Equal(t, StatePartiallyFilled, s)

	s, err = StateFromExchange(types.OrderStateWatch, decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, StateOpen, s)

	s, err = StateFromExchange(types.OrderStateDone, d("1"))
	require.NoError(t, err)
	assert.Equal(t, StateFilled, s)

	s, err = StateFromExchange(types.OrderStateCancel, d("0.1"))
	require.NoError(t, err)
	assert.Equal(t, StateCancelled, s)

	_, err = StateFromExchange("mystery", decimal.Zero)
	assert.Error(t, err)
}

func TestOrderRequestValidate(t *testing.T) {
	ok := []OrderRequest{
		LimitOrder("KRW-BTC", SideBuy, d("0.001"), d("50000000")),
		LimitOrder("KRW-BTC", SideSell, d("0.001"), d("50000000")),
		MarketBuy("KRW-BTC", d("10000")),
		MarketSell("KRW-BTC", d("0.01")),
	}
	for _, r := range ok {
		assert.NoError(t, r.Validate(), "%+v", r)
	}

	bad := []OrderRequest{
		{Side: SideBuy, Type: TypeLimit, Volume: d("1"), Price: d("1")},
		{Market: "KRW-BTC", Side: "hold", Type: TypeLimit, Volume: d("1"), Price: d("1")},
		{Market: "KRW-BTC", Side: SideBuy, Type: "stop", Volume: d("1"), Price: d("1")},
		LimitOrder("KRW-BTC", SideBuy, decimal.Zero, d("50000000")),
		LimitOrder("KRW-BTC", SideBuy, d("0.001"), decimal.Zero),
		LimitOrder("KRW-BTC", SideBuy, d("-1"), d("5")),
		MarketBuy("KRW-BTC", decimal.Zero),
		{Market: "KRW-BTC", Side: SideBuy, Type: TypeMarket, Volume: d("1"), Price: d("10000")},
		MarketSell("KRW-BTC", decimal.Zero),
		{Market: "KRW-BTC", Side: SideSell, Type: TypeMarket, Volume: d("1"), Price: d("10000")},
	}
	for _, r := range bad {
		err := r.Validate()
		assert.ErrorIs(t, err, types.ErrInvalidOrderParameters, "%+v", r)
	}
}

func TestNotional(t *testing.T) {
	n, ok := LimitOrder("KRW-BTC", SideBuy, d("0.00001"), d("1000000")).Notional()
	assert.True(t, ok)
	assert.True(t, n.Equal(d("10")))

	n, ok = MarketBuy("KRW-BTC", d("7000")).Notional()
	assert.True(t, ok)
	assert.True(t, n.Equal(d("7000")))

	_, ok = MarketSell("KRW-BTC", d("1")).Notional()
	assert.False(t, ok)
}

func TestWireMapping(t *testing.T) {
	assert.Equal(t, types.SideBid, SideBuy.Wire())
	assert.Equal(t, types.SideAsk, SideSell.Wire())
	assert.Equal(t, SideSell, SideFromWire(types.SideAsk))
	assert.Equal(t, types.OrdTypeLimit, WireOrdType(TypeLimit, SideSell))
	assert.Equal(t, types.OrdTypePrice, WireOrdType(TypeMarket, SideBuy))
	assert.Equal(t, types.OrdTypeMarket, WireOrdType(TypeMarket, SideSell))
	assert.Equal(t, TypeMarket, TypeFromWire(types.OrdTypePrice))
}

func TestConstraintsSupports(t *testing.T) {
	c := StaticConstraints("KRW-BTC", decimal.Zero)
	assert.True(t, c.MinTotal.Equal(DefaultMinOrderValue))
	assert.True(t, c.Supports(SideBuy, types.OrdTypePrice))
	assert.False(t, c.Supports(SideBuy, types.OrdTypeMarket))
	assert.True(t, c.Supports(SideSell, types.OrdTypeMarket))

	open := &OrderConstraints{}
	assert.True(t, open.Supports(SideSell, types.OrdTypePrice))
}

func TestBalance(t *testing.T) {
	b := NewBalance("BTC", "KRW", d("0.5"), d("0.25"), d("40000000"))
	assert.True(t, b.Total.Equal(d("0.75")))
	assert.True(t, b.Valuation().Equal(d("30000000")))
	assert.False(t, b.IsZero())
	assert.True(t, ZeroBalance("ETH").IsZero())
}

func TestParseInterval(t *testing.T) {
	i, err := ParseInterval("minutes", 0)
	require.NoError(t, err)
	assert.Equal(t, "minutes/1", i.String())
	i, err = ParseInterval("weekly", 0)
	require.NoError(t, err)
	assert.Equal(t, Weekly, i)
	_, err = ParseInterval("hourly", 0)
	assert.Error(t, err)
}
