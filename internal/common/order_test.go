package common

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrder_Validate(t *testing.T) {
	price := decimal.NewFromFloat(10.0)

	cases := []struct {
		name    string
		order   Order
		wantErr bool
	}{
		{"valid limit", Order{OrderType: LimitOrder, Side: Buy, Price: &price, Quantity: 1}, false},
		{"limit missing price", Order{OrderType: LimitOrder, Side: Buy, Quantity: 1}, true},
		{"market without price is valid", Order{OrderType: MarketOrder, Side: Sell, Quantity: 1}, false},
		{"zero quantity", Order{OrderType: LimitOrder, Side: Buy, Price: &price, Quantity: 0}, true},
		{"negative price", Order{OrderType: LimitOrder, Side: Buy, Price: negPrice(), Quantity: 1}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.order.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidOrder)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func negPrice() *decimal.Decimal {
	p := decimal.NewFromFloat(-1.0)
	return &p
}

func TestOrder_Crosses(t *testing.T) {
	buyPrice := decimal.NewFromFloat(100.0)
	buy := Order{Side: Buy, Price: &buyPrice}

	higherAsk := decimal.NewFromFloat(101.0)
	assert.False(t, buy.Crosses(&higherAsk), "a buy below the ask must not cross")

	lowerAsk := decimal.NewFromFloat(99.0)
	assert.True(t, buy.Crosses(&lowerAsk), "a buy at or above the ask must cross")

	assert.False(t, buy.Crosses(nil), "an empty opposite side never crosses")
}

func TestFill_SelfTrade(t *testing.T) {
	f := Fill{BuyerAccountID: "a", SellerAccountID: "a"}
	assert.True(t, f.SelfTrade())

	f2 := Fill{BuyerAccountID: "a", SellerAccountID: "b"}
	assert.False(t, f2.SelfTrade())
}

func TestQuantizePrice(t *testing.T) {
	p := decimal.NewFromFloat(100.19999999999999)
	assert.True(t, QuantizePrice(p).Equal(decimal.NewFromFloat(100.20)))
}
