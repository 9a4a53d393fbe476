// Command orderctl is a manual operator tool: build one order from flags,
// encode it the way an agent would, and push it to order ingress. Adapted
// from the teacher's cmd/client/client.go, which did the same thing over
// its raw binary protocol; here it speaks the JSON envelope over a zmq4
// PUSH socket instead.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"fenrir/internal/common"
	"fenrir/internal/wire"

	"github.com/go-zeromq/zmq4"
	"github.com/shopspring/decimal"
)

func main() {
	endpoint := flag.String("endpoint", "tcp://127.0.0.1:5601", "order ingress PUSH-dial address")
	accountID := flag.String("account", "", "account id placing the order (required)")
	sideStr := flag.String("side", "buy", "order side: 'buy' or 'sell'")
	typeStr := flag.String("type", "limit", "order type: 'limit' or 'market'")
	price := flag.Float64("price", 100.0, "limit price (ignored for market orders without -protect)")
	protect := flag.Bool("protect", false, "for market orders, attach -price as a protective limit")
	qty := flag.Uint64("qty", 10, "quantity")
	cancelID := flag.String("cancel", "", "if set, send a CANCEL for this order id instead of placing an order")
	flag.Parse()

	if *accountID == "" && *cancelID == "" {
		fmt.Fprintln(os.Stderr, "Error: -account is required")
		flag.Usage()
		os.Exit(1)
	}

	ctx, cancelFn := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelFn()

	push := zmq4.NewPush(ctx)
	defer func() { _ = push.Close() }()
	if err := push.Dial(*endpoint); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to dial order ingress at %s: %v\n", *endpoint, err)
		os.Exit(1)
	}

	var payload []byte
	var err error
	if *cancelID != "" {
		payload, err = wire.Encode(common.CancelMessage, wire.CancelPayload{OrderID: *cancelID})
	} else {
		order := buildOrder(*accountID, *sideStr, *typeStr, *price, *qty, *protect)
		if verr := order.Validate(); verr != nil {
			fmt.Fprintf(os.Stderr, "Invalid order: %v\n", verr)
			os.Exit(1)
		}
		payload, err = wire.Encode(common.OrderMessage, order)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode message: %v\n", err)
		os.Exit(1)
	}

	if err := push.Send(zmq4.NewMsg(payload)); err != nil {
		fmt.Fprintf(os.Stderr, "Send failed: %v\n", err)
		os.Exit(1)
	}

	if *cancelID != "" {
		fmt.Printf("-> Sent CANCEL for order %s\n", *cancelID)
	} else {
		fmt.Printf("-> Sent %s %s %d @ %.2f as %s\n", strings.ToUpper(*sideStr), strings.ToUpper(*typeStr), *qty, *price, *accountID)
	}
}

func buildOrder(accountID, sideStr, typeStr string, price float64, qty uint64, protect bool) common.Order {
	side := common.Buy
	if strings.ToLower(sideStr) == "sell" {
		side = common.Sell
	}

	orderType := common.LimitOrder
	if strings.ToLower(typeStr) == "market" {
		orderType = common.MarketOrder
	}

	order := common.Order{
		AccountID: accountID,
		Side:      side,
		OrderType: orderType,
		Quantity:  qty,
	}

	if orderType == common.LimitOrder || protect {
		p := common.QuantizePrice(decimal.NewFromFloat(price))
		order.Price = &p
	}

	return order
}
