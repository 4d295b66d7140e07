// Package broker defines the order port and the adapters that implement it.
package broker

import "context"

// Side enumerates order directions.
type Side string

const (
	// Buy indicates a long order.
	Buy Side = "BUY"
	// Sell indicates a closing or short order.
	Sell Side = "SELL"
)

// OrderIntent is a sized order request produced by one evaluation of one symbol.
// TakeProfit and StopLoss are monitoring values recorded alongside the intent;
// the submitted order is a pure market order and no bracket is placed broker-side.
type OrderIntent struct {
	Symbol     string
	Side       Side
	Qty        int
	Price      float64
	TakeProfit float64
	StopLoss   float64
}

// Ack is the broker acknowledgement for a submitted order.
type Ack struct {
	OrderID string
	Status  string
}

// OrderPort submits market orders to a venue. Errors and non-success acks are
// non-fatal to the caller: logged and counted, never retried within a run.
type OrderPort interface {
	Submit(ctx context.Context, intent OrderIntent) (Ack, error)
	Name() string
}

// FundsReporter is implemented by ports that can report deployable cash.
// The orchestrator uses it as an always-applied affordability precondition
// whenever the active port supports it.
type FundsReporter interface {
	AvailableFunds(ctx context.Context) (float64, error)
}
