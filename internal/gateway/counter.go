package gateway

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// CounterGateway settles cash-at-counter payments. There is no external
// provider behind it: the counter operator taking the cash is the
// settlement, so Initiate resolves synchronously.
type CounterGateway struct {
	mu      sync.Mutex
	settled map[string]Status
}

func NewCounterGateway() *CounterGateway {
	return &CounterGateway{settled: make(map[string]Status)}
}

func (g *CounterGateway) Name() string { return "counter" }

func (g *CounterGateway) Initiate(ctx context.Context, req InitiateRequest) (InitiateResult, error) {
	txID := "CASH-" + strings.ToUpper(uuid.NewString()[:13])
	status := StatusCompleted
	if req.Method == MethodMobileMoney {
		// Counter provider only handles over-the-counter methods.
		status = StatusPending
	}
	g.mu.Lock()
	g.settled[txID] = status
	g.mu.Unlock()
	return InitiateResult{
		TransactionID: txID,
		Status:        status,
		Instructions:  "Bayar di loket sebelum keberangkatan.",
	}, nil
}

func (g *CounterGateway) Verify(ctx context.Context, transactionID string) (Status, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if s, ok := g.settled[transactionID]; ok {
		return s, nil
	}
	return StatusPending, nil
}

func (g *CounterGateway) Refund(ctx context.Context, transactionID string, amount int64) (Status, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.settled[transactionID] = StatusRefunded
	return StatusRefunded, nil
}
