package gateway

import (
	"context"
	"testing"
)

func TestCounterInitiateCashSettlesSynchronously(t *testing.T) {
	g := NewCounterGateway()
	res, err := g.Initiate(context.Background(), InitiateRequest{
		PaymentRef: "PAY-1",
		Amount:     50000,
		Currency:   "IDR",
		Method:     MethodCash,
	})
	if err != nil {
		t.Fatalf("initiate error: %v", err)
	}
	if res.Status != StatusCompleted {
		t.Fatalf("cash harus langsung completed, got %s", res.Status)
	}
	if res.TransactionID == "" {
		t.Fatalf("transaction id kosong")
	}

	status, err := g.Verify(context.Background(), res.TransactionID)
	if err != nil {
		t.Fatalf("verify error: %v", err)
	}
	if status != StatusCompleted {
		t.Fatalf("verify salah: got %s want completed", status)
	}
}

func TestCounterInitiateMobileMoneyStaysPending(t *testing.T) {
	g := NewCounterGateway()
	res, err := g.Initiate(context.Background(), InitiateRequest{
		PaymentRef: "PAY-2",
		Amount:     50000,
		Method:     MethodMobileMoney,
	})
	if err != nil {
		t.Fatalf("initiate error: %v", err)
	}
	if res.Status != StatusPending {
		t.Fatalf("mobile money harus pending, got %s", res.Status)
	}
}

func TestCounterVerifyUnknownTransactionPending(t *testing.T) {
	g := NewCounterGateway()
	status, err := g.Verify(context.Background(), "CASH-UNKNOWN")
	if err != nil {
		t.Fatalf("verify error: %v", err)
	}
	if status != StatusPending {
		t.Fatalf("transaksi tak dikenal harus pending, got %s", status)
	}
}

func TestCounterRefund(t *testing.T) {
	g := NewCounterGateway()
	res, _ := g.Initiate(context.Background(), InitiateRequest{Method: MethodCash})
	status, err := g.Refund(context.Background(), res.TransactionID, 50000)
	if err != nil {
		t.Fatalf("refund error: %v", err)
	}
	if status != StatusRefunded {
		t.Fatalf("refund salah: got %s want refunded", status)
	}
	if got, _ := g.Verify(context.Background(), res.TransactionID); got != StatusRefunded {
		t.Fatalf("verify setelah refund salah: got %s", got)
	}
}

func TestImmediateSplitsSyncFromDeferredMethods(t *testing.T) {
	cases := []struct {
		method string
		want   bool
	}{
		{MethodCard, true},
		{MethodCash, true},
		{MethodMobileMoney, false},
		{"pulsa", false},
	}
	for _, tc := range cases {
		if got := Immediate(tc.method); got != tc.want {
			t.Fatalf("Immediate(%s) = %v, want %v", tc.method, got, tc.want)
		}
	}
}

func TestWebhookEventStatusMapping(t *testing.T) {
	cases := []struct {
		event  string
		data   string
		want   Status
		wantOK bool
	}{
		{"charge.completed", "", StatusCompleted, true},
		{"payment.failed", "", StatusFailed, true},
		{"charge.refunded", "", StatusRefunded, true},
		{"custom.event", "completed", StatusCompleted, true},
		{"custom.event", "exploded", "", false},
	}
	for _, tc := range cases {
		ev := WebhookEvent{Event: tc.event, Data: WebhookData{Status: tc.data}}
		got, ok := ev.EventStatus()
		if ok != tc.wantOK || got != tc.want {
			t.Fatalf("%s/%s: got (%s,%v) want (%s,%v)", tc.event, tc.data, got, ok, tc.want, tc.wantOK)
		}
	}
}
