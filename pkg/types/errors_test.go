package types

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestOrderError_Error(t *testing.T) {
	withID := &OrderError{
		Code:    ErrNoLiquidity,
		Message: "book too thin",
		OrderID: "ord-1",
		Market:  "BTC-USDT",
	}
	msg := withID.Error()
	for _, want := range []string{"BTC-USDT", "ord-1", "book too thin", "NO_LIQUIDITY"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}

	withoutID := &OrderError{Code: ErrRejected, Message: "rejected", Market: "ETH-USDT"}
	if strings.Contains(withoutID.Error(), "ID:") {
		t.Errorf("expected no order ID segment in %q", withoutID.Error())
	}
}

func TestOrderError_ErrorsAs(t *testing.T) {
	wrapped := fmt.Errorf("place order: %w", &OrderError{Code: ErrNotEnoughBalance, Market: "BTC-USDT"})

	var orderErr *OrderError
	if !errors.As(wrapped, &orderErr) {
		t.Fatal("expected errors.As to unwrap OrderError")
	}
	if orderErr.Code != ErrNotEnoughBalance {
		t.Errorf("expected code %s, got %s", ErrNotEnoughBalance, orderErr.Code)
	}
}
