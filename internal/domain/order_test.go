package domain

import (
	"errors"
	"testing"
	"time"
)

// allStatuses перечисляет все статусы для исчерпывающих проверок графа.
var allStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCanceled,
}

// legalEdges — эталонная таблица переходов из дизайна.
var legalEdges = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusPending:    {OrderStatusProcessing: true, OrderStatusCanceled: true},
	OrderStatusProcessing: {OrderStatusShipped: true, OrderStatusCanceled: true},
	OrderStatusShipped:    {OrderStatusDelivered: true},
}

func TestCanTransition_AllPairs(t *testing.T) {
	// Перебираем все 25 упорядоченных пар, включая петли.
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := legalEdges[from][to]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestIsTerminal(t *testing.T) {
	cases := []struct {
		status OrderStatus
		want   bool
	}{
		{OrderStatusPending, false},
		{OrderStatusProcessing, false},
		{OrderStatusShipped, false},
		{OrderStatusDelivered, true},
		{OrderStatusCanceled, true},
		{OrderStatus("unknown"), false},
	}

	for _, tc := range cases {
		if got := IsTerminal(tc.status); got != tc.want {
			t.Errorf("IsTerminal(%s) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestTerminalStatusesHaveNoOutgoingEdges(t *testing.T) {
	for _, from := range []OrderStatus{OrderStatusDelivered, OrderStatusCanceled} {
		for _, to := range allStatuses {
			if CanTransition(from, to) {
				t.Errorf("terminal status %s must not allow transition to %s", from, to)
			}
		}
	}
}

func TestApplyTransition_Success(t *testing.T) {
	order := Order{ID: "order-1", Status: OrderStatusPending}

	updated, err := ApplyTransition(order, OrderStatusProcessing)
	if err != nil {
		t.Fatalf("apply transition failed: %v", err)
	}
	if updated.Status != OrderStatusProcessing {
		t.Fatalf("expected status processing, got %s", updated.Status)
	}
	if order.Status != OrderStatusPending {
		t.Fatalf("source order must not be mutated, got %s", order.Status)
	}
}

func TestApplyTransition_IllegalEdge(t *testing.T) {
	order := Order{ID: "order-1", Status: OrderStatusPending}

	updated, err := ApplyTransition(order, OrderStatusShipped)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if updated.Status != OrderStatusPending {
		t.Fatalf("status must stay pending after rejected transition, got %s", updated.Status)
	}
}

func TestApplyTransition_OutOfTerminal(t *testing.T) {
	order := Order{ID: "order-1", Status: OrderStatusCanceled}

	if _, err := ApplyTransition(order, OrderStatusPending); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition out of terminal status, got %v", err)
	}
}

func TestNextStatuses_ReturnsCopy(t *testing.T) {
	next := NextStatuses(OrderStatusPending)
	if len(next) != 2 {
		t.Fatalf("expected 2 next statuses for pending, got %d", len(next))
	}

	next[0] = OrderStatusDelivered
	if CanTransition(OrderStatusPending, OrderStatusDelivered) {
		t.Fatal("mutating NextStatuses result must not affect the transition table")
	}
}

func TestOrderValidateInvariants(t *testing.T) {
	now := time.Now().UTC()
	order := Order{
		ID:         "order-1",
		CustomerID: "customer-1",
		Status:     OrderStatusPending,
		Items: []OrderItem{
			{ID: "item-1", ProductID: "product-1", Qty: 2, PriceMinor: 100, CreatedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no violations, got %v", errs)
	}

	bad := Order{ID: "order-2", Items: []OrderItem{{ID: "item-1", Qty: 0}}}
	errs := bad.ValidateInvariants()
	if len(errs) != 3 {
		t.Fatalf("expected 3 violations, got %d: %v", len(errs), errs)
	}
}
