package enums

import "testing"

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusPaid, true},
		{OrderStatusPending, OrderStatusPaidMock, true},
		{OrderStatusPending, OrderStatusFailed, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPaidMock, OrderStatusPaid, true},
		{OrderStatusPaidMock, OrderStatusFailed, true},
		{OrderStatusPaidMock, OrderStatusCancelled, true},
		{OrderStatusPaidMock, OrderStatusPending, false},
		{OrderStatusPaid, OrderStatusCancelled, false},
		{OrderStatusFailed, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusPaid, false},
		{OrderStatusPending, OrderStatusPending, false},
		{OrderStatusPending, OrderStatus("bogus"), false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestOrderStatusIsSettled(t *testing.T) {
	if !OrderStatusPaid.IsSettled() || !OrderStatusPaidMock.IsSettled() {
		t.Fatal("paid and paid_mock are settled")
	}
	if OrderStatusPending.IsSettled() || OrderStatusFailed.IsSettled() || OrderStatusCancelled.IsSettled() {
		t.Fatal("other statuses are not settled")
	}
}

func TestParseOrderStatus(t *testing.T) {
	if _, err := ParseOrderStatus("paid_mock"); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := ParseOrderStatus("PAID"); err == nil {
		t.Fatal("parse is case sensitive")
	}
}
