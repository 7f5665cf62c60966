package entities

import "testing"

func TestPaymentStatus_Terminal(t *testing.T) {
	cases := []struct {
		status PaymentStatus
		want   bool
	}{
		{PaymentStatusInitiated, false},
		{PaymentStatusPaid, true},
		{PaymentStatusFailed, true},
		{PaymentStatus("refunded"), false},
	}
	for _, tc := range cases {
		if got := tc.status.Terminal(); got != tc.want {
			t.Fatalf("Terminal(%s) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestPaymentStatus_ValidOverride(t *testing.T) {
	if PaymentStatusInitiated.ValidOverride() {
		t.Fatalf("initiated must not be a valid override target")
	}
	if !PaymentStatusPaid.ValidOverride() || !PaymentStatusFailed.ValidOverride() {
		t.Fatalf("paid and failed must be valid override targets")
	}
	if PaymentStatus("refunded").ValidOverride() {
		t.Fatalf("unknown statuses must not be valid override targets")
	}
}

func TestOutcomeFromProviderStatus(t *testing.T) {
	for _, status := range []string{"successful", "completed", "charge.completed"} {
		if OutcomeFromProviderStatus(status) != OutcomeSuccess {
			t.Fatalf("expected %q to map to success", status)
		}
	}
	// Anything off the explicit list is a failure, including near-misses.
	for _, status := range []string{"failed", "cancelled", "SUCCESSFUL", "success", "pending", ""} {
		if OutcomeFromProviderStatus(status) != OutcomeFailure {
			t.Fatalf("expected %q to map to failure", status)
		}
	}
}

func TestStatusForOutcome(t *testing.T) {
	if StatusForOutcome(OutcomeSuccess) != PaymentStatusPaid {
		t.Fatalf("success must resolve to paid")
	}
	if StatusForOutcome(OutcomeFailure) != PaymentStatusFailed {
		t.Fatalf("failure must resolve to failed")
	}
}

func TestOrderStatusForOutcome(t *testing.T) {
	if OrderStatusForOutcome(OutcomeSuccess) != OrderStatusPaid {
		t.Fatalf("success must resolve to paid order")
	}
	if OrderStatusForOutcome(OutcomeFailure) != OrderStatusPaymentFailed {
		t.Fatalf("failure must resolve to payment_failed order")
	}
}
