package enums

import "testing"

func TestParsePaymentMethod(t *testing.T) {
	got, err := ParsePaymentMethod(" PIX ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != PaymentMethodPix {
		t.Fatalf("expected pix, got %s", got)
	}
	if got.Label() != "Pix" {
		t.Fatalf("unexpected label %q", got.Label())
	}
	if _, err := ParsePaymentMethod("boleto"); err == nil {
		t.Fatal("expected boleto to be rejected")
	}
	if PaymentMethod("").IsValid() {
		t.Fatal("empty payment method must be invalid")
	}
}

func TestParseDeliveryMode(t *testing.T) {
	if got, err := ParseDeliveryMode("Pickup"); err != nil || got != DeliveryModePickup {
		t.Fatalf("expected pickup, got %s (%v)", got, err)
	}
	if _, err := ParseDeliveryMode("drone"); err == nil {
		t.Fatal("expected unknown mode to fail")
	}
}

func TestCheckoutStateTerminal(t *testing.T) {
	if !CheckoutStateSuccess.IsTerminal() {
		t.Fatal("success must be terminal")
	}
	if CheckoutStateFailed.IsTerminal() {
		t.Fatal("failed must be recoverable")
	}
	if _, err := ParseCheckoutState("bogus"); err == nil {
		t.Fatal("expected bogus state to fail")
	}
}

func TestParseSelectionModeDefaultsToSingle(t *testing.T) {
	got, err := ParseSelectionMode("")
	if err != nil || got != SelectionModeSingle {
		t.Fatalf("expected single default, got %s (%v)", got, err)
	}
	if _, err := ParseSelectionMode("many"); err == nil {
		t.Fatal("expected unknown selection mode to fail")
	}
}

func TestParseOutboxTypes(t *testing.T) {
	if got, err := ParseOutboxEventType("order_placed"); err != nil || got != EventOrderPlaced {
		t.Fatalf("expected order_placed, got %s (%v)", got, err)
	}
	if _, err := ParseOutboxAggregateType("vendor_order"); err == nil {
		t.Fatal("expected unknown aggregate to fail")
	}
	if !OutboxDLQReasonMaxAttempts.IsValid() || OutboxDLQErrorReason("later").IsValid() {
		t.Fatal("unexpected dlq reason validity")
	}
	if got, err := ParseOutboxDLQErrorReason(" Non_Retryable "); err != nil || got != OutboxDLQReasonNonRetryable {
		t.Fatalf("expected non_retryable, got %s (%v)", got, err)
	}
}
