package checkout

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/angelmondragon/forno-backend/internal/cart"
	"github.com/angelmondragon/forno-backend/internal/coupons"
	"github.com/angelmondragon/forno-backend/internal/delivery"
	"github.com/angelmondragon/forno-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func productRef(name, price string) cart.ProductRef {
	return cart.ProductRef{ID: uuid.New(), Name: name, UnitPrice: decimal.RequireFromString(price)}
}

func TestNewSessionStartsEditingForDelivery(t *testing.T) {
	t.Parallel()

	sess := NewSession("s1", nil, 0)
	if sess.State() != enums.CheckoutStateEditing {
		t.Fatalf("expected editing, got %s", sess.State())
	}
	if snap := sess.Snapshot(); snap.Mode != enums.DeliveryModeDelivery || snap.RecentLimit != DefaultRecentOrdersLimit {
		t.Fatalf("unexpected defaults %+v", snap)
	}
}

func TestSessionEditsBlockedWhileSubmitting(t *testing.T) {
	t.Parallel()

	sess := NewSession("s1", nil, 5)
	if _, err := sess.AddLine(productRef("Calabresa", "45"), 1, "", nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	sess.state = enums.CheckoutStateSubmitting

	if _, err := sess.AddLine(productRef("Mussarela", "40"), 1, "", nil); !errors.Is(err, ErrSubmissionInFlight) {
		t.Fatalf("expected in-flight error, got %v", err)
	}
	if err := sess.RemoveLine(0); !errors.Is(err, ErrSubmissionInFlight) {
		t.Fatalf("expected in-flight error, got %v", err)
	}
	if err := sess.Reset(); !errors.Is(err, ErrSubmissionInFlight) {
		t.Fatalf("expected in-flight error, got %v", err)
	}
	if len(sess.Lines()) != 1 {
		t.Fatal("cart must be untouched while submitting")
	}
}

func TestSessionEditAfterSuccessStartsFreshOrder(t *testing.T) {
	t.Parallel()

	sess := NewSession("s1", nil, 5)
	sess.state = enums.CheckoutStateSuccess
	sess.receipt = &Receipt{Reference: "r1"}
	sess.recent.Add("r1")
	sess.coupon = &coupons.Coupon{Code: "TESTE10", Percent: decimal.NewFromInt(10)}

	if _, err := sess.AddLine(productRef("Calabresa", "45"), 1, "", nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	if sess.State() != enums.CheckoutStateEditing || sess.Receipt() != nil {
		t.Fatalf("expected a fresh editing order, got %s", sess.State())
	}
	if sess.Snapshot().Coupon != nil {
		t.Fatal("coupon must not carry over to a new order")
	}
	if ids := sess.RecentOrders(); len(ids) != 1 || ids[0] != "r1" {
		t.Fatalf("recent orders must survive, got %v", ids)
	}
}

func TestSessionRecover(t *testing.T) {
	t.Parallel()

	sess := NewSession("s1", nil, 5)
	if err := sess.Recover(); !errors.Is(err, ErrNothingToRecover) {
		t.Fatalf("expected nothing to recover, got %v", err)
	}

	sess.state = enums.CheckoutStateFailed
	sess.failureReason = "boom"
	if err := sess.Recover(); err != nil {
		t.Fatalf("recover: %v", err)
	}
	if snap := sess.Snapshot(); snap.State != enums.CheckoutStateEditing || snap.FailureReason != "" {
		t.Fatalf("expected clean editing state, got %+v", snap)
	}
}

func TestSessionEditAfterFailureReturnsToEditing(t *testing.T) {
	t.Parallel()

	sess := NewSession("s1", nil, 5)
	if _, err := sess.AddLine(productRef("Calabresa", "45"), 1, "", nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	sess.state = enums.CheckoutStateFailed

	if err := sess.SetMode(enums.DeliveryModePickup); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	if sess.State() != enums.CheckoutStateEditing || len(sess.Lines()) != 1 {
		t.Fatal("a failed checkout keeps its cart when editing resumes")
	}
}

func TestSessionSnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	regions := []delivery.Region{{ID: uuid.New(), Name: "Centro", Fee: decimal.RequireFromString("5"), ZipRules: []string{"13295"}}}
	sess := NewSession("s1", regions, 3)
	if _, err := sess.AddLine(productRef("Calabresa", "45"), 2, "sem cebola", nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	sess.recent.Add("o1")
	sess.recent.Add("o2")

	raw, err := json.Marshal(sess.Snapshot())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	restored := RestoreSession(snap)

	if restored.ID() != "s1" || restored.State() != enums.CheckoutStateEditing {
		t.Fatalf("unexpected restored session %+v", restored.Snapshot())
	}
	if lines := restored.Lines(); len(lines) != 1 || lines[0].Quantity != 2 {
		t.Fatalf("unexpected lines %+v", lines)
	}
	if ids := restored.RecentOrders(); len(ids) != 2 || ids[0] != "o2" {
		t.Fatalf("unexpected recent orders %v", ids)
	}
	if restored.Snapshot().RecentLimit != 3 {
		t.Fatal("recent limit must survive a round trip")
	}
	if _, ok := delivery.Resolve("13295-100", "", restored.regions); !ok {
		t.Fatal("regions must survive a round trip")
	}
}

func TestRestoreSessionInterruptedSubmissionFails(t *testing.T) {
	t.Parallel()

	restored := RestoreSession(Snapshot{ID: "s1", State: enums.CheckoutStateSubmitting})
	snap := restored.Snapshot()
	if snap.State != enums.CheckoutStateFailed || snap.FailureReason == "" {
		t.Fatalf("expected failed state with a reason, got %+v", snap)
	}
	if err := restored.Recover(); err != nil {
		t.Fatalf("recover: %v", err)
	}
}

func TestRestoreSessionUnknownValuesFallBack(t *testing.T) {
	t.Parallel()

	restored := RestoreSession(Snapshot{ID: "s1", State: "bogus", Mode: "drone"})
	snap := restored.Snapshot()
	if snap.State != enums.CheckoutStateEditing || snap.Mode != enums.DeliveryModeDelivery {
		t.Fatalf("expected defaults, got %+v", snap)
	}
}
