package checkout

import (
	"strings"

	"github.com/angelmondragon/forno-backend/internal/cart"
	"github.com/angelmondragon/forno-backend/internal/coupons"
	"github.com/angelmondragon/forno-backend/internal/delivery"
	"github.com/angelmondragon/forno-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/forno-backend/pkg/errors"
	"github.com/angelmondragon/forno-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// Form is the customer data collected at checkout.
type Form struct {
	CustomerName  string
	CustomerPhone string
	// Mode overrides the session's delivery mode when set.
	Mode      enums.DeliveryMode
	Address   types.DeliveryAddress
	Payment   enums.PaymentMethod
	ChangeFor *decimal.Decimal
}

// submission is a session frozen at the moment it left editing.
type submission struct {
	lines     []cart.Line
	subtotal  decimal.Decimal
	coupon    *coupons.Coupon
	mode      enums.DeliveryMode
	match     *delivery.Match
	customer  Customer
	sessionID string
}

// guardLocked runs the entry guards. The first failing field is reported; the caller keeps
// the session in editing.
func (s *Service) guardLocked(sess *Session, form Form) (*submission, error) {
	if sess.cart.IsEmpty() {
		return nil, pkgerrors.Field("cart", "must contain at least one item")
	}
	name := strings.TrimSpace(form.CustomerName)
	if name == "" {
		return nil, pkgerrors.Field("customer_name", "is required")
	}
	if !form.Payment.IsValid() {
		return nil, pkgerrors.Field("payment_method", "must be one of pix, cash, credit_card, debit_card")
	}

	mode := form.Mode
	if mode == "" {
		mode = sess.mode
	}
	if !mode.IsValid() {
		return nil, pkgerrors.Field("delivery_mode", "must be delivery or pickup")
	}

	sub := &submission{
		lines:     sess.cart.Lines(),
		subtotal:  sess.cart.Subtotal(),
		coupon:    sess.coupon,
		mode:      mode,
		sessionID: sess.id,
		customer: Customer{
			Name:    name,
			Phone:   strings.TrimSpace(form.CustomerPhone),
			Mode:    mode,
			Payment: form.Payment,
		},
	}

	if mode == enums.DeliveryModeDelivery {
		addr := form.Address.Trimmed()
		switch {
		case addr.Street == "":
			return nil, pkgerrors.Field("address.street", "is required for delivery")
		case addr.Number == "":
			return nil, pkgerrors.Field("address.number", "is required for delivery")
		case addr.District == "":
			return nil, pkgerrors.Field("address.district", "is required for delivery")
		}
		match, ok := delivery.Resolve(addr.PostalCode, addr.District, sess.regions)
		if !ok {
			return nil, pkgerrors.Field("region", "delivery is not available for this address")
		}
		sub.match = &match
		sub.customer.Address = &addr
	}

	if form.Payment == enums.PaymentMethodCash && form.ChangeFor != nil {
		preview, err := s.preview(sub.subtotal, sub.coupon, mode, sub.match)
		if err == nil && form.ChangeFor.LessThan(preview.Total) {
			return nil, pkgerrors.Field("change_for", "must be at least the order total")
		}
		change := *form.ChangeFor
		sub.customer.ChangeFor = &change
	}
	return sub, nil
}
