package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/forno-backend/internal/coupons"
	"github.com/angelmondragon/forno-backend/internal/delivery"
	"github.com/angelmondragon/forno-backend/internal/orders"
	"github.com/angelmondragon/forno-backend/internal/pricing"
	"github.com/angelmondragon/forno-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/forno-backend/pkg/errors"
	"github.com/angelmondragon/forno-backend/pkg/logger"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

const (
	defaultPersistTimeout    = 8 * time.Second
	defaultBackgroundTimeout = 60 * time.Second
	defaultPlaceholderPrefix = "LOCAL"
)

// RegionSource loads the delivery rule set for new sessions.
type RegionSource interface {
	ListActive(ctx context.Context) ([]delivery.Region, error)
}

// CouponValidator resolves coupon codes.
type CouponValidator interface {
	Validate(ctx context.Context, code string) (coupons.Coupon, error)
}

// StoreInfo is the storefront identity used in transcripts and handoffs.
type StoreInfo struct {
	Name             string
	Phone            string
	CountryCode      string
	MessagingBaseURL string
}

// ServiceParams wires a Service.
type ServiceParams struct {
	Writer            orders.Writer
	Coupons           CouponValidator
	Regions           RegionSource
	Store             StoreInfo
	FreeShipping      pricing.FreeShippingPolicy
	PersistTimeout    time.Duration
	BackgroundTimeout time.Duration
	RecentLimit       int
	PlaceholderPrefix string
	Logger            *logger.Logger
	Metrics           Metrics
	Now               func() time.Time
}

// Service drives checkout sessions: pricing, guards, the single persistence call, the
// transcript and the messaging handoff.
type Service struct {
	writer            orders.Writer
	coupons           CouponValidator
	regions           RegionSource
	store             StoreInfo
	freeShipping      pricing.FreeShippingPolicy
	persistTimeout    time.Duration
	backgroundTimeout time.Duration
	recentLimit       int
	placeholderPrefix string
	logg              *logger.Logger
	metrics           Metrics
	now               func() time.Time
}

// View is the read model of a session.
type View struct {
	ID               string              `json:"id"`
	State            enums.CheckoutState `json:"state"`
	Lines            []LineView          `json:"lines"`
	ItemCount        int                 `json:"item_count"`
	Quote            pricing.Quote       `json:"quote"`
	Coupon           *coupons.Coupon     `json:"coupon,omitempty"`
	Mode             enums.DeliveryMode  `json:"mode"`
	Region           *delivery.Match     `json:"region,omitempty"`
	RecentOrders     []string            `json:"recent_orders"`
	Receipt          *Receipt            `json:"receipt,omitempty"`
	HandoffAvailable bool                `json:"handoff_available"`
	FailureReason    string              `json:"failure_reason,omitempty"`
}

// LineView is a cart line with its computed prices.
type LineView struct {
	Index       int             `json:"index"`
	ProductID   string          `json:"product_id"`
	Name        string          `json:"name"`
	Code        *string         `json:"code,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
	Observation *string         `json:"observation,omitempty"`
	Options     []OptionView    `json:"options,omitempty"`
}

// OptionView is a selected option on a line.
type OptionView struct {
	Group  string          `json:"group"`
	Choice string          `json:"choice"`
	Price  decimal.Decimal `json:"price"`
}

// NewService validates dependencies and applies defaults.
func NewService(p ServiceParams) (*Service, error) {
	if p.Writer == nil {
		return nil, fmt.Errorf("order writer required")
	}
	if p.Coupons == nil {
		return nil, fmt.Errorf("coupon validator required")
	}
	if p.Regions == nil {
		return nil, fmt.Errorf("region source required")
	}
	if strings.TrimSpace(p.Store.Name) == "" {
		return nil, fmt.Errorf("store name required")
	}

	svc := &Service{
		writer:            p.Writer,
		coupons:           p.Coupons,
		regions:           p.Regions,
		store:             p.Store,
		freeShipping:      p.FreeShipping,
		persistTimeout:    p.PersistTimeout,
		backgroundTimeout: p.BackgroundTimeout,
		recentLimit:       p.RecentLimit,
		placeholderPrefix: p.PlaceholderPrefix,
		logg:              p.Logger,
		metrics:           p.Metrics,
		now:               p.Now,
	}
	if svc.persistTimeout <= 0 {
		svc.persistTimeout = defaultPersistTimeout
	}
	if svc.backgroundTimeout < svc.persistTimeout {
		svc.backgroundTimeout = max(defaultBackgroundTimeout, svc.persistTimeout)
	}
	if svc.recentLimit <= 0 {
		svc.recentLimit = DefaultRecentOrdersLimit
	}
	if svc.placeholderPrefix == "" {
		svc.placeholderPrefix = defaultPlaceholderPrefix
	}
	if svc.logg == nil {
		svc.logg = logger.Nop()
	}
	if svc.metrics == nil {
		svc.metrics = noopMetrics{}
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.store.CountryCode == "" {
		svc.store.CountryCode = "55"
	}
	if svc.store.MessagingBaseURL == "" {
		svc.store.MessagingBaseURL = "https://wa.me/"
	}
	return svc, nil
}

// NewSession starts a session with the current delivery rule set. Rules stay fixed for the
// session's lifetime.
func (s *Service) NewSession(ctx context.Context, id string) (*Session, error) {
	regions, err := s.regions.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery regions")
	}
	return NewSession(id, regions, s.recentLimit), nil
}

// ApplyCoupon validates code and applies it. An invalid code removes any applied coupon;
// an unavailable registry leaves the session untouched.
func (s *Service) ApplyCoupon(ctx context.Context, sess *Session, code string) (coupons.Coupon, error) {
	sess.mu.Lock()
	if err := sess.beginEditLocked(); err != nil {
		sess.mu.Unlock()
		return coupons.Coupon{}, err
	}
	sess.mu.Unlock()

	coupon, err := s.coupons.Validate(ctx, code)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err != nil {
		if coupons.IsInvalid(err) {
			sess.coupon = nil
		}
		return coupons.Coupon{}, err
	}
	if err := sess.beginEditLocked(); err != nil {
		return coupons.Coupon{}, err
	}
	sess.coupon = &coupon
	return coupon, nil
}

// QuoteDelivery resolves the delivery fee for an address and switches the session to
// delivery. ok is false when the address is not served.
func (s *Service) QuoteDelivery(sess *Session, postalCode, neighborhood string) (delivery.Match, bool, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.beginEditLocked(); err != nil {
		return delivery.Match{}, false, err
	}
	sess.mode = enums.DeliveryModeDelivery
	match, ok := delivery.Resolve(postalCode, neighborhood, sess.regions)
	if !ok {
		sess.region = nil
		return delivery.Match{}, false, nil
	}
	sess.region = &match
	return match, true, nil
}

// View renders the session with a display quote.
func (s *Service) View(sess *Session) View {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	lines := sess.cart.Lines()
	view := View{
		ID:               sess.id,
		State:            sess.state,
		Lines:            make([]LineView, 0, len(lines)),
		ItemCount:        sess.cart.ItemCount(),
		Coupon:           sess.coupon,
		Mode:             sess.mode,
		Region:           sess.region,
		RecentOrders:     sess.recent.IDs(),
		Receipt:          sess.receipt,
		HandoffAvailable: sess.receipt != nil && sess.receipt.Handoff != nil && !sess.handoffUsed,
		FailureReason:    sess.failureReason,
	}
	for i, l := range lines {
		lv := LineView{
			Index:       i,
			ProductID:   l.Product.ID.String(),
			Name:        l.Product.Name,
			Code:        l.Product.Code,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice(),
			Total:       l.Total(),
			Observation: l.Observation,
		}
		for _, opt := range l.Options {
			lv.Options = append(lv.Options, OptionView{Group: opt.Group, Choice: opt.Choice, Price: opt.Price})
		}
		view.Lines = append(view.Lines, lv)
	}
	if q, err := s.preview(sess.cart.Subtotal(), sess.coupon, sess.mode, sess.region); err == nil {
		view.Quote = q
	}
	return view
}

// Quote prices the session for display.
func (s *Service) Quote(sess *Session) (pricing.Quote, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.preview(sess.cart.Subtotal(), sess.coupon, sess.mode, sess.region)
}

func (s *Service) preview(subtotal decimal.Decimal, coupon *coupons.Coupon, mode enums.DeliveryMode, match *delivery.Match) (pricing.Quote, error) {
	return pricing.Preview(s.pricingInput(subtotal, coupon, mode, match))
}

func (s *Service) pricingInput(subtotal decimal.Decimal, coupon *coupons.Coupon, mode enums.DeliveryMode, match *delivery.Match) pricing.Input {
	in := pricing.Input{
		Subtotal:     subtotal,
		Coupon:       coupon,
		Mode:         mode,
		FreeShipping: s.freeShipping.Applies(subtotal),
	}
	if match != nil {
		fee := match.Fee
		in.Fee = &fee
	}
	return in
}

// Submit places the order. Guard failures keep the session editing and name the field. A
// duplicate call while submitting returns ErrSubmissionInFlight without side effects. The
// order is persisted at most once; a failed or slow write degrades to a placeholder
// reference and the session still reaches success.
func (s *Service) Submit(ctx context.Context, sess *Session, form Form) (*Receipt, error) {
	ctx = s.logg.WithSessionID(ctx, sess.id)

	sess.mu.Lock()
	switch sess.state {
	case enums.CheckoutStateSubmitting:
		sess.mu.Unlock()
		s.metrics.ObserveSubmission(OutcomeDuplicate)
		s.logg.Warn(ctx, "checkout.submit.duplicate")
		return nil, ErrSubmissionInFlight
	case enums.CheckoutStateSuccess:
		sess.mu.Unlock()
		s.metrics.ObserveSubmission(OutcomeDuplicate)
		return nil, ErrOrderAlreadyPlaced
	case enums.CheckoutStateFailed:
		sess.state = enums.CheckoutStateEditing
		sess.failureReason = ""
	}

	sub, err := s.guardLocked(sess, form)
	if err != nil {
		sess.mu.Unlock()
		s.metrics.ObserveSubmission(OutcomeRejected)
		if fe, ok := pkgerrors.FieldOf(err); ok {
			s.logg.Info(s.logg.WithField(ctx, "field", fe.Field), "checkout.submit.rejected")
		}
		return nil, err
	}
	sess.state = enums.CheckoutStateSubmitting
	sess.failureReason = ""
	if sub.match != nil {
		sess.region = sub.match
	}
	sess.mode = sub.mode
	sess.mu.Unlock()

	quote, err := pricing.Aggregate(s.pricingInput(sub.subtotal, sub.coupon, sub.mode, sub.match))
	if err != nil {
		sess.mu.Lock()
		sess.state = enums.CheckoutStateFailed
		sess.failureReason = err.Error()
		sess.mu.Unlock()
		s.metrics.ObserveSubmission(OutcomeFailed)
		s.logg.Error(ctx, "checkout.submit.pricing_failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "could not price order")
	}

	phone, needsReview := NormalizePhone(s.store.Phone, s.store.CountryCode)
	if needsReview {
		s.logg.Warn(s.logg.WithField(ctx, "store_phone", phone), "checkout.handoff.phone_needs_review")
	}

	customerPhone := ""
	if sub.customer.Phone != "" {
		customerPhone = delivery.DigitsOnly(sub.customer.Phone)
	}
	order := orders.NewOrder{
		SessionID:    sub.sessionID,
		CustomerName: sub.customer.Name,
		Mode:         sub.mode,
		Address:      sub.customer.Address,
		Payment:      sub.customer.Payment,
		ChangeFor:    sub.customer.ChangeFor,
		Quote:        quote,
		Lines:        sub.lines,
		NeedsReview:  needsReview,
	}
	if customerPhone != "" {
		order.CustomerPhone = &customerPhone
	}
	regionName := ""
	if sub.match != nil {
		regionName = sub.match.RegionName
		order.RegionName = &regionName
	}

	reference, persisted := s.persist(ctx, order)
	ctx = s.logg.WithOrderRef(ctx, reference)

	transcript := RenderTranscript(TranscriptInput{
		Reference:  reference,
		StoreName:  s.store.Name,
		Lines:      sub.lines,
		Quote:      quote,
		RegionName: regionName,
		Customer:   sub.customer,
	})
	receipt := &Receipt{
		Reference:   reference,
		Persisted:   persisted,
		Transcript:  transcript,
		Quote:       quote,
		Lines:       sub.lines,
		NeedsReview: needsReview,
		PlacedAt:    s.now().UTC(),
	}
	if phone != "" {
		receipt.Handoff = &HandoffPayload{
			URL:   BuildHandoffURL(s.store.MessagingBaseURL, phone, transcript),
			Phone: phone,
		}
	}

	sess.mu.Lock()
	if persisted {
		sess.recent.Add(reference)
	}
	sess.receipt = receipt
	sess.handoffUsed = false
	sess.cart.Clear()
	sess.state = enums.CheckoutStateSuccess
	sess.mu.Unlock()

	s.metrics.ObserveSubmission(OutcomeSucceeded)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"persisted": persisted,
		"total":     pricing.Format(quote.Total),
		"lines":     len(sub.lines),
	}), "checkout.submit.succeeded")
	return receipt, nil
}

// Handoff returns the messaging redirect for the placed order, exactly once.
func (s *Service) Handoff(ctx context.Context, sess *Session) (HandoffPayload, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.state != enums.CheckoutStateSuccess || sess.receipt == nil {
		return HandoffPayload{}, ErrNoOrderPlaced
	}
	if sess.receipt.Handoff == nil {
		return HandoffPayload{}, ErrHandoffUnavailable
	}
	if sess.handoffUsed {
		return HandoffPayload{}, ErrHandoffConsumed
	}
	sess.handoffUsed = true
	s.logg.Info(s.logg.WithOrderRef(s.logg.WithSessionID(ctx, sess.id), sess.receipt.Reference), "checkout.handoff.issued")
	return *sess.receipt.Handoff, nil
}

// IsGuardFailure reports whether err is a field-level rejection from Submit.
func IsGuardFailure(err error) bool {
	_, ok := pkgerrors.FieldOf(err)
	return ok
}

// IsDuplicate reports whether err came from a repeated submit.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrSubmissionInFlight) || errors.Is(err, ErrOrderAlreadyPlaced)
}

func (s *Service) placeholder() string {
	return s.placeholderPrefix + "-" + ulid.Make().String()
}
