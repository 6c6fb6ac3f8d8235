package checkout

import (
	"sync"
	"time"

	"github.com/angelmondragon/forno-backend/internal/cart"
	"github.com/angelmondragon/forno-backend/internal/coupons"
	"github.com/angelmondragon/forno-backend/internal/delivery"
	"github.com/angelmondragon/forno-backend/internal/pricing"
	"github.com/angelmondragon/forno-backend/pkg/enums"
)

// Receipt is the frozen result of a successful submission.
type Receipt struct {
	Reference   string          `json:"reference"`
	Persisted   bool            `json:"persisted"`
	Transcript  string          `json:"transcript"`
	Quote       pricing.Quote   `json:"quote"`
	Lines       []cart.Line     `json:"lines"`
	NeedsReview bool            `json:"needs_review"`
	PlacedAt    time.Time       `json:"placed_at"`
	Handoff     *HandoffPayload `json:"handoff,omitempty"`
}

// HandoffPayload is what the messaging redirect needs; kept on the receipt so a restored
// session can still hand off exactly once.
type HandoffPayload struct {
	URL   string `json:"url"`
	Phone string `json:"phone"`
}

// Session is the state of one customer's checkout. Methods are safe for concurrent use; the
// lock is released while an order is being persisted so a duplicate submit observes the
// submitting state.
type Session struct {
	mu            sync.Mutex
	id            string
	state         enums.CheckoutState
	cart          *cart.Cart
	coupon        *coupons.Coupon
	mode          enums.DeliveryMode
	region        *delivery.Match
	regions       []delivery.Region
	recent        *RecentOrders
	receipt       *Receipt
	handoffUsed   bool
	failureReason string
}

// Snapshot is the serializable form of a Session.
type Snapshot struct {
	ID            string              `json:"id"`
	State         enums.CheckoutState `json:"state"`
	Cart          cart.Snapshot       `json:"cart"`
	Coupon        *coupons.Coupon     `json:"coupon,omitempty"`
	Mode          enums.DeliveryMode  `json:"mode"`
	Region        *delivery.Match     `json:"region,omitempty"`
	Regions       []delivery.Region   `json:"regions,omitempty"`
	RecentOrders  []string            `json:"recent_orders,omitempty"`
	RecentLimit   int                 `json:"recent_limit"`
	Receipt       *Receipt            `json:"receipt,omitempty"`
	HandoffUsed   bool                `json:"handoff_used,omitempty"`
	FailureReason string              `json:"failure_reason,omitempty"`
}

// NewSession starts an editing session over the given delivery regions.
func NewSession(id string, regions []delivery.Region, recentLimit int) *Session {
	return &Session{
		id:      id,
		state:   enums.CheckoutStateEditing,
		cart:    cart.New(),
		mode:    enums.DeliveryModeDelivery,
		regions: append([]delivery.Region(nil), regions...),
		recent:  NewRecentOrders(recentLimit),
	}
}

// RestoreSession rebuilds a session. A snapshot taken mid-submission restores as failed,
// since the submission that owned it can no longer finish.
func RestoreSession(s Snapshot) *Session {
	state := s.State
	if !state.IsValid() {
		state = enums.CheckoutStateEditing
	}
	reason := s.FailureReason
	if state == enums.CheckoutStateSubmitting {
		state = enums.CheckoutStateFailed
		reason = "submission interrupted"
	}
	mode := s.Mode
	if !mode.IsValid() {
		mode = enums.DeliveryModeDelivery
	}
	return &Session{
		id:            s.ID,
		state:         state,
		cart:          cart.Restore(s.Cart),
		coupon:        s.Coupon,
		mode:          mode,
		region:        s.Region,
		regions:       s.Regions,
		recent:        NewRecentOrders(s.RecentLimit, s.RecentOrders...),
		receipt:       s.Receipt,
		handoffUsed:   s.HandoffUsed,
		failureReason: reason,
	}
}

// Snapshot captures the session for storage.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:            s.id,
		State:         s.state,
		Cart:          s.cart.Snapshot(),
		Coupon:        s.coupon,
		Mode:          s.mode,
		Region:        s.region,
		Regions:       s.regions,
		RecentOrders:  s.recent.IDs(),
		RecentLimit:   s.recent.Limit(),
		Receipt:       s.receipt,
		HandoffUsed:   s.handoffUsed,
		FailureReason: s.failureReason,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current checkout state.
func (s *Session) State() enums.CheckoutState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Lines returns a copy of the cart lines.
func (s *Session) Lines() []cart.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Lines()
}

// RecentOrders returns persisted order identifiers, most recent first.
func (s *Session) RecentOrders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recent.IDs()
}

// Receipt returns the last successful submission, if any.
func (s *Session) Receipt() *Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.receipt
}

// AddLine adds a product to the cart. Editing a placed order starts a fresh one.
func (s *Session) AddLine(product cart.ProductRef, quantity int, observation string, options []cart.SelectedOption) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.beginEditLocked(); err != nil {
		return -1, err
	}
	return s.cart.AddLine(product, quantity, observation, options)
}

// UpdateQuantity changes a quantity; below one it asks for confirmation instead.
func (s *Session) UpdateQuantity(index, quantity int) (cart.QuantityOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.beginEditLocked(); err != nil {
		return "", err
	}
	return s.cart.UpdateQuantity(index, quantity)
}

// SetQuantity changes a quantity without confirmation; below one removes the line.
func (s *Session) SetQuantity(index, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.beginEditLocked(); err != nil {
		return err
	}
	return s.cart.SetQuantity(index, quantity)
}

// UpdateObservation replaces a line's note.
func (s *Session) UpdateObservation(index int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.beginEditLocked(); err != nil {
		return err
	}
	return s.cart.UpdateObservation(index, text)
}

// RemoveLine deletes a line.
func (s *Session) RemoveLine(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.beginEditLocked(); err != nil {
		return err
	}
	return s.cart.RemoveLine(index)
}

// ClearCart empties the cart.
func (s *Session) ClearCart() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.beginEditLocked(); err != nil {
		return err
	}
	s.cart.Clear()
	return nil
}

// SetMode switches between delivery and pickup.
func (s *Session) SetMode(mode enums.DeliveryMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.beginEditLocked(); err != nil {
		return err
	}
	s.mode = mode
	return nil
}

// RemoveCoupon drops the applied coupon.
func (s *Session) RemoveCoupon() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.beginEditLocked(); err != nil {
		return err
	}
	s.coupon = nil
	return nil
}

// Recover moves a failed checkout back to editing.
func (s *Session) Recover() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != enums.CheckoutStateFailed {
		return ErrNothingToRecover
	}
	s.state = enums.CheckoutStateEditing
	s.failureReason = ""
	return nil
}

// Reset discards the cart and any placed order, keeping the recent orders list and regions.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == enums.CheckoutStateSubmitting {
		return ErrSubmissionInFlight
	}
	s.resetLocked()
	return nil
}

func (s *Session) resetLocked() {
	s.state = enums.CheckoutStateEditing
	s.cart = cart.New()
	s.coupon = nil
	s.region = nil
	s.mode = enums.DeliveryModeDelivery
	s.receipt = nil
	s.handoffUsed = false
	s.failureReason = ""
}

// beginEditLocked gates cart and option changes: blocked while submitting, a fresh order
// after success, and back to editing after a failure.
func (s *Session) beginEditLocked() error {
	switch s.state {
	case enums.CheckoutStateSubmitting:
		return ErrSubmissionInFlight
	case enums.CheckoutStateSuccess:
		s.resetLocked()
	case enums.CheckoutStateFailed:
		s.state = enums.CheckoutStateEditing
		s.failureReason = ""
	}
	return nil
}
