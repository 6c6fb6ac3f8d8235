package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/angelmondragon/forno-backend/internal/catalog"
	"github.com/angelmondragon/forno-backend/internal/checkout"
	"github.com/angelmondragon/forno-backend/internal/coupons"
	"github.com/angelmondragon/forno-backend/internal/pricing"
	"github.com/angelmondragon/forno-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/forno-backend/pkg/errors"
	"github.com/angelmondragon/forno-backend/pkg/logger"
	"github.com/google/uuid"
)

// Sessions is the session surface the tools act on.
type Sessions interface {
	View(ctx context.Context, id string) (checkout.View, error)
	Update(ctx context.Context, id string, fn func(*checkout.Session) error) (checkout.View, error)
	Submit(ctx context.Context, id string, form checkout.Form) (*checkout.Receipt, error)
	Service() *checkout.Service
}

// ArgsDecoder decodes and validates raw tool arguments into dest.
type ArgsDecoder func(raw []byte, dest any) error

// Dispatcher runs assistant tool calls against the same engine the checkout routes use.
type Dispatcher struct {
	sessions Sessions
	catalog  catalog.Service
	decode   ArgsDecoder
	logg     *logger.Logger
}

// NewDispatcher wires the tools. decode defaults to strict JSON decoding without validation.
func NewDispatcher(sessions Sessions, menu catalog.Service, decode ArgsDecoder, logg *logger.Logger) (*Dispatcher, error) {
	if sessions == nil {
		return nil, fmt.Errorf("sessions required")
	}
	if menu == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if decode == nil {
		decode = strictJSON
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Dispatcher{sessions: sessions, catalog: menu, decode: decode, logg: logg}, nil
}

// Dispatch runs tool for the session with raw JSON arguments.
func (d *Dispatcher) Dispatch(ctx context.Context, sessionID, tool string, raw []byte) (any, error) {
	ctx = d.logg.WithFields(d.logg.WithSessionID(ctx, sessionID), map[string]any{"tool": tool})
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}

	var (
		out any
		err error
	)
	switch tool {
	case ToolQuoteDelivery:
		out, err = d.quoteDelivery(ctx, sessionID, raw)
	case ToolValidateCoupon:
		out, err = d.validateCoupon(ctx, sessionID, raw)
	case ToolPriceCart:
		out, err = d.priceCart(ctx, sessionID)
	case ToolAddToCart:
		out, err = d.addToCart(ctx, sessionID, raw)
	case ToolPlaceOrder:
		out, err = d.placeOrder(ctx, sessionID, raw)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("unknown tool %q", tool))
	}
	if err != nil {
		d.logg.Warn(d.logg.WithField(ctx, "error", err.Error()), "assistant.tool.failed")
		return nil, err
	}
	d.logg.Info(ctx, "assistant.tool.completed")
	return out, nil
}

func (d *Dispatcher) quoteDelivery(ctx context.Context, sessionID string, raw []byte) (QuoteDeliveryResult, error) {
	var args QuoteDeliveryArgs
	if err := d.decode(raw, &args); err != nil {
		return QuoteDeliveryResult{}, err
	}

	var result QuoteDeliveryResult
	_, err := d.sessions.Update(ctx, sessionID, func(s *checkout.Session) error {
		match, ok, err := d.sessions.Service().QuoteDelivery(s, args.PostalCode, args.Neighborhood)
		if err != nil {
			return err
		}
		if !ok {
			result = QuoteDeliveryResult{Message: "Infelizmente ainda não entregamos nesse endereço."}
			return nil
		}
		result = QuoteDeliveryResult{
			Available: true,
			Region:    match.RegionName,
			Fee:       pricing.FormatBRL(match.Fee),
			Message:   fmt.Sprintf("Entregamos em %s. Taxa de entrega: %s.", match.RegionName, pricing.FormatBRL(match.Fee)),
		}
		return nil
	})
	return result, err
}

func (d *Dispatcher) validateCoupon(ctx context.Context, sessionID string, raw []byte) (ValidateCouponResult, error) {
	var args ValidateCouponArgs
	if err := d.decode(raw, &args); err != nil {
		return ValidateCouponResult{}, err
	}

	var result ValidateCouponResult
	_, err := d.sessions.Update(ctx, sessionID, func(s *checkout.Session) error {
		coupon, err := d.sessions.Service().ApplyCoupon(ctx, s, args.Code)
		switch {
		case err == nil:
			result = ValidateCouponResult{
				Status:  CouponApplied,
				Code:    coupon.Code,
				Percent: coupon.Percent.String(),
				Message: fmt.Sprintf("Cupom %s aplicado: %s%% de desconto.", coupon.Code, coupon.Percent.String()),
			}
		case coupons.IsInvalid(err):
			result = ValidateCouponResult{Status: CouponInvalid, Message: "Cupom inválido."}
		case coupons.IsUnavailable(err):
			result = ValidateCouponResult{Status: CouponUnavailable, Message: "Não foi possível validar o cupom agora. Tente novamente."}
		default:
			return err
		}
		return nil
	})
	return result, err
}

func (d *Dispatcher) priceCart(ctx context.Context, sessionID string) (PriceCartResult, error) {
	view, err := d.sessions.View(ctx, sessionID)
	if err != nil {
		return PriceCartResult{}, err
	}
	q := view.Quote
	result := PriceCartResult{
		Items:       view.ItemCount,
		Subtotal:    pricing.FormatBRL(q.Subtotal),
		Discount:    pricing.FormatBRL(q.Discount),
		Delivery:    pricing.FormatBRL(q.DeliveryCharge),
		Total:       pricing.FormatBRL(q.Total),
		FeeResolved: q.FeeResolved,
	}
	lines := make([]string, 0, len(view.Lines))
	for _, l := range view.Lines {
		lines = append(lines, fmt.Sprintf("%dx %s (%s)", l.Quantity, l.Name, pricing.FormatBRL(l.Total)))
	}
	result.Summary = strings.Join(lines, "; ")
	return result, nil
}

func (d *Dispatcher) addToCart(ctx context.Context, sessionID string, raw []byte) (AddToCartResult, error) {
	var args AddToCartArgs
	if err := d.decode(raw, &args); err != nil {
		return AddToCartResult{}, err
	}
	productID, err := uuid.Parse(args.ProductID)
	if err != nil {
		return AddToCartResult{}, pkgerrors.Field("product_id", "must be a valid uuid")
	}
	ref, options, err := catalog.PrepareLine(ctx, d.catalog, productID, args.Options)
	if err != nil {
		return AddToCartResult{}, err
	}

	index := -1
	view, err := d.sessions.Update(ctx, sessionID, func(s *checkout.Session) error {
		idx, err := s.AddLine(ref, args.Quantity, args.Observation, options)
		index = idx
		return err
	})
	if err != nil {
		return AddToCartResult{}, err
	}
	return AddToCartResult{
		LineIndex: index,
		Items:     view.ItemCount,
		Subtotal:  pricing.FormatBRL(view.Quote.Subtotal),
	}, nil
}

func (d *Dispatcher) placeOrder(ctx context.Context, sessionID string, raw []byte) (PlaceOrderResult, error) {
	var args PlaceOrderArgs
	if err := d.decode(raw, &args); err != nil {
		return PlaceOrderResult{}, err
	}
	payment, err := enums.ParsePaymentMethod(args.Payment)
	if err != nil {
		return PlaceOrderResult{}, pkgerrors.Field("payment_method", "must be one of pix, cash, credit_card, debit_card")
	}
	form := checkout.Form{
		CustomerName:  args.CustomerName,
		CustomerPhone: args.CustomerPhone,
		Mode:          args.mode(),
		Payment:       payment,
		ChangeFor:     args.ChangeFor,
	}
	if args.Address != nil {
		form.Address = args.Address.toDeliveryAddress()
	}

	receipt, err := d.sessions.Submit(ctx, sessionID, form)
	if err != nil {
		return PlaceOrderResult{}, err
	}
	result := PlaceOrderResult{
		Reference:  receipt.Reference,
		Persisted:  receipt.Persisted,
		Total:      pricing.FormatBRL(receipt.Quote.Total),
		Transcript: receipt.Transcript,
	}
	if receipt.Handoff == nil {
		return result, nil
	}
	_, err = d.sessions.Update(ctx, sessionID, func(s *checkout.Session) error {
		payload, err := d.sessions.Service().Handoff(ctx, s)
		if err != nil {
			return err
		}
		result.HandoffURL = payload.URL
		return nil
	})
	if err != nil {
		d.logg.Warn(d.logg.WithField(ctx, "error", err.Error()), "assistant.handoff.skipped")
	}
	return result, nil
}

func strictJSON(raw []byte, dest any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tool arguments")
	}
	return nil
}
