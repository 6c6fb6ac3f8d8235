package assistant

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/forno-backend/internal/catalog"
	"github.com/angelmondragon/forno-backend/internal/checkout"
	"github.com/angelmondragon/forno-backend/internal/coupons"
	"github.com/angelmondragon/forno-backend/internal/delivery"
	"github.com/angelmondragon/forno-backend/internal/orders"
	"github.com/angelmondragon/forno-backend/internal/session"
	"github.com/angelmondragon/forno-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/forno-backend/pkg/errors"
	"github.com/angelmondragon/forno-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var calabresaID = uuid.MustParse("2b7f7d7a-6a53-4c1e-8d8f-1a2b3c4d5e6f")

func newTestDispatcher(t *testing.T) (*Dispatcher, *session.Manager, string) {
	t.Helper()
	registry, err := coupons.ParseStatic("TESTE10:10")
	require.NoError(t, err)
	validator, err := coupons.NewValidator(registry)
	require.NoError(t, err)

	svc, err := checkout.NewService(checkout.ServiceParams{
		Writer:  orders.NewNoopWriter(),
		Coupons: validator,
		Regions: delivery.NewStaticSource([]delivery.Region{
			{ID: uuid.New(), Name: "Centro", Fee: decimal.RequireFromString("5"), ZipRules: []string{"13295"}},
		}),
		Store: checkout.StoreInfo{Name: "Forno", Phone: "11 3333-4444"},
	})
	require.NoError(t, err)
	store, err := session.NewStore(session.NewMemory(), time.Hour)
	require.NoError(t, err)
	mgr, err := session.NewManager(store, svc, time.Minute, nil)
	require.NoError(t, err)

	menu, err := catalog.NewStaticService(catalog.Menu{Categories: []catalog.CategoryDTO{{
		ID:   uuid.New(),
		Name: "Pizzas",
		Products: []catalog.ProductDTO{{
			ID:    calabresaID,
			Name:  "Calabresa",
			Price: decimal.RequireFromString("45.00"),
			OptionGroups: types.OptionGroups{{
				Name:          "Borda",
				SelectionMode: enums.SelectionModeSingle,
				Choices:       []types.OptionChoice{{Name: "Catupiry", Price: decimal.RequireFromString("8")}},
			}},
		}},
	}}})
	require.NoError(t, err)

	d, err := NewDispatcher(mgr, menu, nil, nil)
	require.NoError(t, err)
	view, err := mgr.Create(context.Background())
	require.NoError(t, err)
	return d, mgr, view.ID
}

func TestDispatchFullConversation(t *testing.T) {
	ctx := context.Background()
	d, mgr, id := newTestDispatcher(t)

	out, err := d.Dispatch(ctx, id, ToolAddToCart, []byte(`{"product_id":"`+calabresaID.String()+`","quantity":2,"options":[{"group":"Borda","choice":"Catupiry"}]}`))
	require.NoError(t, err)
	added := out.(AddToCartResult)
	assert.Equal(t, 0, added.LineIndex)
	assert.Equal(t, 2, added.Items)
	assert.Equal(t, "R$ 106,00", added.Subtotal)

	out, err = d.Dispatch(ctx, id, ToolQuoteDelivery, []byte(`{"postal_code":"13295-150"}`))
	require.NoError(t, err)
	quote := out.(QuoteDeliveryResult)
	assert.True(t, quote.Available)
	assert.Equal(t, "R$ 5,00", quote.Fee)

	out, err = d.Dispatch(ctx, id, ToolValidateCoupon, []byte(`{"code":"teste10"}`))
	require.NoError(t, err)
	assert.Equal(t, CouponApplied, out.(ValidateCouponResult).Status)

	out, err = d.Dispatch(ctx, id, ToolPriceCart, nil)
	require.NoError(t, err)
	price := out.(PriceCartResult)
	assert.Equal(t, "R$ 100,40", price.Total)
	assert.Equal(t, "2x Calabresa (R$ 106,00)", price.Summary)

	out, err = d.Dispatch(ctx, id, ToolPlaceOrder, []byte(`{
		"customer_name": "Maria",
		"mode": "delivery",
		"payment_method": "pix",
		"address": {"postal_code": "13295150", "street": "Rua A", "number": "10", "district": "Centro"}
	}`))
	require.NoError(t, err)
	placed := out.(PlaceOrderResult)
	assert.False(t, placed.Persisted)
	assert.Equal(t, "R$ 100,40", placed.Total)
	assert.Contains(t, placed.HandoffURL, "https://wa.me/551133334444?text=")
	assert.Contains(t, placed.Transcript, "*Cupom (TESTE10):* - R$ 10,60")

	view, err := mgr.View(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStateSuccess, view.State)
	assert.False(t, view.HandoffAvailable, "the assistant consumes the one-shot handoff")
}

func TestDispatchCouponOutcomes(t *testing.T) {
	ctx := context.Background()
	d, _, id := newTestDispatcher(t)

	out, err := d.Dispatch(ctx, id, ToolValidateCoupon, []byte(`{"code":"NADA"}`))
	require.NoError(t, err)
	assert.Equal(t, CouponInvalid, out.(ValidateCouponResult).Status)
}

func TestDispatchUncoveredAddress(t *testing.T) {
	d, _, id := newTestDispatcher(t)

	out, err := d.Dispatch(context.Background(), id, ToolQuoteDelivery, []byte(`{"postal_code":"01001-000","neighborhood":"Sé"}`))
	require.NoError(t, err)
	assert.False(t, out.(QuoteDeliveryResult).Available)
}

func TestDispatchErrors(t *testing.T) {
	ctx := context.Background()
	d, _, id := newTestDispatcher(t)

	_, err := d.Dispatch(ctx, id, "order_pizza", nil)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	_, err = d.Dispatch(ctx, id, ToolAddToCart, []byte(`{"product_id":"nope","quantity":1}`))
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = d.Dispatch(ctx, id, ToolAddToCart, []byte(`{"bogus":true}`))
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = d.Dispatch(ctx, id, ToolPlaceOrder, []byte(`{"customer_name":"Ana","mode":"pickup","payment_method":"boleto"}`))
	fe, ok := pkgerrors.FieldOf(err)
	require.True(t, ok)
	assert.Equal(t, "payment_method", fe.Field)

	_, err = d.Dispatch(ctx, id, ToolPlaceOrder, []byte(`{"customer_name":"Ana","mode":"pickup","payment_method":"pix"}`))
	fe, ok = pkgerrors.FieldOf(err)
	require.True(t, ok)
	assert.Equal(t, "cart", fe.Field)

	_, err = d.Dispatch(ctx, "missing", ToolPriceCart, nil)
	assert.True(t, session.IsNotFound(err))
}

func TestToolsListing(t *testing.T) {
	assert.Equal(t, []string{"quote_delivery", "validate_coupon", "price_cart", "add_to_cart", "place_order"}, Tools())
}
