package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/forno-backend/api/middleware"
	"github.com/angelmondragon/forno-backend/internal/catalog"
	"github.com/angelmondragon/forno-backend/internal/checkout"
	"github.com/angelmondragon/forno-backend/internal/coupons"
	"github.com/angelmondragon/forno-backend/internal/delivery"
	"github.com/angelmondragon/forno-backend/internal/orders"
	"github.com/angelmondragon/forno-backend/internal/session"
	"github.com/angelmondragon/forno-backend/pkg/enums"
	"github.com/angelmondragon/forno-backend/pkg/types"
)

type testEnv struct {
	mgr       *session.Manager
	menu      catalog.Service
	calabresa uuid.UUID
	guarana   uuid.UUID
}

func newTestEnv(t *testing.T, lookup coupons.Lookup) *testEnv {
	t.Helper()

	if lookup == nil {
		registry, err := coupons.ParseStatic("TESTE10:10")
		if err != nil {
			t.Fatalf("parse coupons: %v", err)
		}
		lookup = registry
	}
	validator, err := coupons.NewValidator(lookup)
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	svc, err := checkout.NewService(checkout.ServiceParams{
		Writer:  orders.NewNoopWriter(),
		Coupons: validator,
		Regions: delivery.NewStaticSource([]delivery.Region{
			{ID: uuid.New(), Name: "Centro", Fee: decimal.RequireFromString("5.00"), ZipRules: []string{"13295"}},
		}),
		Store:          checkout.StoreInfo{Name: "Forno Bello", Phone: "(11) 3333-4444"},
		PersistTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("checkout service: %v", err)
	}

	store, err := session.NewStore(session.NewMemory(), time.Hour)
	if err != nil {
		t.Fatalf("session store: %v", err)
	}
	mgr, err := session.NewManager(store, svc, time.Minute, nil)
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}

	env := &testEnv{mgr: mgr, calabresa: uuid.New(), guarana: uuid.New()}
	env.menu, err = catalog.NewStaticService(catalog.Menu{Categories: []catalog.CategoryDTO{
		{ID: uuid.New(), Name: "Pizzas", Products: []catalog.ProductDTO{
			{ID: env.calabresa, Name: "Calabresa", Price: decimal.RequireFromString("45.00")},
		}},
		{ID: uuid.New(), Name: "Bebidas", Products: []catalog.ProductDTO{
			{ID: env.guarana, Name: "Guaraná 2L", Price: decimal.RequireFromString("12.00")},
		}},
	}})
	if err != nil {
		t.Fatalf("menu: %v", err)
	}
	return env
}

func (e *testEnv) newSession(t *testing.T) string {
	t.Helper()
	view, err := e.mgr.Create(context.Background())
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return view.ID
}

func (e *testEnv) addLine(t *testing.T, sessionID string, product uuid.UUID, qty int) {
	t.Helper()
	resp := serve(CartAddLine(e.mgr, e.menu, nil), http.MethodPost, "/api/v1/session/cart/lines", sessionID,
		map[string]any{"product_id": product, "quantity": qty}, nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("add line: expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
}

func serve(h http.Handler, method, target, sessionID string, body any, params map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")

	ctx := req.Context()
	if sessionID != "" {
		ctx = middleware.WithSessionID(ctx, sessionID)
	}
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req.WithContext(ctx))
	return resp
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return envelope.Error
}

func TestSessionCreateReturnsHeader(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := serve(SessionCreate(env.mgr, nil), http.MethodPost, "/api/v1/session", "", nil, nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}

	var view checkout.View
	decodeData(t, resp, &view)
	if view.ID == "" || resp.Header().Get(middleware.SessionIDHeader) != view.ID {
		t.Fatalf("expected session header to match id %q, got %q", view.ID, resp.Header().Get(middleware.SessionIDHeader))
	}
	if view.State != enums.CheckoutStateEditing || len(view.Lines) != 0 {
		t.Fatalf("unexpected new session %+v", view)
	}
}

func TestSessionFetchUnknownSession(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := serve(SessionFetch(env.mgr, nil), http.MethodGet, "/api/v1/session", uuid.NewString(), nil, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestSessionSetMode(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.newSession(t)

	resp := serve(SessionSetMode(env.mgr, nil), http.MethodPut, "/api/v1/session/mode", id, map[string]string{"mode": "pickup"}, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var view checkout.View
	decodeData(t, resp, &view)
	if view.Mode != enums.DeliveryModePickup {
		t.Fatalf("expected pickup, got %s", view.Mode)
	}

	resp = serve(SessionSetMode(env.mgr, nil), http.MethodPut, "/api/v1/session/mode", id, map[string]string{"mode": "drone"}, nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestSessionResetKeepsNewOrderEditable(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.newSession(t)
	env.addLine(t, id, env.calabresa, 1)

	resp := serve(SessionReset(env.mgr, nil), http.MethodPost, "/api/v1/session/reset", id, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var view checkout.View
	decodeData(t, resp, &view)
	if len(view.Lines) != 0 || view.State != enums.CheckoutStateEditing {
		t.Fatalf("expected an empty editing session, got %+v", view)
	}
}
