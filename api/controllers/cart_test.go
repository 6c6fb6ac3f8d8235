package controllers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/forno-backend/internal/cart"
	"github.com/angelmondragon/forno-backend/internal/checkout"
	pkgerrors "github.com/angelmondragon/forno-backend/pkg/errors"
)

func TestCartAddLineMergesRepeatedProduct(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.newSession(t)
	env.addLine(t, id, env.calabresa, 2)

	resp := serve(CartAddLine(env.mgr, env.menu, nil), http.MethodPost, "/api/v1/session/cart/lines", id,
		map[string]any{"product_id": env.calabresa, "quantity": 1}, nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	var out addLineResponse
	decodeData(t, resp, &out)
	if out.LineIndex != 0 || len(out.Session.Lines) != 1 || out.Session.ItemCount != 3 {
		t.Fatalf("expected one merged line of 3, got %+v", out)
	}
	if !out.Session.Quote.Subtotal.Equal(decimal.RequireFromString("135")) {
		t.Fatalf("expected subtotal 135, got %s", out.Session.Quote.Subtotal)
	}
}

func TestCartAddLineUnknownProduct(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.newSession(t)

	resp := serve(CartAddLine(env.mgr, env.menu, nil), http.MethodPost, "/api/v1/session/cart/lines", id,
		map[string]any{"product_id": uuid.New(), "quantity": 1}, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCartAddLineRejectsZeroQuantity(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.newSession(t)

	resp := serve(CartAddLine(env.mgr, env.menu, nil), http.MethodPost, "/api/v1/session/cart/lines", id,
		map[string]any{"product_id": env.calabresa, "quantity": 0}, nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if apiErr := decodeError(t, resp); apiErr.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %s", apiErr.Code)
	}
}

func TestCartUpdateLineBelowOneNeedsConfirmation(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.newSession(t)
	env.addLine(t, id, env.calabresa, 2)
	params := map[string]string{"index": "0"}

	resp := serve(CartUpdateLine(env.mgr, nil), http.MethodPatch, "/api/v1/session/cart/lines/0", id,
		map[string]any{"quantity": 0}, params)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var out updateLineResponse
	decodeData(t, resp, &out)
	if out.Outcome != cart.RequiresConfirmation || out.Session.ItemCount != 2 {
		t.Fatalf("expected untouched line awaiting confirmation, got %+v", out)
	}

	resp = serve(CartUpdateLine(env.mgr, nil), http.MethodPatch, "/api/v1/session/cart/lines/0", id,
		map[string]any{"quantity": 0, "confirm": true}, params)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	out = updateLineResponse{}
	decodeData(t, resp, &out)
	if len(out.Session.Lines) != 0 {
		t.Fatalf("expected confirmed removal, got %+v", out.Session.Lines)
	}
}

func TestCartUpdateLineObservation(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.newSession(t)
	env.addLine(t, id, env.calabresa, 1)

	resp := serve(CartUpdateLine(env.mgr, nil), http.MethodPatch, "/api/v1/session/cart/lines/0", id,
		map[string]any{"observation": "  sem cebola  "}, map[string]string{"index": "0"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var out updateLineResponse
	decodeData(t, resp, &out)
	if out.Outcome != "" {
		t.Fatalf("expected no quantity outcome, got %s", out.Outcome)
	}
	if obs := out.Session.Lines[0].Observation; obs == nil || *obs != "sem cebola" {
		t.Fatalf("expected trimmed observation, got %v", obs)
	}
}

func TestCartUpdateLineRequiresAChange(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.newSession(t)
	env.addLine(t, id, env.calabresa, 1)

	resp := serve(CartUpdateLine(env.mgr, nil), http.MethodPatch, "/api/v1/session/cart/lines/0", id,
		map[string]any{}, map[string]string{"index": "0"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartLineIndexErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.newSession(t)
	env.addLine(t, id, env.calabresa, 1)

	resp := serve(CartRemoveLine(env.mgr, nil), http.MethodDelete, "/api/v1/session/cart/lines/x", id, nil, map[string]string{"index": "x"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed index, got %d", resp.Code)
	}

	resp = serve(CartRemoveLine(env.mgr, nil), http.MethodDelete, "/api/v1/session/cart/lines/4", id, nil, map[string]string{"index": "4"})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing line, got %d", resp.Code)
	}
}

func TestCartRemoveAndClear(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.newSession(t)
	env.addLine(t, id, env.calabresa, 1)
	env.addLine(t, id, env.guarana, 1)

	resp := serve(CartRemoveLine(env.mgr, nil), http.MethodDelete, "/api/v1/session/cart/lines/0", id, nil, map[string]string{"index": "0"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var view checkout.View
	decodeData(t, resp, &view)
	if len(view.Lines) != 1 || view.Lines[0].Name != "Guaraná 2L" {
		t.Fatalf("expected only the drink to remain, got %+v", view.Lines)
	}

	resp = serve(CartClear(env.mgr, nil), http.MethodDelete, "/api/v1/session/cart", id, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	view = checkout.View{}
	decodeData(t, resp, &view)
	if len(view.Lines) != 0 || view.ItemCount != 0 {
		t.Fatalf("expected empty cart, got %+v", view)
	}
}
