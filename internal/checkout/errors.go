package checkout

import (
	"errors"

	pkgerrors "github.com/angelmondragon/forno-backend/pkg/errors"
)

var (
	// ErrSubmissionInFlight is returned to a duplicate submit while one is running. The
	// duplicate has no effect.
	ErrSubmissionInFlight = pkgerrors.New(pkgerrors.CodeConflict, "order submission already in progress")
	// ErrOrderAlreadyPlaced is returned when submitting a session that already succeeded.
	ErrOrderAlreadyPlaced = pkgerrors.New(pkgerrors.CodeStateConflict, "order already placed; start a new order")
	// ErrNothingToRecover is returned by Recover outside the failed state.
	ErrNothingToRecover = pkgerrors.New(pkgerrors.CodeStateConflict, "checkout is not in a failed state")
	// ErrNoOrderPlaced is returned by Handoff before a successful submit.
	ErrNoOrderPlaced = pkgerrors.New(pkgerrors.CodeStateConflict, "no order has been placed")
	// ErrHandoffConsumed is returned by every Handoff after the first.
	ErrHandoffConsumed = pkgerrors.New(pkgerrors.CodeStateConflict, "order already sent to the store")
	// ErrHandoffUnavailable means no store phone is configured; the transcript stays on the receipt.
	ErrHandoffUnavailable = pkgerrors.New(pkgerrors.CodeDependency, "messaging handoff unavailable")

	errEmptyOrderID = errors.New("order writer returned an empty id")
)
