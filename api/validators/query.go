package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/forno-backend/pkg/errors"
)

// ParseQueryInt reads an optional integer query parameter bounded by [min, max]. Errors
// carry a field detail like body validation does.
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.Field(key, "must be a whole number")
	}
	if value < min || value > max {
		return 0, pkgerrors.Field(key, "must be between "+strconv.Itoa(min)+" and "+strconv.Itoa(max))
	}
	return value, nil
}
