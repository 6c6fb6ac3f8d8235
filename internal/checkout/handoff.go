package checkout

import (
	"net/url"
	"strings"

	"github.com/angelmondragon/forno-backend/internal/delivery"
)

// NormalizePhone reduces a phone number to digits. Bare 10 or 11 digit numbers are treated
// as domestic and receive countryCode. Numbers already carrying countryCode pass as is; any
// other length passes through unmodified and is flagged for review.
func NormalizePhone(raw, countryCode string) (phone string, needsReview bool) {
	digits := delivery.DigitsOnly(raw)
	cc := delivery.DigitsOnly(countryCode)
	switch n := len(digits); {
	case n == 0:
		return "", false
	case n == 10 || n == 11:
		return cc + digits, false
	case cc != "" && strings.HasPrefix(digits, cc) && (n == len(cc)+10 || n == len(cc)+11):
		return digits, false
	default:
		return digits, true
	}
}

// BuildHandoffURL addresses text to phone on the messaging endpoint, e.g.
// https://wa.me/5511999999999?text=...
func BuildHandoffURL(baseURL, phone, text string) string {
	base := strings.TrimRight(baseURL, "/") + "/"
	encoded := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return base + phone + "?text=" + encoded
}
