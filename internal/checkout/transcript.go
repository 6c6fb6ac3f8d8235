package checkout

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/forno-backend/internal/cart"
	"github.com/angelmondragon/forno-backend/internal/delivery"
	"github.com/angelmondragon/forno-backend/internal/pricing"
	"github.com/angelmondragon/forno-backend/pkg/enums"
	"github.com/angelmondragon/forno-backend/pkg/types"
	"github.com/shopspring/decimal"
)

const transcriptSeparator = "------------------------------"

// Customer is the customer block of a transcript.
type Customer struct {
	Name      string
	Phone     string
	Mode      enums.DeliveryMode
	Address   *types.DeliveryAddress
	Payment   enums.PaymentMethod
	ChangeFor *decimal.Decimal
}

// TranscriptInput is everything rendered into the order message.
type TranscriptInput struct {
	Reference  string
	StoreName  string
	Lines      []cart.Line
	Quote      pricing.Quote
	RegionName string
	Customer   Customer
}

// RenderTranscript builds the line-oriented order message sent to the store. Output depends
// only on the input.
func RenderTranscript(in TranscriptInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "*NOVO PEDIDO #%s - %s*\n", in.Reference, in.StoreName)
	b.WriteString(transcriptSeparator + "\n")

	for _, line := range in.Lines {
		b.WriteString("▪️ " + fmt.Sprintf("%dx %s", line.Quantity, line.Product.Name))
		if line.Product.Code != nil && strings.TrimSpace(*line.Product.Code) != "" {
			fmt.Fprintf(&b, " (%s)", strings.TrimSpace(*line.Product.Code))
		}
		b.WriteString("\n")
		b.WriteString(pricing.FormatBRL(line.Total()) + "\n")
		for _, opt := range line.Options {
			fmt.Fprintf(&b, "+ %s (%s)\n", opt.Choice, opt.Group)
		}
		if obs := line.ObservationText(); obs != "" {
			fmt.Fprintf(&b, "_Obs: %s_\n", obs)
		}
		b.WriteString("\n")
	}

	q := in.Quote
	b.WriteString(transcriptSeparator + "\n")
	fmt.Fprintf(&b, "*Subtotal:* %s\n", pricing.FormatBRL(q.Subtotal))
	if q.CouponCode != nil {
		fmt.Fprintf(&b, "*Cupom (%s):* - %s\n", *q.CouponCode, pricing.FormatBRL(q.Discount))
	}
	if q.Mode == enums.DeliveryModePickup {
		b.WriteString("*Retirada no Balcão*\n")
	} else {
		fee := pricing.FormatBRL(q.DeliveryCharge)
		if q.FreeShipping {
			fee = "GRÁTIS"
		}
		fmt.Fprintf(&b, "*Entrega (%s):* %s\n", in.RegionName, fee)
	}
	fmt.Fprintf(&b, "*TOTAL:* %s\n", pricing.FormatBRL(q.Total))

	b.WriteString("\n")
	writeCustomer(&b, in.Customer)
	return strings.TrimRight(b.String(), "\n")
}

func writeCustomer(b *strings.Builder, c Customer) {
	fmt.Fprintf(b, "*Cliente:* %s\n", c.Name)
	if c.Phone != "" {
		fmt.Fprintf(b, "*Telefone:* %s\n", c.Phone)
	}

	if c.Mode == enums.DeliveryModePickup || c.Address == nil {
		b.WriteString("*Retirada:* cliente retira no balcão\n")
	} else {
		addr := c.Address
		fmt.Fprintf(b, "*CEP:* %s\n", formatPostalCode(addr.PostalCode))
		fmt.Fprintf(b, "*Endereço:* %s, %s\n", addr.Street, addr.Number)
		fmt.Fprintf(b, "*Bairro:* %s\n", addr.District)
		if addr.City != "" {
			fmt.Fprintf(b, "*Cidade:* %s\n", addr.City)
		}
		if addr.Complement != nil && *addr.Complement != "" {
			fmt.Fprintf(b, "*Complemento:* %s\n", *addr.Complement)
		}
	}

	fmt.Fprintf(b, "*Pagamento:* %s\n", c.Payment.Label())
	if c.Payment == enums.PaymentMethodCash && c.ChangeFor != nil {
		fmt.Fprintf(b, "*Troco para:* %s\n", pricing.FormatBRL(*c.ChangeFor))
	}
}

func formatPostalCode(raw string) string {
	digits := delivery.DigitsOnly(raw)
	if len(digits) != delivery.PostalCodeLength {
		return strings.TrimSpace(raw)
	}
	return digits[:5] + "-" + digits[5:]
}
