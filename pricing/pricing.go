// Package pricing computes effective unit prices and display strings for
// products, including promotion arithmetic. All functions are pure.
package pricing

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/m2gi-davilori/ecom/models"
)

// PromotionLookup resolves the promotion token, if any, for a product.
type PromotionLookup interface {
	InPromotion(p models.Product) bool
	Promotion(p models.Product) string
}

// TokenTable is a map-backed PromotionLookup keyed by product ID.
type TokenTable map[uint]string

func (t TokenTable) InPromotion(p models.Product) bool {
	_, ok := t[p.ID]
	return ok
}

func (t TokenTable) Promotion(p models.Product) string {
	return t[p.ID]
}

// TableFromPromotions builds a TokenTable from the promotions active at
// the given instant. Later entries for the same product win.
func TableFromPromotions(promos []models.Promotion, now time.Time) TokenTable {
	t := make(TokenTable, len(promos))
	for _, p := range promos {
		if p.ActiveAt(now) {
			t[p.ProductID] = p.Token
		}
	}
	return t
}

var hundred = decimal.NewFromInt(100)

// ParseToken splits a promotion token "(<amount><suffix>)" into its
// discount amount and whether it is a percentage. Anything that does not
// parse as "(number)" or "(number%)" is an error.
func ParseToken(token string) (amount decimal.Decimal, percent bool, err error) {
	if len(token) < 3 || token[0] != '(' || token[len(token)-1] != ')' {
		return decimal.Decimal{}, false, fmt.Errorf("malformed promotion token %q", token)
	}
	inner := token[1 : len(token)-1]
	if percent = strings.HasSuffix(inner, "%"); percent {
		inner = strings.TrimSuffix(inner, "%")
	}
	amount, err = decimal.NewFromString(inner)
	if err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("malformed promotion token %q: %w", token, err)
	}
	return amount, percent, nil
}

// EffectivePrice applies a promotion token to a base price. A percentage
// token takes amount% off, a flat token subtracts the amount. The result
// is not clamped: a discount larger than the price goes negative.
func EffectivePrice(price decimal.Decimal, token string) (decimal.Decimal, error) {
	amount, percent, err := ParseToken(token)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if percent {
		return price.Sub(price.Mul(amount).Div(hundred)), nil
	}
	return price.Sub(amount), nil
}

// UnitLabel maps a weight unit to the word shown next to a unit price.
// Grams share "kilo" and millilitres share "litre" on purpose: the
// displayed unit price is always per kilo or per litre.
func UnitLabel(unit models.WeightUnit) string {
	switch unit {
	case models.WeightUnitKG, models.WeightUnitG:
		return "kilo"
	case models.WeightUnitL, models.WeightUnitML:
		return "litre"
	default:
		return ""
	}
}

// WeightSuffix maps a weight unit to its short display suffix.
func WeightSuffix(unit models.WeightUnit) string {
	switch unit {
	case models.WeightUnitL, models.WeightUnitML:
		return "L"
	case models.WeightUnitKG, models.WeightUnitG:
		return "kg"
	default:
		return "u"
	}
}

// PriceWeightStr renders the per-kilo, per-litre or per-unit price with
// two decimals and a comma decimal separator.
func PriceWeightStr(price decimal.Decimal, weight float64, unit models.WeightUnit) string {
	w := decimal.NewFromFloat(weight)
	switch unit {
	case models.WeightUnitG, models.WeightUnitML:
		w = w.Div(decimal.NewFromInt(1000))
	case models.WeightUnitKG, models.WeightUnitL:
	default:
		// Sold per unit: the weight plays no role.
		return withComma(price.StringFixed(2))
	}
	if w.IsZero() {
		return withComma(price.StringFixed(2))
	}
	return withComma(price.Div(w).StringFixed(2))
}

// PriceWeightStrPromo applies a promotion token to the unit-price display
// string: the rendered string is parsed back to a number (comma to
// period), discounted, and re-rendered with two decimals.
func PriceWeightStrPromo(token string, p models.Product) (string, error) {
	base := PriceWeightStr(p.Price, p.Weight, p.WeightUnit)
	res, err := decimal.NewFromString(strings.ReplaceAll(base, ",", "."))
	if err != nil {
		return "", fmt.Errorf("unit price %q is not a number: %w", base, err)
	}
	amount, percent, err := ParseToken(token)
	if err != nil {
		return "", err
	}
	if percent {
		res = res.Sub(res.Mul(amount).Div(hundred))
	} else {
		res = res.Sub(amount)
	}
	return withComma(res.StringFixed(2)), nil
}

var totalPrinter = message.NewPrinter(language.French)

// FormatTotal renders a cart total the way the storefront locale does,
// with at most two fraction digits.
func FormatTotal(total decimal.Decimal) string {
	f, _ := total.Float64()
	return totalPrinter.Sprint(number.Decimal(f, number.MaxFractionDigits(2)))
}

func withComma(s string) string {
	return strings.ReplaceAll(s, ".", ",")
}
