// Package currency converts between satoshis, bitcoin and fiat and renders
// amounts for display. All arithmetic is done in shopspring/decimal.
package currency

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// SatsPerBTC is the number of satoshis in one bitcoin.
const SatsPerBTC = 100_000_000

// MaxSupplyBTC bounds any amount the API accepts.
const MaxSupplyBTC = 21_000_000

// MaxSats is MaxSupplyBTC in satoshis.
const MaxSats = MaxSupplyBTC * SatsPerBTC

// divPlaces is the scale kept by intermediate divisions.
const divPlaces = 24

var satsPerBTC = decimal.NewFromInt(SatsPerBTC)

// Units accepted by Convert.
const (
	BTC  = "BTC"
	SATS = "SATS"
	USD  = "USD"
	CHF  = "CHF"
)

// unitPlaces is the number of decimals each unit is rounded to.
var unitPlaces = map[string]int32{BTC: 8, SATS: 0, USD: 2, CHF: 2}

// Rates are the exchange rates used for fiat equivalents.
type Rates struct {
	BTCUSD decimal.Decimal
	USDCHF decimal.Decimal
}

// ParseRates reads the configured rates.
func ParseRates(btcUSD, usdCHF string) (Rates, error) {
	b, err := decimal.NewFromString(strings.TrimSpace(btcUSD))
	if err != nil {
		return Rates{}, fmt.Errorf("parse BTC/USD rate: %w", err)
	}
	u, err := decimal.NewFromString(strings.TrimSpace(usdCHF))
	if err != nil {
		return Rates{}, fmt.Errorf("parse USD/CHF rate: %w", err)
	}
	if !b.IsPositive() || !u.IsPositive() {
		return Rates{}, fmt.Errorf("exchange rates must be positive")
	}
	return Rates{BTCUSD: b, USDCHF: u}, nil
}

// BTCCHF is derived from the two configured rates.
func (r Rates) BTCCHF() decimal.Decimal {
	return r.BTCUSD.Mul(r.USDCHF)
}

// Conversion is one amount expressed in every unit.
type Conversion struct {
	Bitcoin  decimal.Decimal `json:"bitcoin"`
	Satoshis int64           `json:"satoshis"`
	USD      decimal.Decimal `json:"usd"`
	CHF      decimal.Decimal `json:"chf"`
	Display  string          `json:"display"`
	// Fiat renderings, "$1,000.00" and "CHF 1'000.00".
	USDDisplay string `json:"usdDisplay"`
	CHFDisplay string `json:"chfDisplay"`
}

type Converter struct {
	rates Rates
}

func NewConverter(r Rates) *Converter {
	return &Converter{rates: r}
}

func (c *Converter) Rates() Rates { return c.rates }

// FromSats expresses a satoshi amount in every unit.
func (c *Converter) FromSats(sats int64) Conversion {
	return c.build(SatsToBTC(sats), sats)
}

// FromBTC expresses a bitcoin amount in every unit. Sub-satoshi precision is rounded.
func (c *Converter) FromBTC(btc decimal.Decimal) Conversion {
	sats := BTCToSats(btc)
	return c.build(SatsToBTC(sats), sats)
}

func (c *Converter) build(btc decimal.Decimal, sats int64) Conversion {
	usd := btc.Mul(c.rates.BTCUSD).Round(2)
	chf := btc.Mul(c.rates.BTCCHF()).Round(2)
	return Conversion{
		Bitcoin:    btc,
		Satoshis:   sats,
		USD:        usd,
		CHF:        chf,
		Display:    FormatBTC(btc),
		USDDisplay: FormatUSD(usd),
		CHFDisplay: FormatCHF(chf),
	}
}

// Convert moves an amount between BTC, SATS, USD and CHF and rounds the
// result to the target unit: 8 decimals for BTC, whole satoshis, cents for fiat.
func (c *Converter) Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	from, to = strings.ToUpper(strings.TrimSpace(from)), strings.ToUpper(strings.TrimSpace(to))
	if _, ok := unitPlaces[from]; !ok {
		return decimal.Zero, fmt.Errorf("unsupported currency %q", from)
	}
	places, ok := unitPlaces[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("unsupported currency %q", to)
	}

	switch {
	case from == to:
		return amount.Round(places), nil
	case from == USD && to == CHF:
		return amount.Mul(c.rates.USDCHF).Round(places), nil
	case from == CHF && to == USD:
		return amount.DivRound(c.rates.USDCHF, divPlaces).Round(places), nil
	}

	out := c.toBTC(amount, from)
	switch to {
	case SATS:
		out = out.Mul(satsPerBTC)
	case USD:
		out = out.Mul(c.rates.BTCUSD)
	case CHF:
		out = out.Mul(c.rates.BTCCHF())
	}
	return out.Round(places), nil
}

func (c *Converter) toBTC(amount decimal.Decimal, unit string) decimal.Decimal {
	switch unit {
	case SATS:
		return amount.DivRound(satsPerBTC, divPlaces)
	case USD:
		return amount.DivRound(c.rates.BTCUSD, divPlaces)
	case CHF:
		return amount.DivRound(c.rates.BTCCHF(), divPlaces)
	}
	return amount
}

func SatsToBTC(sats int64) decimal.Decimal {
	return decimal.NewFromInt(sats).Div(satsPerBTC)
}

// BTCToSats rounds half away from zero to the nearest satoshi.
func BTCToSats(btc decimal.Decimal) int64 {
	return btc.Mul(satsPerBTC).Round(0).IntPart()
}

// ValidBTCAmount reports whether btc is within [0, 21M] with at most 8 decimals.
func ValidBTCAmount(btc decimal.Decimal) bool {
	if btc.IsNegative() || btc.GreaterThan(decimal.NewFromInt(MaxSupplyBTC)) {
		return false
	}
	return btc.Equal(btc.Truncate(8))
}

// FormatBTC picks a precision by magnitude: four decimals from 1 BTC, six
// from 0.001 BTC, and satoshis below that.
func FormatBTC(btc decimal.Decimal) string {
	abs := btc.Abs()
	switch {
	case abs.GreaterThanOrEqual(decimal.NewFromInt(1)):
		return btc.StringFixed(4) + " BTC"
	case abs.GreaterThanOrEqual(decimal.New(1, -3)):
		return btc.StringFixed(6) + " BTC"
	}
	return FormatSats(BTCToSats(btc))
}

// FormatSats renders "1,000 sats".
func FormatSats(sats int64) string {
	return group(decimal.NewFromInt(sats).String(), ',') + " sats"
}

// FormatUSD renders "$1,000.00" and "-$1.50".
func FormatUSD(amount decimal.Decimal) string {
	s := group(amount.Abs().StringFixed(2), ',')
	if amount.Round(2).IsNegative() {
		return "-$" + s
	}
	return "$" + s
}

// FormatCHF renders Swiss style, "CHF 1'000.00".
func FormatCHF(amount decimal.Decimal) string {
	s := group(amount.Abs().StringFixed(2), '\'')
	if amount.Round(2).IsNegative() {
		s = "-" + s
	}
	return "CHF " + s
}

// group inserts sep every three digits of the integer part of a plain
// decimal string.
func group(s string, sep byte) string {
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, d := range []byte(intPart) {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(sep)
		}
		b.WriteByte(d)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
