package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testConverter(t *testing.T) *Converter {
	t.Helper()
	r, err := ParseRates("105000", "0.91")
	require.NoError(t, err)
	return NewConverter(r)
}

func TestParseRates(t *testing.T) {
	r, err := ParseRates(" 105000 ", "0.91")
	require.NoError(t, err)
	assert.True(t, r.BTCCHF().Equal(d("95550")))

	_, err = ParseRates("abc", "0.91")
	assert.Error(t, err)
	_, err = ParseRates("0", "0.91")
	assert.Error(t, err)
}

func TestSatsConversions(t *testing.T) {
	assert.Equal(t, int64(100_000_000), BTCToSats(d("1")))
	assert.Equal(t, int64(50_000_000), BTCToSats(d("0.5")))
	assert.Equal(t, int64(1), BTCToSats(d("0.00000001")))
	assert.Equal(t, int64(1), BTCToSats(d("0.000000005")))
	assert.Equal(t, int64(0), BTCToSats(decimal.Zero))

	assert.True(t, SatsToBTC(1).Equal(d("0.00000001")))
	assert.True(t, SatsToBTC(2_100_000_000_000_000).Equal(d("21000000")))
}

func TestConverter_FromSats(t *testing.T) {
	c := testConverter(t)

	got := c.FromSats(100_000_000)
	assert.True(t, got.Bitcoin.Equal(d("1")))
	assert.True(t, got.USD.Equal(d("105000")))
	assert.True(t, got.CHF.Equal(d("95550")))
	assert.Equal(t, "1.0000 BTC", got.Display)
	assert.Equal(t, "$105,000.00", got.USDDisplay)
	assert.Equal(t, "CHF 95'550.00", got.CHFDisplay)

	small := c.FromBTC(d("0.0001"))
	assert.Equal(t, int64(10_000), small.Satoshis)
	assert.True(t, small.USD.Equal(d("10.5")))
	assert.Equal(t, "10,000 sats", small.Display)
}

func TestConverter_Convert(t *testing.T) {
	c := testConverter(t)

	cases := []struct {
		amount, from, to, want string
	}{
		{"1", "BTC", "SATS", "100000000"},
		{"100000000", "sats", "btc", "1"},
		{"1", "BTC", "USD", "105000"},
		{"210000", "USD", "BTC", "2"},
		{"1", "BTC", "CHF", "95550"},
		{"5", "USD", "USD", "5"},
		{"0.3", "CHF", "CHF", "0.3"},
		{"12.345", "USD", "USD", "12.35"},
		{"100", "USD", "CHF", "91"},
		{"91", "CHF", "USD", "100"},
		{"1", "CHF", "USD", "1.1"},
		{"95.55", "CHF", "SATS", "100000"},
		{"1", "USD", "SATS", "952"},
		{"1", "USD", "BTC", "0.00000952"},
		{"1", "SATS", "USD", "0"},
		{"1000", "SATS", "CHF", "0.96"},
	}
	for _, tc := range cases {
		t.Run(tc.from+"->"+tc.to, func(t *testing.T) {
			got, err := c.Convert(d(tc.amount), tc.from, tc.to)
			require.NoError(t, err)
			assert.True(t, got.Equal(d(tc.want)), "got %s", got)
		})
	}

	_, err := c.Convert(d("1"), "EUR", "BTC")
	assert.Error(t, err)
	_, err = c.Convert(d("1"), "BTC", "EUR")
	assert.Error(t, err)
}

func TestConverter_ConvertRoundTripKeepsFiat(t *testing.T) {
	c := testConverter(t)
	for _, amount := range []string{"0.01", "5", "19.99", "1234.56"} {
		chf, err := c.Convert(d(amount), USD, CHF)
		require.NoError(t, err)
		back, err := c.Convert(d(amount), USD, USD)
		require.NoError(t, err)
		assert.True(t, back.Equal(d(amount)), "USD->USD %s got %s", amount, back)
		assert.True(t, chf.Equal(chf.Round(2)), "CHF result %s has sub-cent digits", chf)
	}
}

func TestValidBTCAmount(t *testing.T) {
	assert.True(t, ValidBTCAmount(d("0")))
	assert.True(t, ValidBTCAmount(d("21000000")))
	assert.True(t, ValidBTCAmount(d("0.00000001")))
	assert.False(t, ValidBTCAmount(d("-0.1")))
	assert.False(t, ValidBTCAmount(d("21000000.1")))
	assert.False(t, ValidBTCAmount(d("0.000000001")))
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "1.5000 BTC", FormatBTC(d("1.5")))
	assert.Equal(t, "0.005000 BTC", FormatBTC(d("0.005")))
	assert.Equal(t, "0.001000 BTC", FormatBTC(d("0.001")))
	assert.Equal(t, "50,000 sats", FormatBTC(d("0.0005")))

	assert.Equal(t, "0 sats", FormatSats(0))
	assert.Equal(t, "1 sats", FormatSats(1))
	assert.Equal(t, "100,000,000 sats", FormatSats(100_000_000))
	assert.Equal(t, "-1,000 sats", FormatSats(-1000))
	assert.Equal(t, "2,100,000,000,000,000 sats", FormatSats(2_100_000_000_000_000))

	assert.Equal(t, "$0.00", FormatUSD(decimal.Zero))
	assert.Equal(t, "$1.50", FormatUSD(d("1.5")))
	assert.Equal(t, "$50,000.99", FormatUSD(d("50000.99")))
	assert.Equal(t, "-$100.00", FormatUSD(d("-100")))

	assert.Equal(t, "CHF 1'234.50", FormatCHF(d("1234.5")))
}
