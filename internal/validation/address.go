// Package validation holds the input rules for profiles and funding pages.
// Every rule returns nil or a *models.ValidationError whose message never
// echoes the rejected value.
package validation

import (
	"net"
	"regexp"
	"strings"

	"orangecat/internal/models"
)

const maxAddressLen = 100

const (
	msgBitcoinRequired = "Bitcoin address is required"
	msgBitcoinInvalid  = "Invalid Bitcoin address format"
	msgBitcoinTestnet  = "Testnet addresses not allowed"
	msgBitcoinBurn     = "Burn addresses not allowed"

	msgLightningRequired = "Lightning address is required"
	msgLightningInvalid  = "Invalid Lightning address format"
	msgLightningLocal    = "Local addresses not allowed"
	msgLightningTemp     = "Temporary email domains not allowed"
)

var burnAddresses = map[string]struct{}{
	"1111111111111111111114oLvT2":               {},
	"1BitcoinEaterAddressDontSendf59kuE":        {},
	"bc1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqq9424r": {},
}

var (
	// 25-byte payloads encode to 34 base58 characters for every key in use today.
	mainnetBase58 = regexp.MustCompile(`^[13][1-9A-HJ-NP-Za-km-z]{33}$`)
	testnetBase58 = regexp.MustCompile(`^[mn2][1-9A-HJ-NP-Za-km-z]{33}$`)
	segwitV0      = regexp.MustCompile(`^bc1q([qpzry9x8gf2tvdw0s3jn54khce6mua7l]{38}|[qpzry9x8gf2tvdw0s3jn54khce6mua7l]{58})$`)
	taproot       = regexp.MustCompile(`^bc1p[qpzry9x8gf2tvdw0s3jn54khce6mua7l]{58}$`)

	lnLocalPart = regexp.MustCompile(`^[A-Za-z0-9._%+-]+$`)
	lnDomain    = regexp.MustCompile(`^[A-Za-z0-9.-]+$`)
	alphaTLD    = regexp.MustCompile(`^[a-z]{2,}$`)
)

var tempMailLabels = map[string]struct{}{
	"tempmail":      {},
	"guerrillamail": {},
	"10minutemail":  {},
	"throwaway":     {},
	"mailinator":    {},
	"yopmail":       {},
}

// BitcoinAddress accepts mainnet P2PKH, P2SH, SegWit v0 and Taproot addresses.
func BitcoinAddress(s string) *models.ValidationError {
	addr := strings.TrimSpace(s)
	if addr == "" {
		return models.Invalid("bitcoin_address", msgBitcoinRequired)
	}
	if len(addr) > maxAddressLen {
		return models.Invalid("bitcoin_address", msgBitcoinInvalid)
	}
	if _, burn := burnAddresses[addr]; burn {
		return models.Invalid("bitcoin_address", msgBitcoinBurn)
	}

	// bech32 may be written all upper case (QR alphanumeric mode) but never mixed.
	bech := addr
	if addr == strings.ToUpper(addr) {
		bech = strings.ToLower(addr)
	}
	if strings.HasPrefix(bech, "tb1") || strings.HasPrefix(bech, "bcrt1") || testnetBase58.MatchString(addr) {
		return models.Invalid("bitcoin_address", msgBitcoinTestnet)
	}

	if mainnetBase58.MatchString(addr) || segwitV0.MatchString(bech) || taproot.MatchString(bech) {
		return nil
	}
	return models.Invalid("bitcoin_address", msgBitcoinInvalid)
}

// CleanBitcoinAddress strips a bitcoin: URI scheme and query string and
// validates what remains.
func CleanBitcoinAddress(s string) (string, *models.ValidationError) {
	addr := strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(addr, "bitcoin:"); ok {
		addr, _, _ = strings.Cut(rest, "?")
	}
	if verr := BitcoinAddress(addr); verr != nil {
		return "", verr
	}
	return addr, nil
}

// LightningAddress accepts user@domain addresses on public domains.
func LightningAddress(s string) *models.ValidationError {
	addr := strings.TrimSpace(s)
	if addr == "" {
		return models.Invalid("lightning_address", msgLightningRequired)
	}
	if len(addr) > 320 {
		return models.Invalid("lightning_address", msgLightningInvalid)
	}

	parts := strings.Split(addr, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return models.Invalid("lightning_address", msgLightningInvalid)
	}
	if !lnLocalPart.MatchString(parts[0]) || !lnDomain.MatchString(parts[1]) {
		return models.Invalid("lightning_address", msgLightningInvalid)
	}

	host := strings.TrimSuffix(strings.ToLower(parts[1]), ".")
	if isLocalHost(host) {
		return models.Invalid("lightning_address", msgLightningLocal)
	}

	labels := strings.Split(host, ".")
	for _, l := range labels {
		if _, temp := tempMailLabels[l]; temp {
			return models.Invalid("lightning_address", msgLightningTemp)
		}
	}

	if len(labels) < 2 || !alphaTLD.MatchString(labels[len(labels)-1]) {
		return models.Invalid("lightning_address", msgLightningInvalid)
	}
	for _, l := range labels {
		if l == "" || strings.HasPrefix(l, "-") || strings.HasSuffix(l, "-") {
			return models.Invalid("lightning_address", msgLightningInvalid)
		}
	}
	return nil
}

func isLocalHost(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".local") {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
}
