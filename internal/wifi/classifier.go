package wifi

import (
	"strings"

	"github.com/mediacutlet/nomadachi/internal/types"
)

// SentinelUnknown stands in for identifiers that fail canonicalization.
// It is never inserted into seen-sets and never scored.
const SentinelUnknown = "unknown"

// Symbolic band keys produced by NormalizeBand and ChannelToBand
const (
	Band24  = "2.4"
	Band5   = "5"
	Band6   = "6"
	BandUnk = "unk"
)

// Keys are the canonical novelty keys derived from a single discovery event
type Keys struct {
	ESSID   string
	BSSID   string
	OUI     string
	Band    string
	Channel int
}

// Classify derives novelty keys from a discovery event. Malformed BSSIDs
// degrade to SentinelUnknown, and a missing band label is derived from the
// channel when one is present.
func Classify(ev types.DiscoveryEvent) Keys {
	k := Keys{ESSID: ev.ESSID, Channel: ev.Channel}
	if mac, ok := CanonicalMAC(ev.BSSID); ok {
		k.BSSID = mac
		k.OUI = OUI(mac)
	} else {
		k.BSSID = SentinelUnknown
	}
	if ev.Band != "" {
		k.Band = NormalizeBand(ev.Band)
	} else {
		k.Band = ChannelToBand(ev.Channel)
	}
	return k
}

// CanonicalMAC normalizes a hardware address to lowercase colon-separated
// form (aa:bb:cc:dd:ee:ff). It accepts colon, hyphen and dot separated
// input as well as bare 12-digit hex. ok is false for anything that is not
// a 48-bit address.
func CanonicalMAC(s string) (string, bool) {
	digits := make([]byte, 0, 12)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f':
			digits = append(digits, c)
		case c >= 'A' && c <= 'F':
			digits = append(digits, c+('a'-'A'))
		case c == ':' || c == '-' || c == '.':
		default:
			return "", false
		}
		if len(digits) > 12 {
			return "", false
		}
	}
	if len(digits) != 12 {
		return "", false
	}
	var b strings.Builder
	b.Grow(17)
	for i := 0; i < 12; i += 2 {
		if i > 0 {
			b.WriteByte(':')
		}
		b.Write(digits[i : i+2])
	}
	return b.String(), true
}

// OUI returns the vendor prefix (first three octets) of a canonical MAC,
// or "" when the input is not canonical.
func OUI(mac string) string {
	if len(mac) != 17 {
		return ""
	}
	return mac[:8]
}

// NormalizeBand maps a raw band label to one of the symbolic band keys.
// Unrecognized labels map to BandUnk, which is still a valid one-time
// novelty key.
func NormalizeBand(s string) string {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimSuffix(v, "ghz")
	v = strings.TrimSuffix(v, "g")
	v = strings.TrimSpace(v)
	switch v {
	case "2.4":
		return Band24
	case "5":
		return Band5
	case "6", "6e":
		return Band6
	}
	return BandUnk
}

// ChannelToBand maps an 802.11 channel number to a symbolic band key.
// Channels 1-14 are 2.4 GHz, 32-173 are 5 GHz, and the 6 GHz range is
// carried as channel+191 by the reporting host.
func ChannelToBand(ch int) string {
	switch {
	case ch >= 1 && ch <= 14:
		return Band24
	case ch >= 32 && ch <= 173:
		return Band5
	case ch >= 192 && ch <= 250:
		return Band6
	}
	return BandUnk
}
