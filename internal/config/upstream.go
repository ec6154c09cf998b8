package config

import (
	"encoding/json"
	"fmt"
	"net/netip"
)

// Kind discriminates the seven cases an [Upstream] can take.
type Kind uint8

// Kind values.  The zero value is intentionally invalid so that a
// zero-initialized Upstream is never mistaken for a valid UDP upstream.
const (
	KindInvalid Kind = iota
	KindUDP
	KindTCP
	KindDoT
	KindDoH
	KindIPv4
	KindIPv6
	KindSpecial
)

// Special enumerates the two fixed negative outcomes an Upstream can encode.
type Special uint8

// Special values.
const (
	SpecialNXDOMAIN Special = iota + 1
	SpecialNODATA
)

// String implements [fmt.Stringer].
func (s Special) String() string {
	switch s {
	case SpecialNXDOMAIN:
		return "NXDOMAIN"
	case SpecialNODATA:
		return "NODATA"
	default:
		return "UNKNOWN"
	}
}

// Upstream is a single configured resolution target: a transport endpoint, a
// synthesized fixed answer, or a negative outcome.  Every field participates
// in equality, since an Upstream's identity (its structural value) is the
// resolver pool's cache key; all fields are comparable so that Upstream
// itself can be used as a Go map key directly.
type Upstream struct {
	// Addr is the endpoint for UDP, TCP, DoT and DoH upstreams.
	Addr netip.AddrPort
	// SNI is the TLS server name for DoT and DoH upstreams.
	SNI string
	// Socks5 is the optional SOCKS5 proxy address for a DoH upstream.
	Socks5 netip.AddrPort
	// IPv4 is the synthesized address for an IPv4 upstream.
	IPv4 netip.Addr
	// IPv6 is the synthesized address for an IPv6 upstream.
	IPv6 netip.Addr
	// Kind discriminates which of the fields above are meaningful.
	Kind Kind
	// Special is the negative outcome for a Special upstream.
	Special Special
}

// HasSocks5 reports whether u carries a configured SOCKS5 proxy address.
// Only meaningful for [KindDoH].
func (u Upstream) HasSocks5() bool {
	return u.Socks5.IsValid()
}

// upstreamWire is the wire shape of the untagged JSON upstream union.  Every
// field is optional; [Upstream.UnmarshalJSON] picks the variant whose
// required keys are all present, trying them in the order they're listed in
// spec.md §6.
type upstreamWire struct {
	UDP         string `json:"udp,omitempty"`
	TCP         string `json:"tcp,omitempty"`
	DoT         string `json:"dot,omitempty"`
	DoH         string `json:"doh,omitempty"`
	Domain      string `json:"domain,omitempty"`
	Socks5Proxy string `json:"socks5_proxy,omitempty"`
	IPv4        string `json:"ipv4,omitempty"`
	IPv6        string `json:"ipv6,omitempty"`
}

// UnmarshalJSON implements [json.Unmarshaler].  It first tries the bare
// string form ("NXDOMAIN" / "NODATA"), then falls back to the object form,
// discriminating on whichever of "udp"/"tcp"/"dot"/"doh"/"ipv4"/"ipv6" is
// present, exactly as spec.md §6 specifies ("the decoder selects the first
// variant whose required keys are all present").
func (u *Upstream) UnmarshalJSON(data []byte) error {
	var special string
	if err := json.Unmarshal(data, &special); err == nil {
		switch special {
		case "NXDOMAIN":
			*u = Upstream{Kind: KindSpecial, Special: SpecialNXDOMAIN}

			return nil
		case "NODATA":
			*u = Upstream{Kind: KindSpecial, Special: SpecialNODATA}

			return nil
		default:
			return fmt.Errorf("unknown special upstream %q", special)
		}
	}

	var w upstreamWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decoding upstream: %w", err)
	}

	switch {
	case w.UDP != "":
		addr, err := netip.ParseAddrPort(w.UDP)
		if err != nil {
			return fmt.Errorf("udp upstream: %w", err)
		}

		*u = Upstream{Kind: KindUDP, Addr: addr}
	case w.TCP != "":
		addr, err := netip.ParseAddrPort(w.TCP)
		if err != nil {
			return fmt.Errorf("tcp upstream: %w", err)
		}

		*u = Upstream{Kind: KindTCP, Addr: addr}
	case w.DoT != "" && w.Domain != "":
		addr, err := netip.ParseAddrPort(w.DoT)
		if err != nil {
			return fmt.Errorf("dot upstream: %w", err)
		}

		*u = Upstream{Kind: KindDoT, Addr: addr, SNI: w.Domain}
	case w.DoH != "" && w.Domain != "":
		addr, err := netip.ParseAddrPort(w.DoH)
		if err != nil {
			return fmt.Errorf("doh upstream: %w", err)
		}

		up := Upstream{Kind: KindDoH, Addr: addr, SNI: w.Domain}
		if w.Socks5Proxy != "" {
			proxyAddr, err := netip.ParseAddrPort(w.Socks5Proxy)
			if err != nil {
				return fmt.Errorf("doh socks5_proxy: %w", err)
			}

			up.Socks5 = proxyAddr
		}

		*u = up
	case w.IPv4 != "":
		addr, err := netip.ParseAddr(w.IPv4)
		if err != nil || !addr.Is4() {
			return fmt.Errorf("invalid ipv4 upstream %q", w.IPv4)
		}

		*u = Upstream{Kind: KindIPv4, IPv4: addr}
	case w.IPv6 != "":
		addr, err := netip.ParseAddr(w.IPv6)
		if err != nil {
			return fmt.Errorf("invalid ipv6 upstream %q", w.IPv6)
		}

		*u = Upstream{Kind: KindIPv6, IPv6: addr}
	default:
		return fmt.Errorf("upstream object has no recognized variant keys: %s", data)
	}

	return nil
}

// MarshalJSON implements [json.Marshaler], the inverse of UnmarshalJSON.
func (u Upstream) MarshalJSON() ([]byte, error) {
	switch u.Kind {
	case KindUDP:
		return json.Marshal(upstreamWire{UDP: u.Addr.String()})
	case KindTCP:
		return json.Marshal(upstreamWire{TCP: u.Addr.String()})
	case KindDoT:
		return json.Marshal(upstreamWire{DoT: u.Addr.String(), Domain: u.SNI})
	case KindDoH:
		w := upstreamWire{DoH: u.Addr.String(), Domain: u.SNI}
		if u.HasSocks5() {
			w.Socks5Proxy = u.Socks5.String()
		}

		return json.Marshal(w)
	case KindIPv4:
		return json.Marshal(upstreamWire{IPv4: u.IPv4.String()})
	case KindIPv6:
		return json.Marshal(upstreamWire{IPv6: u.IPv6.String()})
	case KindSpecial:
		return json.Marshal(u.Special.String())
	default:
		return nil, fmt.Errorf("marshaling upstream: invalid kind %d", u.Kind)
	}
}
