package config_test

import (
	"net/netip"
	"testing"
)

func mustAddrPort(t *testing.T, s string) netip.AddrPort {
	t.Helper()

	ap, err := netip.ParseAddrPort(s)
	if err != nil {
		t.Fatalf("parsing addr port %q: %v", s, err)
	}

	return ap
}

func mustAddr(t *testing.T, s string) netip.Addr {
	t.Helper()

	a, err := netip.ParseAddr(s)
	if err != nil {
		t.Fatalf("parsing addr %q: %v", s, err)
	}

	return a
}
