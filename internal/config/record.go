package config

import (
	"fmt"

	"github.com/miekg/dns"
)

// parseRecordType converts a DNS mnemonic (e.g. "A", "AAAA", "MX") to its
// wire-format numeric type, the way [dns.StringToType] already maps it for
// the rest of the proxy.
func parseRecordType(mnemonic string) (rt uint16, err error) {
	rt, ok := dns.StringToType[mnemonic]
	if !ok {
		return 0, fmt.Errorf("unknown record type %q", mnemonic)
	}

	return rt, nil
}

// recordTypeName is the inverse of parseRecordType, used when re-encoding a
// Pattern back to JSON.
func recordTypeName(rt uint16) string {
	if name, ok := dns.TypeToString[rt]; ok {
		return name
	}

	return fmt.Sprintf("TYPE%d", rt)
}
