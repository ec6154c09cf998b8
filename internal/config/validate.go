package config

import (
	"fmt"

	"github.com/miekg/dns"
)

// Validate checks the cross-field constraints spec.md places on a rule list:
// an IPv4 upstream only makes sense under a pattern restricted to A
// records, and an IPv6 upstream only under AAAA, since those are the only
// record types the synthesized answer could ever satisfy.
func Validate(rules []Rule) error {
	for i, r := range rules {
		if err := validateRule(r); err != nil {
			return fmt.Errorf("rule[%d]: %w", i, err)
		}
	}

	return nil
}

func validateRule(r Rule) error {
	switch r.Upstream.Kind {
	case KindIPv4:
		if !recordsLeadWith(r.Pattern.Records, dns.TypeA) {
			return fmt.Errorf("IPv4 should be used with 'A' record, got %s", recordsString(r.Pattern.Records))
		}
	case KindIPv6:
		if !recordsLeadWith(r.Pattern.Records, dns.TypeAAAA) {
			return fmt.Errorf("IPv6 should be used with 'AAAA' record, got %s", recordsString(r.Pattern.Records))
		}
	}

	return nil
}

// recordsLeadWith reports whether records is present (non-nil, and so
// non-empty per [Pattern.UnmarshalJSON]) and its first element is want, per
// spec.md §6: "pattern.record must exist and its first element must be A"
// (or AAAA for an IPv6 upstream).
func recordsLeadWith(records []uint16, want uint16) bool {
	return len(records) > 0 && records[0] == want
}

func recordsString(records []uint16) string {
	if records == nil {
		return "any"
	}

	names := make([]string, len(records))
	for i, rt := range records {
		names[i] = recordTypeName(rt)
	}

	return fmt.Sprint(names)
}
