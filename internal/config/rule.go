package config

import (
	"encoding/json"
	"fmt"
)

// PatternKind discriminates whether a [Pattern] matches a name exactly or on
// any of its suffixes.
type PatternKind uint8

// PatternKind values.
const (
	PatternDomain PatternKind = iota + 1
	PatternSuffix
)

// Pattern is one side of a [Rule]: either an exact-match or a suffix-match
// set of names, optionally restricted to a set of record types.  Records,
// when non-nil, is never empty — [Pattern.UnmarshalJSON] rejects an explicit
// empty "record" array, since an empty restriction isn't expressible in
// spec.md's data model ("records is an optional non-empty set").
type Pattern struct {
	Kind    PatternKind
	Names   []string
	Records []uint16
}

// patternWire is the wire shape of the untagged domain/suffix pattern union.
type patternWire struct {
	Domain []string `json:"domain,omitempty"`
	Suffix []string `json:"suffix,omitempty"`
	Record []string `json:"record,omitempty"`
}

// UnmarshalJSON implements [json.Unmarshaler].
func (p *Pattern) UnmarshalJSON(data []byte) error {
	var w patternWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decoding pattern: %w", err)
	}

	var records []uint16
	if w.Record != nil {
		if len(w.Record) == 0 {
			return fmt.Errorf("pattern record list must not be empty when present")
		}

		records = make([]uint16, len(w.Record))
		for i, mnemonic := range w.Record {
			rt, err := parseRecordType(mnemonic)
			if err != nil {
				return fmt.Errorf("pattern record[%d]: %w", i, err)
			}

			records[i] = rt
		}
	}

	switch {
	case w.Domain != nil:
		*p = Pattern{Kind: PatternDomain, Names: w.Domain, Records: records}
	case w.Suffix != nil:
		*p = Pattern{Kind: PatternSuffix, Names: w.Suffix, Records: records}
	default:
		return fmt.Errorf("pattern object has neither \"domain\" nor \"suffix\": %s", data)
	}

	return nil
}

// MarshalJSON implements [json.Marshaler].
func (p Pattern) MarshalJSON() ([]byte, error) {
	var records []string
	if p.Records != nil {
		records = make([]string, len(p.Records))
		for i, rt := range p.Records {
			records[i] = recordTypeName(rt)
		}
	}

	w := patternWire{Record: records}
	switch p.Kind {
	case PatternDomain:
		w.Domain = p.Names
	case PatternSuffix:
		w.Suffix = p.Names
	default:
		return nil, fmt.Errorf("marshaling pattern: invalid kind %d", p.Kind)
	}

	return json.Marshal(w)
}

// Rule binds a [Pattern] to the [Upstream] that should answer names matching
// it.  Rules are totally ordered by their position in [Config.Rule];
// earlier rules outrank later ones.
type Rule struct {
	Pattern  Pattern  `json:"pattern"`
	Upstream Upstream `json:"upstream"`
}
