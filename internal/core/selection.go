package core

import (
	"strconv"
	"strings"
)

// IndexRange is a 1-based inclusive [Lo, Hi] range, as accepted by
// --limit/--skip.
type IndexRange struct {
	Lo, Hi int
}

// ParseIndexRange parses "N" or "LO:HI" into an IndexRange.
func ParseIndexRange(s string) (IndexRange, error) {
	if s == "" {
		return IndexRange{}, Errorf(KindBadInput, "selection.parse_range", "empty range")
	}
	if !strings.Contains(s, ":") {
		n, err := strconv.Atoi(s)
		if err != nil {
			return IndexRange{}, Errorf(KindBadInput, "selection.parse_range", "invalid index %q: %v", s, err)
		}
		return IndexRange{Lo: n, Hi: n}, nil
	}
	parts := strings.SplitN(s, ":", 2)
	lo, err := strconv.Atoi(parts[0])
	if err != nil {
		return IndexRange{}, Errorf(KindBadInput, "selection.parse_range", "invalid range lo %q: %v", parts[0], err)
	}
	hi, err := strconv.Atoi(parts[1])
	if err != nil {
		return IndexRange{}, Errorf(KindBadInput, "selection.parse_range", "invalid range hi %q: %v", parts[1], err)
	}
	if lo > hi {
		return IndexRange{}, Errorf(KindBadInput, "selection.parse_range", "range %q has lo > hi", s)
	}
	return IndexRange{Lo: lo, Hi: hi}, nil
}

func (r IndexRange) contains(oneBasedIdx int) bool {
	return oneBasedIdx >= r.Lo && oneBasedIdx <= r.Hi
}

// AttrSelector restricts samples by an attribute's value being included
// in (or excluded from) a fixed set (--sel-attr/--sel-incl/--sel-excl).
type AttrSelector struct {
	Attr    string
	Include []string // mutually exclusive with Exclude
	Exclude []string
}

// SelectionOptions bundles the full --limit/--skip/--sel-* contract.
type SelectionOptions struct {
	Limit *IndexRange
	Skip  *IndexRange
	Attr  *AttrSelector
}

// Validate checks the mutual-exclusion rule between sel-incl and sel-excl.
func (o SelectionOptions) Validate() error {
	if o.Attr != nil && len(o.Attr.Include) > 0 && len(o.Attr.Exclude) > 0 {
		return Errorf(KindBadInput, "selection.validate", "--sel-incl and --sel-excl are mutually exclusive")
	}
	return nil
}

// Predicate returns a function selecting samples by 1-based position and
// attribute value:
//   - --limit: positive selection of the given range.
//   - --skip: negation (union of complements) of the given range.
//   - --sel-attr + --sel-incl/--sel-excl: attribute-based inclusion/exclusion.
func (o SelectionOptions) Predicate() (func(sample *Sample, oneBasedIdx int) bool, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return func(sample *Sample, idx int) bool {
		if o.Limit != nil && !o.Limit.contains(idx) {
			return false
		}
		if o.Skip != nil && o.Skip.contains(idx) {
			return false
		}
		if o.Attr != nil {
			v, ok := sample.Get(o.Attr.Attr)
			val := ""
			if ok {
				val, _ = v.AsString()
			}
			if len(o.Attr.Include) > 0 && !contains(o.Attr.Include, val) {
				return false
			}
			if len(o.Attr.Exclude) > 0 && contains(o.Attr.Exclude, val) {
				return false
			}
		}
		return true
	}, nil
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
