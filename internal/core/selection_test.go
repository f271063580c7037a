package core

import "testing"

func TestParseIndexRange(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    IndexRange
		wantErr bool
	}{
		{"bare index", "3", IndexRange{Lo: 3, Hi: 3}, false},
		{"lo:hi range", "2:5", IndexRange{Lo: 2, Hi: 5}, false},
		{"empty is an error", "", IndexRange{}, true},
		{"non-numeric is an error", "abc", IndexRange{}, true},
		{"lo > hi is an error", "5:2", IndexRange{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseIndexRange(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestSelectionOptionsValidateMutualExclusion(t *testing.T) {
	opts := SelectionOptions{
		Attr: &AttrSelector{Attr: "protocol", Include: []string{"rnaseq"}, Exclude: []string{"wgbs"}},
	}
	if err := opts.Validate(); err == nil {
		t.Fatalf("expected mutual-exclusion error for sel-incl and sel-excl together")
	}
}

func TestSelectionOptionsPredicateLimit(t *testing.T) {
	limit := IndexRange{Lo: 2, Hi: 3}
	opts := SelectionOptions{Limit: &limit}
	pred, err := opts.Predicate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := NewSample("s", "", nil)
	if pred(s, 1) {
		t.Fatalf("index 1 should be excluded by --limit 2:3")
	}
	if !pred(s, 2) || !pred(s, 3) {
		t.Fatalf("indices 2 and 3 should be included by --limit 2:3")
	}
	if pred(s, 4) {
		t.Fatalf("index 4 should be excluded by --limit 2:3")
	}
}

func TestSelectionOptionsPredicateSkip(t *testing.T) {
	skip := IndexRange{Lo: 2, Hi: 2}
	opts := SelectionOptions{Skip: &skip}
	pred, err := opts.Predicate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := NewSample("s", "", nil)
	if !pred(s, 1) || !pred(s, 3) {
		t.Fatalf("indices outside the skip range should pass")
	}
	if pred(s, 2) {
		t.Fatalf("index 2 should be excluded by --skip 2")
	}
}

func TestSelectionOptionsPredicateAttrIncludeExclude(t *testing.T) {
	incl := SelectionOptions{Attr: &AttrSelector{Attr: "protocol", Include: []string{"rnaseq"}}}
	pred, err := incl.Predicate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rnaSample := NewSample("a", "rnaseq", nil)
	wgbsSample := NewSample("b", "wgbs", nil)
	if !pred(rnaSample, 1) {
		t.Fatalf("rnaseq sample should be included by sel-incl=rnaseq")
	}
	if pred(wgbsSample, 2) {
		t.Fatalf("wgbs sample should be excluded by sel-incl=rnaseq")
	}

	excl := SelectionOptions{Attr: &AttrSelector{Attr: "protocol", Exclude: []string{"wgbs"}}}
	pred, err = excl.Predicate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred(wgbsSample, 1) {
		t.Fatalf("wgbs sample should be excluded by sel-excl=wgbs")
	}
	if !pred(rnaSample, 2) {
		t.Fatalf("rnaseq sample should pass sel-excl=wgbs")
	}
}
