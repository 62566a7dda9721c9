package catalog_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"autopost/internal/catalog"
	"autopost/internal/services"
)

type usedSet map[string]struct{}

func (u usedSet) Contains(key string) bool {
	_, ok := u[key]
	return ok
}

func (u usedSet) Len() int { return len(u) }

func newUsed(keys ...string) usedSet {
	u := usedSet{}
	for _, k := range keys {
		u[k] = struct{}{}
	}
	return u
}

func seeded() catalog.Option {
	return catalog.WithRand(rand.New(rand.NewPCG(1, 2)))
}

func TestCandidateKeyEncoding(t *testing.T) {
	if got := (catalog.Candidate{Subject: "fox", Attribute: "curious"}).Key(); got != "fox|curious" {
		t.Fatalf("unexpected key %q", got)
	}

	a := catalog.Candidate{Subject: "fox|y", Attribute: ""}.Key()
	b := catalog.Candidate{Subject: "fox", Attribute: "y"}.Key()
	if a == b {
		t.Fatalf("expected distinct keys, both were %q", a)
	}

	for _, c := range []catalog.Candidate{
		{Subject: "fox", Attribute: "curious"},
		{Subject: `back\slash`, Attribute: "pipe|d"},
		{Subject: "", Attribute: ""},
		{Subject: "snow leopard", Attribute: "sleepy"},
	} {
		parsed, err := catalog.ParseKey(c.Key())
		if err != nil {
			t.Fatalf("ParseKey(%q) returned error: %v", c.Key(), err)
		}
		if parsed != c {
			t.Fatalf("round trip mismatch: got %+v want %+v", parsed, c)
		}
	}
}

func TestParseKeyRejectsMalformed(t *testing.T) {
	for _, key := range []string{"nokey", "a|b|c", `a|b\`} {
		if _, err := catalog.ParseKey(key); err == nil {
			t.Fatalf("expected error for %q", key)
		}
	}
}

func TestDisplayNameTitleCases(t *testing.T) {
	got := catalog.Candidate{Subject: "snow leopard", Attribute: "curious"}.DisplayName()
	if got != "Curious Snow Leopard" {
		t.Fatalf("unexpected display name %q", got)
	}
}

func TestSelectUniqueSkipsUsedCandidates(t *testing.T) {
	selector := catalog.NewSelector([]string{"fox", "owl"}, []string{"curious"}, seeded())

	got, err := selector.SelectUnique(context.Background(), newUsed("fox|curious"), 100)
	if err != nil {
		t.Fatalf("SelectUnique returned error: %v", err)
	}
	if got.Subject != "owl" || got.Attribute != "curious" {
		t.Fatalf("expected owl/curious, got %+v", got)
	}
}

func TestSelectUniqueNeverReturnsUsedKey(t *testing.T) {
	subjects := []string{"fox", "owl", "otter", "hare"}
	attrs := []string{"brave", "sleepy", "shy"}
	used := newUsed("fox|brave", "owl|sleepy", "otter|shy", "hare|brave")
	selector := catalog.NewSelector(subjects, attrs, seeded())

	for i := 0; i < 200; i++ {
		got, err := selector.SelectUnique(context.Background(), used, 50)
		if err != nil {
			t.Fatalf("iteration %d: unexpected error: %v", i, err)
		}
		if used.Contains(got.Key()) {
			t.Fatalf("iteration %d: returned used key %q", i, got.Key())
		}
	}
}

func TestSelectUniqueExhausted(t *testing.T) {
	selector := catalog.NewSelector([]string{"fox", "owl"}, []string{"curious"}, seeded())
	used := newUsed("fox|curious", "owl|curious")

	_, err := selector.SelectUnique(context.Background(), used, 25)
	if !errors.Is(err, catalog.ErrExhaustedCandidates) {
		t.Fatalf("expected ErrExhaustedCandidates, got %v", err)
	}
}

func TestSelectUniqueEmptyCatalog(t *testing.T) {
	for name, selector := range map[string]*catalog.Selector{
		"no subjects":   catalog.NewSelector(nil, []string{"curious"}),
		"no attributes": catalog.NewSelector([]string{"fox"}, nil),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := selector.SelectUnique(context.Background(), newUsed(), 10)
			if !errors.Is(err, catalog.ErrEmptyCatalog) {
				t.Fatalf("expected ErrEmptyCatalog, got %v", err)
			}
			if !errors.Is(err, services.ErrConfiguration) {
				t.Fatalf("expected configuration marker, got %v", err)
			}
		})
	}
}

func TestSelectUniqueTreatsNonPositiveAttemptsAsOne(t *testing.T) {
	selector := catalog.NewSelector([]string{"fox"}, []string{"curious"}, seeded())
	got, err := selector.SelectUnique(context.Background(), newUsed(), 0)
	if err != nil {
		t.Fatalf("SelectUnique returned error: %v", err)
	}
	if got.Key() != "fox|curious" {
		t.Fatalf("unexpected candidate %+v", got)
	}
}

func TestSelectUniqueHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	selector := catalog.NewSelector([]string{"fox"}, []string{"curious"})
	if _, err := selector.SelectUnique(ctx, newUsed(), 5); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestLoadSubjects(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "animals.json")
	if err := os.WriteFile(path, []byte(`["fox", " owl ", "", "fox"]`), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	subjects, err := catalog.LoadSubjects(path)
	if err != nil {
		t.Fatalf("LoadSubjects returned error: %v", err)
	}
	if len(subjects) != 2 || subjects[0] != "fox" || subjects[1] != "owl" {
		t.Fatalf("unexpected subjects %v", subjects)
	}

	if _, err := catalog.LoadSubjects(filepath.Join(dir, "missing.json")); !errors.Is(err, catalog.ErrEmptyCatalog) {
		t.Fatalf("expected missing catalog to report ErrEmptyCatalog, got %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"fox": true}`), 0o644); err != nil {
		t.Fatalf("write bad catalog: %v", err)
	}
	if _, err := catalog.LoadSubjects(bad); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSaveSubjectsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "animals.json")
	if err := catalog.SaveSubjects(path, []string{"owl", "fox", "owl"}); err != nil {
		t.Fatalf("SaveSubjects returned error: %v", err)
	}
	subjects, err := catalog.LoadSubjects(path)
	if err != nil {
		t.Fatalf("LoadSubjects returned error: %v", err)
	}
	if len(subjects) != 2 || subjects[0] != "owl" {
		t.Fatalf("unexpected subjects %v", subjects)
	}
}
