package core

import "testing"

func TestCatalogResolve(t *testing.T) {
	cat := NewCatalog([]Category{
		{Key: "kas", Label: "Kas Kelas", Sheet: "Kas", MonthlyTarget: 15000},
		{Key: "jahim", Label: "Pembayaran Jahim", Sheet: "Jahim", MonthlyTarget: 250000},
	})

	if got := cat.Resolve("jahim"); got.Label != "Pembayaran Jahim" {
		t.Fatalf("Resolve(jahim) = %+v", got)
	}
	// Unknown and empty keys fall back to the first configured category.
	if got := cat.Resolve("nope"); got.Key != "kas" {
		t.Fatalf("Resolve(nope) = %+v, want kas", got)
	}
	if got := cat.Resolve(""); got.Key != "kas" {
		t.Fatalf("Resolve(\"\") = %+v, want kas", got)
	}
}

func TestCatalogEmptyConfigurationGetsSyntheticDefault(t *testing.T) {
	cat := NewCatalog(nil)
	got := cat.Resolve("anything")
	if got.Key != DefaultCategory.Key || got.Sheet != DefaultCategory.Sheet {
		t.Fatalf("expected synthetic default, got %+v", got)
	}
	if len(cat.Categories()) != 1 {
		t.Fatalf("expected exactly one category, got %d", len(cat.Categories()))
	}
}

func TestCatalogNormalizesEntries(t *testing.T) {
	cat := NewCatalog([]Category{
		{Key: "kas"},               // label and sheet filled in
		{Key: ""},                  // dropped
		{Key: "kas", Label: "dup"}, // duplicate key dropped
	})
	got := cat.Resolve("kas")
	if got.Label != "kas" {
		t.Fatalf("label fallback: got %q", got.Label)
	}
	if got.Sheet == "" {
		t.Fatal("sheet fallback not applied")
	}
	if len(cat.Categories()) != 1 {
		t.Fatalf("expected 1 category, got %d", len(cat.Categories()))
	}
}
