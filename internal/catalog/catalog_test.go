package catalog_test

import (
	"testing"

	"github.com/blacktop/imagine/internal/catalog"
)

func TestDefaultsExist(t *testing.T) {
	if _, ok := catalog.LookupStyle(catalog.DefaultStyle); !ok {
		t.Errorf("default style %q missing from catalog", catalog.DefaultStyle)
	}
	if !catalog.IsAspectRatio(catalog.DefaultAspectRatio) {
		t.Errorf("default aspect ratio %q missing from catalog", catalog.DefaultAspectRatio)
	}
}

func TestAspectRatiosMatchRemoteService(t *testing.T) {
	want := []string{"1:1", "16:9", "9:16", "4:3", "3:4"}
	got := catalog.AspectRatioIDs()
	if len(got) != len(want) {
		t.Fatalf("expected %d aspect ratios, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("aspect ratio %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestStylesReturnsCopy(t *testing.T) {
	styles := catalog.Styles()
	styles[0].Prefix = "tampered"

	s, ok := catalog.LookupStyle(styles[0].ID)
	if !ok {
		t.Fatalf("style %q not found", styles[0].ID)
	}
	if s.Prefix == "tampered" {
		t.Error("mutating the returned slice changed the catalog")
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, ok := catalog.LookupStyle("vaporwave"); ok {
		t.Error("expected unknown style lookup to fail")
	}
	if catalog.IsAspectRatio("21:9") {
		t.Error("expected 21:9 to be unsupported")
	}
}

func TestStyleIDsUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, id := range catalog.StyleIDs() {
		if seen[id] {
			t.Errorf("duplicate style id %q", id)
		}
		seen[id] = true
	}
}
