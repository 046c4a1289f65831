package utils

import (
	"strings"
	"testing"
)

func TestIsUUID(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"3f1c2a9e-8d4b-4c1e-9a7f-0b2d6e5c4a31", true},
		{"", false},
		{"not-a-uuid", false},
		{"3f1c2a9e8d4b4c1e9a7f0b2d6e5c4a31", false},
		{"urn:uuid:3f1c2a9e-8d4b-4c1e-9a7f-0b2d6e5c4a31", false},
	}

	for _, tt := range tests {
		if got := IsUUID(tt.in); got != tt.want {
			t.Fatalf("IsUUID(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCacheKeys(t *testing.T) {
	era := " ABC "

	if got := BuildGurusListCacheKey(&era); got != "gurus:list:v1:era=abc" {
		t.Fatalf("unexpected key %q", got)
	}

	if BuildGurusListCacheKey(nil) == BuildGurusListCacheKey(&era) {
		t.Fatalf("filtered and unfiltered lists must not share a key")
	}

	for _, k := range []string{BuildGurusListCacheKey(nil), BuildGuruDetailCacheKey("x")} {
		if !strings.HasPrefix(k, GurusCachePrefix) {
			t.Fatalf("%q should live under the gurus prefix", k)
		}
	}

	if !strings.HasPrefix(BuildCategoriesListCacheKey(), CategoriesCachePrefix) {
		t.Fatalf("categories key outside its prefix")
	}
}
