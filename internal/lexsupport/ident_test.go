package lexsupport

import "testing"

func TestIsValidIdent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"plain", "factorial", true},
		{"leading underscore", "_private", true},
		{"digits after first letter", "x1", true},
		{"underscore only", "_", true},
		{"empty", "", false},
		{"leading digit", "1x", false},
		{"contains hyphen", "not-an-ident", false},
		{"contains space", "has space", false},
		{"unicode letter", "café", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidIdent(tt.in); got != tt.want {
				t.Errorf("IsValidIdent(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdentEquatesComposedAndDecomposedForms(t *testing.T) {
	composed := "café"   // e-acute as one precomposed rune (NFC)
	decomposed := "café" // plain e followed by a combining acute accent (NFD)
	if composed == decomposed {
		t.Fatal("test fixture invalid: inputs must differ before normalization")
	}
	if NormalizeIdent(composed) != NormalizeIdent(decomposed) {
		t.Errorf("NFC forms should be equal: %q vs %q", NormalizeIdent(composed), NormalizeIdent(decomposed))
	}
}
