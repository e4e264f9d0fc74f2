package validation

import "testing"

func TestIsValidCardNumber(t *testing.T) {
	tests := []struct {
		name   string
		number string
		want   bool
	}{
		{"valid physical", "GC-ABCD-EFGH-JKMN", true},
		{"valid digital", "EGC-2345-6789-WXYZ", true},
		{"lowercase accepted", "gc-abcd-efgh-jkmn", true},
		{"surrounding spaces accepted", "  GC-ABCD-EFGH-JKMN  ", true},
		{"no prefix", "ABCD-EFGH-JKMN", false},
		{"unknown prefix", "XX-ABCD-EFGH-JKMN", false},
		{"ambiguous character O", "GC-ABCD-EFGH-JKMO", false},
		{"ambiguous character 0", "GC-0BCD-EFGH-JKMN", false},
		{"ambiguous character I", "GC-ABCD-EFGH-JKMI", false},
		{"ambiguous character L", "GC-ABCD-EFGL-JKMN", false},
		{"ambiguous character 1", "EGC-1BCD-EFGH-JKMN", false},
		{"too few groups", "GC-ABCD-EFGH", false},
		{"too many groups", "GC-ABCD-EFGH-JKMN-PQRS", false},
		{"short group", "GC-ABC-EFGH-JKMN", false},
		{"long group", "GC-ABCDE-FGHJ-KMNP", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidCardNumber(tt.number); got != tt.want {
				t.Fatalf("IsValidCardNumber(%q) = %v, want %v", tt.number, got, tt.want)
			}
		})
	}
}

func TestNormalizeCardNumber(t *testing.T) {
	if got := NormalizeCardNumber("  egc-abcd-efgh-jkmn "); got != "EGC-ABCD-EFGH-JKMN" {
		t.Fatalf("NormalizeCardNumber = %q", got)
	}
}

func TestCardAlphabetExcludesAmbiguous(t *testing.T) {
	for _, ch := range "0O1IL" {
		for _, a := range CardAlphabet {
			if a == ch {
				t.Fatalf("alphabet contains ambiguous character %q", ch)
			}
		}
	}
}
