package money

import (
	"errors"
	"testing"
)

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"1", 100},
		{"12.30", 1230},
		{"12.3", 1230},
		{"12.34", 1234},
		{"0.01", 1},
		{".5", 50},
		{"100.", -1}, // ошибка
		{"100.005", 10001},
		{"100.004", 10000},
		{"-5.25", -525},
		{"+5.25", 525},
		{" 19.99 ", 1999},
		{"", -1},
		{"abc", -1},
		{"1.2.3", -1},
		{"12,30", -1},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDecimal(tt.in)
			if tt.want == -1 {
				if err == nil {
					t.Fatalf("ParseDecimal(%q) = %d, want error", tt.in, got)
				}
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("error = %v, want ErrInvalidAmount", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecimal(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("ParseDecimal(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0.00"},
		{1, "0.01"},
		{1230, "12.30"},
		{100000, "1000.00"},
		{-525, "-5.25"},
	}

	for _, tt := range tests {
		if got := Format(tt.in); got != tt.want {
			t.Fatalf("Format(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFromCents(t *testing.T) {
	if got := FromCents(1999); got != 19.99 {
		t.Fatalf("FromCents(1999) = %v, want 19.99", got)
	}
}
