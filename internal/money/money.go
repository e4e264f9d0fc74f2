// Package money содержит арифметику денежных сумм в минорных единицах (центах).
package money

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidAmount возвращается при разборе некорректной денежной строки.
var ErrInvalidAmount = errors.New("invalid money amount")

// FromCents переводит центы в сумму в основных единицах.
func FromCents(cents int64) float64 {
	return float64(cents) / 100
}

// ParseDecimal разбирает десятичную строку вида "12.30" и возвращает сумму в центах.
// Дробная часть длиннее двух знаков округляется до ближайшего цента.
func ParseDecimal(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}

	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	intPart, fracPart, hasDot := strings.Cut(s, ".")
	if intPart == "" && fracPart == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	if len(intPart) > 15 {
		return 0, fmt.Errorf("%w: %q is too large", ErrInvalidAmount, s)
	}

	var cents int64
	for _, ch := range intPart {
		if ch < '0' || ch > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
		}
		cents = cents*10 + int64(ch-'0')
	}
	cents *= 100

	if hasDot {
		if fracPart == "" {
			return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
		}
		for _, ch := range fracPart {
			if ch < '0' || ch > '9' {
				return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
			}
		}
		switch {
		case len(fracPart) == 1:
			cents += int64(fracPart[0]-'0') * 10
		default:
			cents += int64(fracPart[0]-'0')*10 + int64(fracPart[1]-'0')
			// Округление по третьему знаку.
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				cents++
			}
		}
	}

	if negative {
		cents = -cents
	}

	return cents, nil
}

// Format форматирует сумму в центах как десятичную строку с двумя знаками.
func Format(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
