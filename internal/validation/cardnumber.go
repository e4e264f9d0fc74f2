// Package validation содержит функции валидации входных данных.
package validation

import "strings"

// CardAlphabet — алфавит символов номера карты. Визуально неоднозначные
// символы (0, O, 1, I, L) исключены.
const CardAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

const (
	cardGroupSize  = 4
	cardGroupCount = 3
)

// NormalizeCardNumber приводит введённый вручную номер карты к каноническому виду.
func NormalizeCardNumber(number string) string {
	return strings.ToUpper(strings.TrimSpace(number))
}

// IsValidCardNumber проверяет формат номера подарочной карты:
// префикс GC- (физическая) или EGC- (цифровая) и три группы по четыре
// символа из CardAlphabet, разделённые дефисами. Регистр не учитывается.
func IsValidCardNumber(number string) bool {
	n := NormalizeCardNumber(number)

	var rest string
	switch {
	case strings.HasPrefix(n, "EGC-"):
		rest = n[len("EGC-"):]
	case strings.HasPrefix(n, "GC-"):
		rest = n[len("GC-"):]
	default:
		return false
	}

	groups := strings.Split(rest, "-")
	if len(groups) != cardGroupCount {
		return false
	}

	for _, g := range groups {
		if len(g) != cardGroupSize {
			return false
		}
		for _, ch := range g {
			if !strings.ContainsRune(CardAlphabet, ch) {
				return false
			}
		}
	}

	return true
}
