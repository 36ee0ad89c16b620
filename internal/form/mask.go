// Package form validates and formats document form input.
package form

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/autodoc/autodoc/internal/model"
)

// Maximum formatted lengths. Input that would format past these is dropped.
const (
	MaxCPFLength      = 14 // 000.000.000-00
	MaxCNPJLength     = 18 // 00.000.000/0000-00
	MaxCurrencyLength = 15

	cpfDigits  = 11
	cnpjDigits = 14

	// maxCurrencyDigits bounds the cents value so it always fits an int64.
	maxCurrencyDigits = 15
)

var (
	cpfGroups  = []int{3, 3, 3, 2}
	cpfSeps    = []string{".", ".", "-"}
	cnpjGroups = []int{2, 3, 3, 4, 2}
	cnpjSeps   = []string{".", ".", "/", "-"}

	brPrinter = message.NewPrinter(language.BrazilianPortuguese)

	maskedCurrencyPattern = regexp.MustCompile(`^\d{1,3}(\.\d{3})*,\d{2}$`)
	plainDecimalPattern   = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
)

// Digits strips every non-digit rune.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// groupDigits writes digits into groups joined by separators.
// Digits beyond the sum of the groups are dropped; a trailing partial group
// is emitted as-is so that partially typed values format progressively.
func groupDigits(digits string, groups []int, seps []string) string {
	var b strings.Builder
	pos := 0
	for i, size := range groups {
		if pos >= len(digits) {
			break
		}
		if i > 0 {
			b.WriteString(seps[i-1])
		}
		end := pos + size
		if end > len(digits) {
			end = len(digits)
		}
		b.WriteString(digits[pos:end])
		pos = end
	}
	return b.String()
}

// FormatCPF formats input as NNN.NNN.NNN-NN.
func FormatCPF(input string) string {
	return groupDigits(Digits(input), cpfGroups, cpfSeps)
}

// FormatCNPJ formats input as NN.NNN.NNN/NNNN-NN.
func FormatCNPJ(input string) string {
	return groupDigits(Digits(input), cnpjGroups, cnpjSeps)
}

// FormatCPFOrCNPJ picks the CPF mask for up to 11 digits and CNPJ above.
func FormatCPFOrCNPJ(input string) string {
	if len(Digits(input)) <= cpfDigits {
		return FormatCPF(input)
	}
	return FormatCNPJ(input)
}

// FormatCurrency reads the digits of input as cents and formats them as a
// pt-BR decimal with two fraction digits ("1.234,56").
// Input without digits formats to the empty string, never "0,00".
func FormatCurrency(input string) string {
	raw := Digits(input)
	if raw == "" {
		return ""
	}
	digits := strings.TrimLeft(raw, "0")
	if len(digits) > maxCurrencyDigits {
		digits = digits[:maxCurrencyDigits]
	}
	cents, err := strconv.ParseInt("0"+digits, 10, 64)
	if err != nil {
		return ""
	}
	return formatCents(cents)
}

func formatCents(cents int64) string {
	v := float64(cents) / 100
	return brPrinter.Sprint(number.Decimal(v, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// ParseCurrency returns the value in cents of either mask output
// ("1.234,56") or a plain decimal in reais ("1234.56", "1234").
// Any other shape, such as "1.500" or "1,5", is rejected.
func ParseCurrency(s string) (int64, bool) {
	var digits string
	switch {
	case maskedCurrencyPattern.MatchString(s):
		digits = Digits(s)
	case plainDecimalPattern.MatchString(s):
		whole, frac, _ := strings.Cut(s, ".")
		digits = whole + frac + strings.Repeat("0", 2-len(frac))
	default:
		return 0, false
	}

	digits = strings.TrimLeft(digits, "0")
	if len(digits) > maxCurrencyDigits {
		return 0, false
	}
	cents, err := strconv.ParseInt("0"+digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return cents, true
}

// maxLength returns the maximum formatted length for a format.
func maxLength(format model.FieldFormat, formatted string) int {
	switch format {
	case model.FormatCPF:
		return MaxCPFLength
	case model.FormatCPFCNPJ:
		if len(Digits(formatted)) <= cpfDigits {
			return MaxCPFLength
		}
		return MaxCNPJLength
	case model.FormatCurrency:
		return MaxCurrencyLength
	default:
		return 0
	}
}

// Format applies the mask of a format to a value.
func Format(format model.FieldFormat, value string) string {
	switch format {
	case model.FormatCPF:
		return FormatCPF(value)
	case model.FormatCPFCNPJ:
		return FormatCPFOrCNPJ(value)
	case model.FormatCurrency:
		return FormatCurrency(value)
	default:
		return value
	}
}

// Mask applies a field's mask to the next value typed by the user.
// When the formatted result would exceed the mask's maximum length the
// previous value is kept, so further input is ignored. Clearing a field
// always yields the empty string.
func Mask(field model.FieldConfig, previous, next string) string {
	if field.Format == model.FormatNone {
		return next
	}
	if next == "" {
		return ""
	}

	var formatted string
	switch field.Format {
	case model.FormatCPF:
		// Digits past the eleventh would be dropped silently; treat them as overflow.
		if len(Digits(next)) > cpfDigits {
			return previous
		}
		formatted = FormatCPF(next)
	case model.FormatCPFCNPJ:
		if len(Digits(next)) > cnpjDigits {
			return previous
		}
		formatted = FormatCPFOrCNPJ(next)
	case model.FormatCurrency:
		if len(strings.TrimLeft(Digits(next), "0")) > maxCurrencyDigits {
			return previous
		}
		formatted = FormatCurrency(next)
	default:
		return next
	}

	if limit := maxLength(field.Format, formatted); limit > 0 && len(formatted) > limit {
		return previous
	}
	return formatted
}

// normalizeCurrency rewrites an amount accepted by ParseCurrency in mask
// form. Anything else is returned unchanged for Validate to reject.
func normalizeCurrency(value string) string {
	cents, ok := ParseCurrency(value)
	if !ok {
		return value
	}
	return formatCents(cents)
}
