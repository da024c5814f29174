package tablediff

import (
	"math"
	"math/big"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// floatEpsilon bounds both the absolute and the relative error accepted
// when comparing floating point values.
const floatEpsilon = 1e-6

// EqualValues reports whether two cell values are equivalent under the
// given policy. Fixtures arrive as plain text while drivers return
// natively typed values, so equality is a coercion ladder rather than a
// structural check: the precedence order below is fixed, and the first
// matching rule decides, which keeps the result deterministic for every
// type pair.
func EqualValues(expected, actual CellValue, policy Policy) bool {
	switch policy.Kind {
	case PolicyIgnore:
		return true
	case PolicyNotNull:
		return !actual.IsNull()
	case PolicyRegex:
		if actual.IsNull() {
			return false
		}

		return policy.matches(actual.Render())
	}

	if expected.IsNull() || actual.IsNull() {
		return expected.IsNull() == actual.IsNull()
	}

	switch policy.Kind {
	case PolicyCaseInsensitive:
		return strings.EqualFold(expected.Render(), actual.Render())
	case PolicyNumeric:
		if eq, ok := numericEqual(expected, actual); ok {
			return eq
		}

		return normalizedTextEqual(expected, actual)
	case PolicyTimestampFlexible:
		return normalizedTextEqual(expected, actual)
	}

	return coercedEqual(expected, actual)
}

// coercedEqual is the Strict ladder. Rules are tried in order; the first
// applicable rule decides.
func coercedEqual(expected, actual CellValue) bool {
	// 1. Same kind, same payload.
	if expected.kind == actual.kind && expected.kind != KindStreamedText {
		if eq, decided := sameKindEqual(expected, actual); decided && eq {
			return true
		}
	}

	// 2. Streamed text: drain once, then plain text comparison against
	// the other side's text form.
	if expected.kind == KindStreamedText || actual.kind == KindStreamedText {
		return expected.Render() == actual.Render()
	}

	// 3. Text against a native number.
	if text, num, ok := textNumberPair(expected, actual); ok {
		return textNumberEqual(text, num)
	}

	// 4. Number against number in differing representations.
	if isNumber(expected) && isNumber(actual) {
		eq, _ := numericEqual(expected, actual)
		return eq
	}

	// 5. Boolean against text.
	if b, text, ok := boolTextPair(expected, actual); ok {
		return boolTextEqual(b, text)
	}

	// 6. Normalized text forms.
	return normalizedTextEqual(expected, actual)
}

// sameKindEqual compares payloads of identical kind. The second return
// is false when the kind has no direct comparison (never the case for
// the kinds routed here).
func sameKindEqual(a, b CellValue) (bool, bool) {
	switch a.kind {
	case KindText, KindTemporal:
		return a.text == b.text, true
	case KindInteger:
		return a.integer == b.integer, true
	case KindDecimal:
		return a.dec.Equal(b.dec), true
	case KindFloat:
		return floatEqual(a.float, b.float), true
	case KindBoolean:
		return a.boolean == b.boolean, true
	case KindBinary:
		return string(a.binary) == string(b.binary), true
	default:
		return false, false
	}
}

func isNumber(v CellValue) bool {
	return v.kind == KindInteger || v.kind == KindDecimal || v.kind == KindFloat
}

func isTextual(v CellValue) bool {
	return v.kind == KindText || v.kind == KindTemporal
}

// textNumberPair splits a (text, number) pair regardless of direction.
func textNumberPair(a, b CellValue) (text, num CellValue, ok bool) {
	if isTextual(a) && isNumber(b) {
		return a, b, true
	}

	if isNumber(a) && isTextual(b) {
		return b, a, true
	}

	return CellValue{}, CellValue{}, false
}

// textNumberEqual parses the text side into the number side's domain.
// Text that does not parse as a number falls back to raw text equality
// rather than failing the comparison outright.
func textNumberEqual(text, num CellValue) bool {
	s := strings.TrimSpace(text.text)

	if num.kind == KindFloat {
		f, err := parseFloat(s)
		if err != nil {
			return text.text == num.Render()
		}

		return floatEqual(f, num.float)
	}

	if !strings.ContainsAny(s, ".eE") {
		// Integer-shaped text: exact integer comparison, arbitrary width.
		i, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return text.text == num.Render()
		}

		switch num.kind {
		case KindInteger:
			return i.IsInt64() && i.Int64() == num.integer
		case KindDecimal:
			// Covers both the whole-valued decimal (exact integer
			// comparison) and the fractional one (never equal to an
			// integer-shaped text, which Equal decides by value).
			return decimal.NewFromBigInt(i, 0).Equal(num.dec)
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return text.text == num.Render()
	}

	return d.Equal(asDecimal(num))
}

// numericEqual compares two values numerically. ok is false when either
// side has no numeric reading.
func numericEqual(a, b CellValue) (eq, ok bool) {
	if a.kind == KindFloat || b.kind == KindFloat {
		fa, okA := asFloat(a)
		fb, okB := asFloat(b)

		if !okA || !okB {
			return false, false
		}

		return floatEqual(fa, fb), true
	}

	da, okA := asDecimalStrict(a)
	db, okB := asDecimalStrict(b)

	if !okA || !okB {
		return false, false
	}

	return da.Equal(db), true
}

func asDecimal(v CellValue) decimal.Decimal {
	d, _ := asDecimalStrict(v)
	return d
}

func asDecimalStrict(v CellValue) (decimal.Decimal, bool) {
	switch v.kind {
	case KindInteger:
		return decimal.NewFromInt(v.integer), true
	case KindDecimal:
		return v.dec, true
	case KindFloat:
		return decimal.NewFromFloat(v.float), true
	case KindText, KindTemporal:
		d, err := decimal.NewFromString(strings.TrimSpace(v.text))
		if err != nil {
			return decimal.Decimal{}, false
		}

		return d, true
	default:
		return decimal.Decimal{}, false
	}
}

func asFloat(v CellValue) (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.float, true
	case KindInteger:
		return float64(v.integer), true
	case KindDecimal:
		return v.dec.InexactFloat64(), true
	case KindText, KindTemporal:
		f, err := parseFloat(strings.TrimSpace(v.text))
		if err != nil {
			return 0, false
		}

		return f, true
	default:
		return 0, false
	}
}

func parseFloat(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}

	return d.InexactFloat64(), nil
}

// floatEqual is the epsilon rule: absolute below the epsilon scale,
// relative above it. NaN equals NaN and same-signed infinities are
// equal, so a fixture can assert those driver outputs.
func floatEqual(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}

	if math.IsInf(a, 1) && math.IsInf(b, 1) {
		return true
	}

	if math.IsInf(a, -1) && math.IsInf(b, -1) {
		return true
	}

	if math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) || math.IsInf(b, 0) {
		return false
	}

	d := math.Abs(a - b)
	m := math.Max(math.Abs(a), math.Abs(b))

	if m < floatEpsilon {
		return d < floatEpsilon
	}

	return d/m < floatEpsilon
}

func boolTextPair(a, b CellValue) (boolean CellValue, text CellValue, ok bool) {
	if a.kind == KindBoolean && isTextual(b) {
		return a, b, true
	}

	if b.kind == KindBoolean && isTextual(a) {
		return b, a, true
	}

	return CellValue{}, CellValue{}, false
}

// boolTextEqual accepts the usual textual spellings drivers and fixture
// authors produce for booleans. Unrecognized text is simply not equal.
func boolTextEqual(boolean, text CellValue) bool {
	switch strings.ToLower(strings.TrimSpace(text.text)) {
	case "1", "true", "yes", "y":
		return boolean.boolean
	case "0", "false", "no", "n":
		return !boolean.boolean
	default:
		return false
	}
}

// timestampShape matches the text encoding both fixture files and
// database drivers use for timestamps, with optional fractional seconds.
var (
	timestampShape = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}:\d{2}(\.\d+)?$`)
	zeroFraction   = regexp.MustCompile(`\.0+$`)
)

// normalizeTimestamp strips an all-zero fractional-second suffix from
// timestamp-shaped text. Drivers render "...00.0" where fixtures say
// "...00"; both mean the same instant.
func normalizeTimestamp(s string) string {
	if timestampShape.MatchString(s) {
		return zeroFraction.ReplaceAllString(s, "")
	}

	return s
}

func normalizedTextEqual(a, b CellValue) bool {
	return normalizeTimestamp(a.Render()) == normalizeTimestamp(b.Render())
}
