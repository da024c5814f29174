package tablediff

import (
	"encoding/base64"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"
)

// ScalarKind identifies the payload type carried by a CellValue.
type ScalarKind int

const (
	// KindText is a plain string payload (the shape fixture files always produce).
	KindText ScalarKind = iota
	// KindInteger is a 64-bit integer payload.
	KindInteger
	// KindDecimal is an arbitrary-precision number payload.
	KindDecimal
	// KindFloat is a double-precision floating point payload.
	KindFloat
	// KindBoolean is a true/false payload.
	KindBoolean
	// KindTemporal is a text-encoded date/time payload.
	KindTemporal
	// KindBinary is a raw byte payload.
	KindBinary
	// KindStreamedText is a read-once large-text handle that must be
	// materialized before reuse.
	KindStreamedText
)

// String returns the kind name for diagnostics.
func (k ScalarKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInteger:
		return "integer"
	case KindDecimal:
		return "decimal"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "boolean"
	case KindTemporal:
		return "temporal"
	case KindBinary:
		return "binary"
	case KindStreamedText:
		return "streamed-text"
	default:
		return "unknown"
	}
}

// CellValue is a single table cell: an optional scalar payload plus an
// explicit null marker. Null denotes SQL NULL or an empty fixture cell,
// not a missing column. CellValues are immutable after construction and
// are never compared structurally; equivalence is always mediated by a
// Policy (see EqualValues).
type CellValue struct {
	kind    ScalarKind
	null    bool
	text    string
	integer int64
	dec     decimal.Decimal
	float   float64
	boolean bool
	binary  []byte
	stream  *streamedText
}

// Null returns the null cell value.
func Null() CellValue {
	return CellValue{null: true}
}

// Text returns a text cell value.
func Text(s string) CellValue {
	return CellValue{kind: KindText, text: s}
}

// Integer returns a 64-bit integer cell value.
func Integer(i int64) CellValue {
	return CellValue{kind: KindInteger, integer: i}
}

// Decimal returns an arbitrary-precision numeric cell value.
func Decimal(d decimal.Decimal) CellValue {
	return CellValue{kind: KindDecimal, dec: d}
}

// DecimalString parses s as an arbitrary-precision number.
func DecimalString(s string) (CellValue, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return CellValue{}, fmt.Errorf("%w: %s", ErrInvalidDecimalString, s)
	}

	return Decimal(d), nil
}

// Float returns a floating point cell value.
func Float(f float64) CellValue {
	return CellValue{kind: KindFloat, float: f}
}

// Boolean returns a boolean cell value.
func Boolean(b bool) CellValue {
	return CellValue{kind: KindBoolean, boolean: b}
}

// Temporal returns a text-encoded date/time cell value. The encoding is
// whatever the driver or fixture produced; sub-second precision
// differences are reconciled at comparison time.
func Temporal(s string) CellValue {
	return CellValue{kind: KindTemporal, text: s}
}

// Binary returns a raw byte cell value.
func Binary(b []byte) CellValue {
	return CellValue{kind: KindBinary, binary: b}
}

// Streamed wraps a read-once text handle, typically backed by a database
// cursor. The reader is drained at most once, on first use inside a
// comparison; the materialized text is cached for any later use.
func Streamed(r io.Reader) CellValue {
	return CellValue{kind: KindStreamedText, stream: &streamedText{r: r}}
}

// IsNull reports whether the cell carries no payload.
func (v CellValue) IsNull() bool {
	return v.null
}

// Kind returns the payload kind. Meaningless for null cells.
func (v CellValue) Kind() ScalarKind {
	return v.kind
}

// Render returns the cell's text form: the payload rendered as a string,
// or the empty string for null. Binary payloads render as base64, the
// same encoding fixture authors use for binary columns.
func (v CellValue) Render() string {
	if v.null {
		return ""
	}

	switch v.kind {
	case KindText, KindTemporal:
		return v.text
	case KindInteger:
		return strconv.FormatInt(v.integer, 10)
	case KindDecimal:
		return v.dec.String()
	case KindFloat:
		return strconv.FormatFloat(v.float, 'g', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(v.boolean)
	case KindBinary:
		return base64.StdEncoding.EncodeToString(v.binary)
	case KindStreamedText:
		return v.stream.materialize()
	default:
		return ""
	}
}

// renderPtr returns the text form for report entries, nil for null.
func (v CellValue) renderPtr() *string {
	if v.null {
		return nil
	}

	s := v.Render()

	return &s
}

// streamedText drains its reader on first access and caches the result.
// The upstream handle may not support rewinding and may fail on a second
// read, so the reader is touched exactly once no matter how often the
// value participates in comparisons.
type streamedText struct {
	r       io.Reader
	drained bool
	text    string
}

func (s *streamedText) materialize() string {
	if s == nil {
		return ""
	}

	if s.drained {
		return s.text
	}

	s.drained = true

	if s.r == nil {
		return ""
	}

	data, err := io.ReadAll(s.r)
	if err != nil {
		// A spent or broken cursor cannot be retried; fall back to the
		// handle's default rendering and let the text comparison decide.
		s.text = fmt.Sprintf("%v", s.r)
		return s.text
	}

	s.text = string(data)

	return s.text
}
