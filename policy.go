package tablediff

import (
	"fmt"
	"regexp"
	"strings"
)

// PolicyKind enumerates the per-column equivalence rules.
type PolicyKind int

const (
	// PolicyStrict applies the full type-coercion ladder (the default).
	PolicyStrict PolicyKind = iota
	// PolicyIgnore accepts any pair of values, including nulls.
	PolicyIgnore
	// PolicyNumeric forces numeric coercion even when native equality
	// would already hold.
	PolicyNumeric
	// PolicyCaseInsensitive compares text forms ignoring ASCII case.
	PolicyCaseInsensitive
	// PolicyTimestampFlexible forces temporal normalization of both
	// text forms before comparing.
	PolicyTimestampFlexible
	// PolicyNotNull accepts any non-null actual value; the expected
	// payload is not inspected.
	PolicyNotNull
	// PolicyRegex matches the actual value's text form against a
	// pattern; a null actual never matches.
	PolicyRegex
)

// Policy is a per-column comparison rule. Policies are data, not code:
// they are attached by column name at configuration time and resolved
// case-insensitively when a cell pair is compared.
type Policy struct {
	Kind    PolicyKind
	Pattern string // regexp source, PolicyRegex only

	re *regexp.Regexp
}

var (
	// Strict is the default policy.
	Strict = Policy{Kind: PolicyStrict}
	// Ignore skips the column entirely.
	Ignore = Policy{Kind: PolicyIgnore}
	// Numeric forces numeric-aware comparison.
	Numeric = Policy{Kind: PolicyNumeric}
	// CaseInsensitive folds ASCII case.
	CaseInsensitive = Policy{Kind: PolicyCaseInsensitive}
	// TimestampFlexible tolerates sub-second precision differences.
	TimestampFlexible = Policy{Kind: PolicyTimestampFlexible}
	// NotNull only requires the actual value to be present.
	NotNull = Policy{Kind: PolicyNotNull}
)

// Regex returns a pattern-match policy. The pattern must fully match the
// actual value's text form.
func Regex(pattern string) (Policy, error) {
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return Policy{}, fmt.Errorf("%w: %s: %w", ErrInvalidPolicyPattern, pattern, err)
	}

	return Policy{Kind: PolicyRegex, Pattern: pattern, re: re}, nil
}

// MustRegex is Regex for patterns known valid at compile time.
func MustRegex(pattern string) Policy {
	p, err := Regex(pattern)
	if err != nil {
		panic(err)
	}

	return p
}

// matches reports whether s fully matches the policy pattern. Policies
// built as plain literals compile the pattern on demand; an invalid
// pattern never matches.
func (p Policy) matches(s string) bool {
	re := p.re
	if re == nil {
		var err error

		re, err = regexp.Compile("^(?:" + p.Pattern + ")$")
		if err != nil {
			return false
		}
	}

	return re.MatchString(s)
}

// String returns the parseable form accepted by ParsePolicy.
func (p Policy) String() string {
	switch p.Kind {
	case PolicyStrict:
		return "strict"
	case PolicyIgnore:
		return "ignore"
	case PolicyNumeric:
		return "numeric"
	case PolicyCaseInsensitive:
		return "caseinsensitive"
	case PolicyTimestampFlexible:
		return "timestamp"
	case PolicyNotNull:
		return "notnull"
	case PolicyRegex:
		return "regexp:" + p.Pattern
	default:
		return "strict"
	}
}

// ParsePolicy parses the textual policy form used by fixture files and
// the CLI: strict, ignore, numeric, caseinsensitive, timestamp, notnull,
// or regexp:<pattern>.
func ParsePolicy(s string) (Policy, error) {
	if pattern, ok := strings.CutPrefix(s, "regexp:"); ok {
		return Regex(pattern)
	}

	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return Strict, nil
	case "ignore":
		return Ignore, nil
	case "numeric":
		return Numeric, nil
	case "caseinsensitive", "case-insensitive":
		return CaseInsensitive, nil
	case "timestamp", "timestamp-flexible":
		return TimestampFlexible, nil
	case "notnull", "not-null":
		return NotNull, nil
	default:
		return Policy{}, fmt.Errorf("%w: %s", ErrUnknownPolicy, s)
	}
}
