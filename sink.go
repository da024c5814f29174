package tablediff

import "errors"

// FailureSink receives the outcome of one failed top-level comparison.
// It is invoked exactly once per call, with the rendered report and the
// first recorded mismatch's raw values (nil for null, and both nil when
// the only differences are structural). Custom sinks let a caller
// aggregate failures across several comparison calls instead of failing
// on the first one.
type FailureSink func(message string, expected, actual *string)

// AssertionError is the default terminal failure: one structured error
// per top-level call, carrying every difference found.
type AssertionError struct {
	Result *Result
}

// Error returns the full rendered report.
func (e *AssertionError) Error() string {
	if e == nil || e.Result == nil {
		return "table comparison failed"
	}

	return e.Result.Render()
}

// AsAssertionError extracts an AssertionError from an error chain.
func AsAssertionError(err error) (*AssertionError, bool) {
	var ae *AssertionError
	if errors.As(err, &ae) {
		return ae, true
	}

	return nil, false
}

// deliver routes a non-empty result to the sink, or converts it to the
// default error when no sink is configured. Empty results produce
// nothing either way.
func deliver(res *Result, sink FailureSink) error {
	if !res.HasDifferences() {
		return nil
	}

	if sink == nil {
		return &AssertionError{Result: res}
	}

	var expected, actual *string
	if first, ok := res.first(); ok {
		expected = first.Expected
		actual = first.Actual
	}

	sink(res.Render(), expected, actual)

	return nil
}
