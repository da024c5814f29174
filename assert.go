// Package tablediff compares expected fixture snapshots against actual
// database snapshots under per-column equivalence policies. Unlike a
// fail-fast assertion it collects every divergence in one pass and
// reports them as a single structured result.
//
// Comparison is synchronous and allocates all of its state per call, so
// concurrent callers with independent inputs need no locking.
package tablediff

// config collects the per-call comparison options.
type config struct {
	policies      map[string]Policy
	defaultPolicy Policy
	mode          columnMode
	extra         []string
	ignore        []string
	metadata      MetadataProvider
	sink          FailureSink
}

// Option configures a single comparison call.
type Option func(*config)

// WithPolicies attaches per-column policies, keyed by column name
// (matched case-insensitively).
func WithPolicies(policies map[string]Policy) Option {
	return func(c *config) {
		if c.policies == nil {
			c.policies = make(map[string]Policy, len(policies))
		}

		for name, p := range policies {
			c.policies[name] = p
		}
	}
}

// WithPolicy attaches one per-column policy.
func WithPolicy(column string, p Policy) Option {
	return WithPolicies(map[string]Policy{column: p})
}

// WithDefaultPolicy replaces Strict as the policy for columns without an
// override.
func WithDefaultPolicy(p Policy) Option {
	return func(c *config) {
		c.defaultPolicy = p
	}
}

// WithExtraColumns switches to superset mode: the compared column set is
// the expected table's columns plus the named extras. An extra column a
// given expected row does not carry is asserted to be null in actual.
func WithExtraColumns(columns ...string) Option {
	return func(c *config) {
		c.mode = columnsSuperset
		c.extra = append(c.extra, columns...)
	}
}

// WithIgnoreColumns switches to ignore mode: the named columns are
// excluded from comparison. Names are matched case-insensitively.
func WithIgnoreColumns(columns ...string) Option {
	return func(c *config) {
		c.mode = columnsIgnore
		c.ignore = append(c.ignore, columns...)
	}
}

// WithMetadata attaches an optional column metadata provider used only
// to enrich rendered differences.
func WithMetadata(provider MetadataProvider) Option {
	return func(c *config) {
		c.metadata = provider
	}
}

// WithSink replaces the default structured error with a caller-supplied
// callback, invoked once per top-level call.
func WithSink(sink FailureSink) Option {
	return func(c *config) {
		c.sink = sink
	}
}

func newConfig(opts []Option) *config {
	cfg := &config{defaultPolicy: Strict}
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// Compare diffs two table sets and returns the accumulated result
// without raising. The traversal is expected-driven and never
// short-circuits.
func Compare(expected, actual *TableSet, opts ...Option) *Result {
	cfg := newConfig(opts)
	res := &Result{}
	newDiffer(cfg).compareTableSets(res, expected, actual)

	return res
}

// CompareTables diffs two single tables and returns the accumulated
// result without raising.
func CompareTables(expected, actual *Table, opts ...Option) *Result {
	cfg := newConfig(opts)
	res := &Result{}
	newDiffer(cfg).compareTables(res, expected, actual)

	return res
}

// AssertEquals compares two table sets. On divergence it returns a
// single *AssertionError carrying the full report, or delivers the
// report to the configured sink and returns nil.
func AssertEquals(expected, actual *TableSet, opts ...Option) error {
	cfg := newConfig(opts)
	res := &Result{}
	newDiffer(cfg).compareTableSets(res, expected, actual)

	return deliver(res, cfg.sink)
}

// AssertTableEquals compares two single tables with the same terminal
// behavior as AssertEquals.
func AssertTableEquals(expected, actual *Table, opts ...Option) error {
	cfg := newConfig(opts)
	res := &Result{}
	newDiffer(cfg).compareTables(res, expected, actual)

	return deliver(res, cfg.sink)
}

// AssertEqualsIgnoreColumns compares two tables with the named columns
// excluded.
func AssertEqualsIgnoreColumns(expected, actual *Table, ignoreColumns []string, opts ...Option) error {
	opts = append(opts, WithIgnoreColumns(ignoreColumns...))
	return AssertTableEquals(expected, actual, opts...)
}

// AssertEqualsWithPolicies compares two tables under per-column
// policies.
func AssertEqualsWithPolicies(expected, actual *Table, policies map[string]Policy, opts ...Option) error {
	opts = append(opts, WithPolicies(policies))
	return AssertTableEquals(expected, actual, opts...)
}
