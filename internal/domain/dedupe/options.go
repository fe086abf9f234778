package dedupe

// Option applies a configuration option to the InMemoryDeduper.
type Option func(*inMemoryDeduper)

// WithExpectedSize presizes the id set for a snapshot of n tickets.
func WithExpectedSize(n int) Option {
	return func(d *inMemoryDeduper) {
		if n > 0 {
			d.expected = n
		}
	}
}
