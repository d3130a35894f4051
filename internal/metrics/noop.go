package metrics

// NoopCounters discards every increment. Used when no counter
// backend is configured.
type NoopCounters struct{}

func (NoopCounters) Incr(string) {}
