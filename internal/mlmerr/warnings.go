package mlmerr

// Warnings is a "seen once" set of warning keys, mirroring the original
// compiler's per-run memoization of already-warned-about effect codes
// (it kept that state in a function attribute; here it's just a map).
// Sink receives each distinct key's message exactly once.
type Warnings struct {
	seen map[string]bool
	Sink func(msg string)
}

// NewWarnings builds a Warnings set that calls sink for each new key.
func NewWarnings(sink func(msg string)) *Warnings {
	return &Warnings{seen: make(map[string]bool), Sink: sink}
}

// Once emits msg under key, unless key has already fired this run.
func (w *Warnings) Once(key, msg string) {
	if w.seen[key] {
		return
	}
	w.seen[key] = true
	if w.Sink != nil {
		w.Sink(msg)
	}
}
