package domain

// RNG abstracts random number generation for deterministic testing.
type RNG interface {
	// Intn returns a non-negative random int in [0, n).
	Intn(n int) int
}

// Shuffle returns a Fisher-Yates shuffled copy of records.
func Shuffle(records []CardRecord, rng RNG) []CardRecord {
	out := append([]CardRecord(nil), records...)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
