package dice

// Mulberry32 is a deterministic 32-bit pseudo-random generator.
//
// Invariant: two generators built from the same seed yield identical
// sequences on every platform. A Mulberry32 is not safe for concurrent use.
type Mulberry32 struct {
	state uint32
}

// NewMulberry32 returns a generator seeded with seed.
func NewMulberry32(seed uint32) *Mulberry32 {
	return &Mulberry32{state: seed}
}

// Next advances the generator and returns the next 32-bit output.
func (m *Mulberry32) Next() uint32 {
	m.state += 0x6D2B79F5
	t := m.state
	t = (t ^ t>>15) * (t | 1)
	t ^= t + (t^t>>7)*(t|61)
	return t ^ t>>14
}

// Float64 returns a float in [0, 1).
//
// Postcondition: 0 <= result < 1.
func (m *Mulberry32) Float64() float64 {
	return float64(m.Next()) / 4294967296.0
}

// Intn returns floor(Float64() * n).
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" otherwise.
// Postcondition: 0 <= result < n.
func (m *Mulberry32) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	return int(m.Float64() * float64(n))
}
