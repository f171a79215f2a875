package domain

// Vaccine tracks the remaining dose inventory for one vaccine. Doses never
// drop below zero.
type Vaccine struct {
	Name  string
	Doses int
}

// HasDoses reports whether at least one dose remains.
func (v *Vaccine) HasDoses() bool {
	return v != nil && v.Doses > 0
}
