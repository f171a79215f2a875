package domain

// UserKind differentiates patients from caregivers. Usernames are unique per
// kind, so a patient and a caregiver may share one.
type UserKind string

const (
	UserKindPatient   UserKind = "PATIENT"
	UserKindCaregiver UserKind = "CAREGIVER"
)

// Valid reports whether k is a known kind.
func (k UserKind) Valid() bool {
	return k == UserKindPatient || k == UserKindCaregiver
}

func (k UserKind) String() string {
	switch k {
	case UserKindPatient:
		return "patient"
	case UserKindCaregiver:
		return "caregiver"
	default:
		return string(k)
	}
}
