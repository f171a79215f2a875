package domain

// User is the stored credential triple for a patient or caregiver. Users are
// immutable after registration and never deleted.
type User struct {
	Kind     UserKind
	Username string
	Salt     []byte
	Hash     []byte
}

// IsPatient reports whether the user is a patient.
func (u *User) IsPatient() bool {
	return u != nil && u.Kind == UserKindPatient
}

// IsCaregiver reports whether the user is a caregiver.
func (u *User) IsCaregiver() bool {
	return u != nil && u.Kind == UserKindCaregiver
}
