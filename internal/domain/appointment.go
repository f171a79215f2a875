package domain

import "time"

// Appointment binds one patient to one caregiver, vaccine and date.
type Appointment struct {
	ID        int64
	Patient   string
	Caregiver string
	Vaccine   string
	Date      time.Time
}

// Counterpart returns the username on the other side of the appointment from
// the viewpoint of the given kind.
func (a Appointment) Counterpart(viewer UserKind) string {
	if viewer == UserKindPatient {
		return a.Caregiver
	}
	return a.Patient
}

// Involves reports whether the user is the patient or caregiver of a.
func (a Appointment) Involves(u *User) bool {
	if u == nil {
		return false
	}
	switch u.Kind {
	case UserKindPatient:
		return a.Patient == u.Username
	case UserKindCaregiver:
		return a.Caregiver == u.Username
	default:
		return false
	}
}
