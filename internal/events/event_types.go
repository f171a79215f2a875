package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/vaccine-scheduler/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered       EventType = "user_registered"
	EventAvailabilityUploaded EventType = "availability_uploaded"
	EventDosesAdded           EventType = "doses_added"
	EventAppointmentReserved  EventType = "appointment_reserved"
	EventAppointmentCancelled EventType = "appointment_cancelled"
)

// AllEventTypes lists every type a subscriber may listen for.
var AllEventTypes = []EventType{
	EventUserRegistered,
	EventAvailabilityUploaded,
	EventDosesAdded,
	EventAppointmentReserved,
	EventAppointmentCancelled,
}

// Actor identifies the user that caused an event.
type Actor struct {
	Kind     domain.UserKind `json:"kind"`
	Username string          `json:"username"`
}

// ActorFor builds an Actor from a user.
func ActorFor(u *domain.User) Actor {
	if u == nil {
		return Actor{}
	}
	return Actor{Kind: u.Kind, Username: u.Username}
}

// Event represents a committed state change.
type Event struct {
	ID            string      `json:"id"`
	Type          EventType   `json:"type"`
	AppointmentID int64       `json:"appointment_id,omitempty"`
	Actor         Actor       `json:"actor"`
	Timestamp     time.Time   `json:"timestamp"`
	Payload       interface{} `json:"payload"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, actor Actor, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Kind     domain.UserKind `json:"kind"`
	Username string          `json:"username"`
}

// AvailabilityUploadedPayload payload.
type AvailabilityUploadedPayload struct {
	Date string `json:"date"`
}

// DosesAddedPayload payload.
type DosesAddedPayload struct {
	Vaccine string `json:"vaccine"`
	Added   int    `json:"added"`
	Total   int    `json:"total"`
}

// AppointmentPayload is carried by reserve and cancel events.
type AppointmentPayload struct {
	Patient   string `json:"patient"`
	Caregiver string `json:"caregiver"`
	Vaccine   string `json:"vaccine"`
	Date      string `json:"date"`
}

// AppointmentPayloadFor summarizes an appointment.
func AppointmentPayloadFor(a domain.Appointment) AppointmentPayload {
	return AppointmentPayload{
		Patient:   a.Patient,
		Caregiver: a.Caregiver,
		Vaccine:   a.Vaccine,
		Date:      domain.FormatDate(a.Date),
	}
}
