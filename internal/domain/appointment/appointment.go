package appointment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status tracks an appointment through its lifecycle
type Status string

const (
	StatusRegistered Status = "registered"
	StatusConfirmed  Status = "confirmed"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// IsValid checks if the status is a known value
func (s Status) IsValid() bool {
	switch s {
	case StatusRegistered, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// Appointment links a patient, a doctor and the check billed for the
// visit. The ledger marks it completed when the check is paid; the
// scheduling UI owns every other transition.
type Appointment struct {
	ID          uuid.UUID
	PatientID   uuid.UUID
	DoctorID    uuid.UUID
	CheckID     uuid.UUID
	Status      Status
	ScheduledAt time.Time
}

// New registers an appointment for a patient with a doctor
func New(patientID, doctorID, checkID uuid.UUID, scheduledAt time.Time) *Appointment {
	return &Appointment{
		ID:          uuid.New(),
		PatientID:   patientID,
		DoctorID:    doctorID,
		CheckID:     checkID,
		Status:      StatusRegistered,
		ScheduledAt: scheduledAt,
	}
}

// Complete marks the appointment as completed. A cancelled appointment
// cannot be completed.
func (a *Appointment) Complete() error {
	if a.Status == StatusCancelled {
		return fmt.Errorf("cannot complete cancelled appointment %s", a.ID)
	}
	a.Status = StatusCompleted
	return nil
}
