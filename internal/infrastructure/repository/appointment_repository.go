package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk-backend/internal/domain/appointment"
	"github.com/clinicdesk/clinicdesk-backend/internal/service/ledger"
)

// appointmentRepository implements ledger.AppointmentRepository using PostgreSQL
type appointmentRepository struct {
	db *sql.DB
}

// NewAppointmentRepository creates a new appointment repository
func NewAppointmentRepository(db *sql.DB) ledger.AppointmentRepository {
	return &appointmentRepository{db: db}
}

func (r *appointmentRepository) GetByCheck(ctx context.Context, checkID uuid.UUID) ([]*appointment.Appointment, error) {
	query := `
		SELECT id, patient_id, doctor_id, check_id, status, scheduled_at
		FROM appointments
		WHERE check_id = $1
		ORDER BY scheduled_at
	`

	rows, err := r.db.QueryContext(ctx, query, checkID)
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments: %w", err)
	}
	defer rows.Close()

	var appointments []*appointment.Appointment
	for rows.Next() {
		var (
			a      appointment.Appointment
			status string
		)
		if err := rows.Scan(
			&a.ID, &a.PatientID, &a.DoctorID, &a.CheckID, &status, &a.ScheduledAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		a.Status = appointment.Status(status)
		appointments = append(appointments, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) Save(ctx context.Context, a *appointment.Appointment) error {
	query := `
		INSERT INTO appointments (id, patient_id, doctor_id, check_id, status, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			scheduled_at = EXCLUDED.scheduled_at
	`

	if _, err := r.db.ExecContext(ctx, query,
		a.ID, a.PatientID, a.DoctorID, a.CheckID, string(a.Status), a.ScheduledAt,
	); err != nil {
		return fmt.Errorf("failed to save appointment: %w", err)
	}
	return nil
}
