package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turnoflow/scheduling/internal/schedule"
)

// PgRepository implements Repository, ConfigStore, TreatmentStore and
// PatientStore on top of Postgres.
type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const appointmentColumns = `id, clinic_id, patient_id, treatment_id, date, start_minutes, duration_minutes, status, is_overbooking, surcharge_amount, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		a            Appointment
		date         time.Time
		startMinutes int
	)
	err := row.Scan(
		&a.ID,
		&a.ClinicID,
		&a.PatientID,
		&a.TreatmentID,
		&date,
		&startMinutes,
		&a.DurationMinutes,
		&a.Status,
		&a.IsOverbooking,
		&a.SurchargeAmount,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	a.Date = schedule.DateOf(date)
	a.StartTime = schedule.TimeOfDay(startMinutes)
	return &a, nil
}

func (r *PgRepository) ListByDay(ctx context.Context, clinicID uuid.UUID, date schedule.Date) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE clinic_id = $1 AND date = $2
		ORDER BY start_minutes
	`, clinicID, date.Time())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) Create(ctx context.Context, a *Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments
			(id, clinic_id, patient_id, treatment_id, date, start_minutes, duration_minutes, status, is_overbooking, surcharge_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		RETURNING `+appointmentColumns+`
	`, a.ID, a.ClinicID, a.PatientID, a.TreatmentID, a.Date.Time(), int(a.StartTime), a.DurationMinutes, a.Status, a.IsOverbooking, a.SurchargeAmount)
	return scanAppointment(row)
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)
	return scanAppointment(row)
}

func (r *PgRepository) Move(ctx context.Context, id uuid.UUID, date schedule.Date, start schedule.TimeOfDay) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET date = $2,
		    start_minutes = $3,
		    status = $4,
		    updated_at = now()
		WHERE id = $1
		  AND status <> $5
		RETURNING `+appointmentColumns+`
	`, id, date.Time(), int(start), StatusBooked, StatusCancelled)
	return scanAppointment(row)
}

func (r *PgRepository) List(ctx context.Context, filter ListFilter) ([]Appointment, error) {
	builder := sq.Select(appointmentColumns).
		From("appointments").
		Where(sq.Eq{"clinic_id": filter.ClinicID}).
		OrderBy("date", "start_minutes").
		PlaceholderFormat(sq.Dollar)

	if filter.PatientID != nil {
		builder = builder.Where(sq.Eq{"patient_id": *filter.PatientID})
	}
	if filter.From != nil {
		builder = builder.Where(sq.GtOrEq{"date": filter.From.Time()})
	}
	if filter.To != nil {
		builder = builder.Where(sq.LtOrEq{"date": filter.To.Time()})
	}
	if filter.Status != nil {
		builder = builder.Where(sq.Eq{"status": *filter.Status})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build appointments query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Schedule config

func (r *PgRepository) GetConfig(ctx context.Context, clinicID uuid.UUID) (*schedule.Config, error) {
	var (
		cfg               schedule.Config
		openMin, closeMin int
		lunchStart        *int
		lunchEnd          *int
		workDays          []byte
		blockedDates      []byte
		blockedPeriods    []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT clinic_id, work_days, open_minutes, close_minutes, lunch_start_minutes, lunch_end_minutes,
		       slot_minutes, buffer_minutes, blocked_dates, blocked_periods,
		       max_appointments_per_day, max_appointments_per_slot,
		       allow_double_booking, overbooking_extra_fee, overbooking_fee_type, updated_at
		FROM clinic_settings
		WHERE clinic_id = $1
	`, clinicID).Scan(
		&cfg.ClinicID,
		&workDays,
		&openMin,
		&closeMin,
		&lunchStart,
		&lunchEnd,
		&cfg.SlotMinutes,
		&cfg.BufferMinutes,
		&blockedDates,
		&blockedPeriods,
		&cfg.MaxAppointmentsPerDay,
		&cfg.MaxAppointmentsPerSlot,
		&cfg.AllowDoubleBooking,
		&cfg.OverbookingExtraFee,
		&cfg.OverbookingFeeType,
		&cfg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	cfg.OpenTime = schedule.TimeOfDay(openMin)
	cfg.CloseTime = schedule.TimeOfDay(closeMin)
	if lunchStart != nil && lunchEnd != nil {
		ls := schedule.TimeOfDay(*lunchStart)
		le := schedule.TimeOfDay(*lunchEnd)
		cfg.LunchStart = &ls
		cfg.LunchEnd = &le
	}
	if err := json.Unmarshal(workDays, &cfg.WorkDays); err != nil {
		return nil, fmt.Errorf("decode work_days: %w", err)
	}
	if err := json.Unmarshal(blockedDates, &cfg.BlockedDates); err != nil {
		return nil, fmt.Errorf("decode blocked_dates: %w", err)
	}
	if err := json.Unmarshal(blockedPeriods, &cfg.BlockedPeriods); err != nil {
		return nil, fmt.Errorf("decode blocked_periods: %w", err)
	}
	return &cfg, nil
}

func (r *PgRepository) SaveConfig(ctx context.Context, cfg *schedule.Config) error {
	workDays, err := json.Marshal(cfg.WorkDays)
	if err != nil {
		return fmt.Errorf("encode work_days: %w", err)
	}
	blockedDates, err := json.Marshal(cfg.BlockedDates)
	if err != nil {
		return fmt.Errorf("encode blocked_dates: %w", err)
	}
	blockedPeriods, err := json.Marshal(cfg.BlockedPeriods)
	if err != nil {
		return fmt.Errorf("encode blocked_periods: %w", err)
	}

	var lunchStart, lunchEnd *int
	if cfg.LunchStart != nil {
		ls := int(*cfg.LunchStart)
		le := int(*cfg.LunchEnd)
		lunchStart = &ls
		lunchEnd = &le
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO clinic_settings
			(clinic_id, work_days, open_minutes, close_minutes, lunch_start_minutes, lunch_end_minutes,
			 slot_minutes, buffer_minutes, blocked_dates, blocked_periods,
			 max_appointments_per_day, max_appointments_per_slot,
			 allow_double_booking, overbooking_extra_fee, overbooking_fee_type, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now())
		ON CONFLICT (clinic_id) DO UPDATE SET
			work_days = EXCLUDED.work_days,
			open_minutes = EXCLUDED.open_minutes,
			close_minutes = EXCLUDED.close_minutes,
			lunch_start_minutes = EXCLUDED.lunch_start_minutes,
			lunch_end_minutes = EXCLUDED.lunch_end_minutes,
			slot_minutes = EXCLUDED.slot_minutes,
			buffer_minutes = EXCLUDED.buffer_minutes,
			blocked_dates = EXCLUDED.blocked_dates,
			blocked_periods = EXCLUDED.blocked_periods,
			max_appointments_per_day = EXCLUDED.max_appointments_per_day,
			max_appointments_per_slot = EXCLUDED.max_appointments_per_slot,
			allow_double_booking = EXCLUDED.allow_double_booking,
			overbooking_extra_fee = EXCLUDED.overbooking_extra_fee,
			overbooking_fee_type = EXCLUDED.overbooking_fee_type,
			updated_at = now()
	`, cfg.ClinicID, workDays, int(cfg.OpenTime), int(cfg.CloseTime), lunchStart, lunchEnd,
		cfg.SlotMinutes, cfg.BufferMinutes, blockedDates, blockedPeriods,
		cfg.MaxAppointmentsPerDay, cfg.MaxAppointmentsPerSlot,
		cfg.AllowDoubleBooking, cfg.OverbookingExtraFee, cfg.OverbookingFeeType)
	if err != nil {
		return fmt.Errorf("save clinic settings: %w", err)
	}
	return nil
}

// Treatments

func (r *PgRepository) GetTreatment(ctx context.Context, id uuid.UUID) (*Treatment, error) {
	var t Treatment
	err := r.pool.QueryRow(ctx, `
		SELECT id, clinic_id, name, duration_minutes, base_price
		FROM treatments
		WHERE id = $1
	`, id).Scan(&t.ID, &t.ClinicID, &t.Name, &t.DurationMinutes, &t.BasePrice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTreatmentNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *PgRepository) ListTreatments(ctx context.Context, clinicID uuid.UUID) ([]Treatment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, clinic_id, name, duration_minutes, base_price
		FROM treatments
		WHERE clinic_id = $1
		ORDER BY name
	`, clinicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Treatment
	for rows.Next() {
		var t Treatment
		if err := rows.Scan(&t.ID, &t.ClinicID, &t.Name, &t.DurationMinutes, &t.BasePrice); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Patients

func (r *PgRepository) PatientExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM patients WHERE id = $1)
	`, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
