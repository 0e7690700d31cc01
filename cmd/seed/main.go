package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turnoflow/scheduling/internal/booking"
	"github.com/turnoflow/scheduling/internal/db"
	"github.com/turnoflow/scheduling/internal/schedule"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, dsn, 10)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	clinics, err := seedClinics(context.Background(), pool, 20)
	if err != nil {
		log.Fatalf("seed clinics: %v", err)
	}
	if err := seedTreatments(context.Background(), pool, clinics); err != nil {
		log.Fatalf("seed treatments: %v", err)
	}
	if err := seedPatients(context.Background(), pool, 5000); err != nil {
		log.Fatalf("seed patients: %v", err)
	}

	log.Println("seed complete")
}

// seedClinics inserts clinics with a realistic mix of schedule configs:
// some with lunch breaks, some allowing double booking, a few with blocked
// vacation periods.
func seedClinics(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d clinics", count)

	repo := booking.NewPgRepository(pool)
	ids := make([]uuid.UUID, 0, count)

	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Company() + " Clinic"

		_, err := pool.Exec(ctx, `
			INSERT INTO clinics (id, name, created_at, updated_at)
			VALUES ($1, $2, now(), now())
		`, id, name)
		if err != nil {
			return nil, err
		}

		cfg := randomConfig(id)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		if err := repo.SaveConfig(ctx, cfg); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	log.Println("clinics seeded")
	return ids, nil
}

func randomConfig(clinicID uuid.UUID) *schedule.Config {
	cfg := &schedule.Config{
		ClinicID:               clinicID,
		WorkDays:               []int{0, 1, 2, 3, 4},
		OpenTime:               schedule.TimeOfDay(gofakeit.Number(7, 9) * 60),
		CloseTime:              schedule.TimeOfDay(gofakeit.Number(17, 20) * 60),
		SlotMinutes:            []int{15, 20, 30, 60}[gofakeit.Number(0, 3)],
		BufferMinutes:          []int{0, 0, 5, 10}[gofakeit.Number(0, 3)],
		MaxAppointmentsPerDay:  gofakeit.Number(15, 40),
		MaxAppointmentsPerSlot: 1,
		OverbookingFeeType:     schedule.FeeFixed,
	}

	if gofakeit.Bool() {
		lunchStart := schedule.TimeOfDay(12 * 60)
		lunchEnd := schedule.TimeOfDay(13 * 60)
		cfg.LunchStart = &lunchStart
		cfg.LunchEnd = &lunchEnd
	}

	if gofakeit.Number(0, 2) == 0 {
		cfg.AllowDoubleBooking = true
		cfg.MaxAppointmentsPerSlot = gofakeit.Number(2, 3)
		if gofakeit.Bool() {
			cfg.OverbookingFeeType = schedule.FeePercent
			cfg.OverbookingExtraFee = float64(gofakeit.Number(10, 50))
		} else {
			cfg.OverbookingExtraFee = float64(gofakeit.Number(5, 30))
		}
	}

	if gofakeit.Number(0, 4) == 0 {
		start := schedule.DateOf(time.Now().AddDate(0, 1, 0))
		cfg.BlockedPeriods = []schedule.BlockedPeriod{
			{Start: start, End: start.AddDays(gofakeit.Number(3, 14)), Reason: "Vacation"},
		}
	}

	return cfg
}

func seedTreatments(ctx context.Context, pool *pgxpool.Pool, clinics []uuid.UUID) error {
	log.Printf("seeding treatments for %d clinics", len(clinics))

	names := []string{
		"Consultation",
		"Cleaning",
		"Whitening",
		"Root Canal",
		"Extraction",
		"Checkup",
		"Filling",
		"Orthodontic Adjustment",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, clinicID := range clinics {
		count := gofakeit.Number(3, len(names))
		for i := 0; i < count; i++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO treatments (id, clinic_id, name, duration_minutes, base_price)
				VALUES ($1, $2, $3, $4, $5)
			`, uuid.New(), clinicID, names[i],
				[]int{15, 30, 30, 60, 45, 20, 30, 30}[i],
				float64(gofakeit.Number(20, 400)))
			if err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("treatments seeded")
	return nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d patients", count)

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, name, email, phone, created_at, updated_at)
				VALUES ($1, $2, $3, $4, now(), now())
			`, uuid.New(), gofakeit.Name(), gofakeit.Email(), gofakeit.Phone())
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	log.Println("patients seeded")
	return nil
}
