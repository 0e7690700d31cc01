package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/turnoflow/scheduling/internal/schedule"
)

// Resolver turns a clinic's schedule config and committed bookings into a
// per-slot availability snapshot. Resolution is read-only and lock-free; the
// coordinator re-runs the same logic inside its critical section before any
// commit decision.
type Resolver struct {
	configs    ConfigStore
	treatments TreatmentStore
	repo       Repository
}

func NewResolver(configs ConfigStore, treatments TreatmentStore, repo Repository) *Resolver {
	return &Resolver{
		configs:    configs,
		treatments: treatments,
		repo:       repo,
	}
}

func (r *Resolver) Resolve(ctx context.Context, clinicID uuid.UUID, date schedule.Date, treatmentID uuid.UUID) (*Snapshot, error) {
	cfg, err := r.configs.GetConfig(ctx, clinicID)
	if err != nil {
		return nil, fmt.Errorf("load schedule config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		// Surface a broken stored config instead of producing an empty grid;
		// an empty grid is indistinguishable from "no more slots today".
		return nil, err
	}

	treatment, err := r.treatments.GetTreatment(ctx, treatmentID)
	if err != nil {
		return nil, err
	}

	bookings, err := r.repo.ListByDay(ctx, clinicID, date)
	if err != nil {
		return nil, fmt.Errorf("load bookings for %s: %w", date, err)
	}

	return ResolveDay(cfg, date, treatment, bookings), nil
}

// ResolveDay is the pure resolution core, shared between the read path and the
// coordinator's commit-time revalidation.
func ResolveDay(cfg *schedule.Config, date schedule.Date, treatment *Treatment, bookings []Appointment) *Snapshot {
	snap := &Snapshot{
		ClinicID:    cfg.ClinicID,
		Date:        date,
		TreatmentID: treatment.ID,
		DayStatus:   DayOpen,
		Generation:  time.Now().UnixNano(),
	}

	if cfg.IsBlocked(date) || !cfg.IsWorkDay(date) {
		snap.DayStatus = DayClosed
		return snap
	}

	active := 0
	for i := range bookings {
		if bookings[i].IsActive() {
			active++
		}
	}

	grid := schedule.Generate(cfg)
	capacity := cfg.SlotCapacity()

	if active >= cfg.MaxAppointmentsPerDay {
		snap.DayStatus = DayFull
		snap.Slots = make([]TimeSlot, len(grid))
		for i, s := range grid {
			snap.Slots[i] = TimeSlot{Start: s.Start, End: s.End, Status: SlotBlocked, Capacity: capacity}
		}
		return snap
	}

	snap.Slots = make([]TimeSlot, len(grid))
	for i, s := range grid {
		occupancy := countOverlapping(s, bookings, cfg.BufferMinutes)

		slot := TimeSlot{
			Start:     s.Start,
			End:       s.End,
			Occupancy: occupancy,
			Capacity:  capacity,
		}
		switch {
		case occupancy == 0:
			slot.Status = SlotFree
		case occupancy < capacity:
			slot.Status = SlotOverbookable
			slot.Surcharge = cfg.Surcharge(treatment.BasePrice)
		default:
			slot.Status = SlotBooked
		}
		snap.Slots[i] = slot
	}

	return snap
}

// countOverlapping counts active bookings whose occupied interval, expanded by
// the buffer on both sides, strictly overlaps the slot. The buffer creates an
// exclusion zone around existing bookings: a nominally free slot abutting a
// buffered booking still counts as occupied.
func countOverlapping(slot schedule.Slot, bookings []Appointment, bufferMinutes int) int {
	count := 0
	for i := range bookings {
		b := &bookings[i]
		if !b.IsActive() {
			continue
		}
		start := b.StartTime.Add(-bufferMinutes)
		end := b.EndTime().Add(bufferMinutes)
		if start.Before(slot.End) && slot.Start.Before(end) {
			count++
		}
	}
	return count
}
