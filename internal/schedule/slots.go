package schedule

// Slot is one interval of the generated day grid. Availability status is
// layered on top by the resolver; the grid itself is pure.
type Slot struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// Generate produces the slot grid for one working day: starting at open_time,
// stepping by slot_minutes, stopping before close_time. A slot is emitted only
// if it fits completely before closing and lies fully outside the lunch
// interval. Weekday and blocked-date checks are the caller's responsibility.
func Generate(cfg *Config) []Slot {
	if cfg.SlotMinutes <= 0 || !cfg.OpenTime.Before(cfg.CloseTime) {
		return nil
	}

	var slots []Slot
	for start := cfg.OpenTime; !start.Add(cfg.SlotMinutes).After(cfg.CloseTime); start = start.Add(cfg.SlotMinutes) {
		end := start.Add(cfg.SlotMinutes)
		if cfg.LunchStart != nil && overlaps(start, end, *cfg.LunchStart, *cfg.LunchEnd) {
			continue
		}
		slots = append(slots, Slot{Start: start, End: end})
	}
	return slots
}

// overlaps reports whether half-open intervals [aStart,aEnd) and
// [bStart,bEnd) intersect. Touching boundaries do not count.
func overlaps(aStart, aEnd, bStart, bEnd TimeOfDay) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
