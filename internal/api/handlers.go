package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/turnoflow/scheduling/internal/booking"
	"github.com/turnoflow/scheduling/internal/cache"
	"github.com/turnoflow/scheduling/internal/schedule"
)

func getConfigHandler(configs booking.ConfigStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, err := uuid.Parse(chi.URLParam(r, "clinicID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "clinicID must be a valid UUID")
			return
		}

		cfg, err := configs.GetConfig(r.Context(), clinicID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	}
}

func putConfigHandler(configs booking.ConfigStore, invalidator booking.CacheInvalidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, err := uuid.Parse(chi.URLParam(r, "clinicID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "clinicID must be a valid UUID")
			return
		}

		var cfg schedule.Config
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "could not parse JSON")
			return
		}
		cfg.ClinicID = clinicID

		if err := cfg.Validate(); err != nil {
			writeDomainError(w, err)
			return
		}
		if err := configs.SaveConfig(r.Context(), &cfg); err != nil {
			writeDomainError(w, err)
			return
		}

		// New rules change every derived grid; dump the clinic's cache.
		if err := invalidator.InvalidateClinic(r.Context(), clinicID); err != nil {
			// Stale entries age out via TTL; the write itself succeeded.
			writeJSON(w, http.StatusOK, cfg)
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	}
}

func listTreatmentsHandler(treatments booking.TreatmentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, err := uuid.Parse(r.URL.Query().Get("clinic_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "clinic_id must be a valid UUID")
			return
		}

		list, err := treatments.ListTreatments(r.Context(), clinicID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func getAvailabilityHandler(resolver *booking.Resolver, availCache *cache.AvailabilityCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		clinicID, err := uuid.Parse(q.Get("clinic_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "clinic_id must be a valid UUID")
			return
		}
		date, err := schedule.ParseDate(q.Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "date must be YYYY-MM-DD")
			return
		}
		treatmentID, err := uuid.Parse(q.Get("treatment_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "treatment_id must be a valid UUID")
			return
		}

		snap, err := availCache.Get(r.Context(), clinicID, date, treatmentID, func(ctx context.Context) (*booking.Snapshot, error) {
			return resolver.Resolve(ctx, clinicID, date, treatmentID)
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, AvailabilityResponse{
			ClinicID:    snap.ClinicID.String(),
			Date:        snap.Date.String(),
			TreatmentID: snap.TreatmentID.String(),
			DayStatus:   snap.DayStatus,
			Slots:       snap.Slots,
		})
	}
}

func createAppointmentHandler(coordinator *booking.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "could not parse JSON")
			return
		}

		commit, err := parseCommitRequest(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		appt, err := coordinator.Commit(r.Context(), commit)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, appt)
	}
}

func patchAppointmentHandler(coordinator *booking.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "id must be a valid UUID")
			return
		}

		var req PatchAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "could not parse JSON")
			return
		}

		var appt *booking.Appointment
		switch req.Action {
		case "confirm":
			appt, err = coordinator.Confirm(r.Context(), id)
		case "cancel":
			appt, err = coordinator.Cancel(r.Context(), id)
		case "reschedule":
			var date schedule.Date
			var start schedule.TimeOfDay
			date, err = schedule.ParseDate(req.Date)
			if err != nil {
				writeError(w, http.StatusBadRequest, "validation_error", "date must be YYYY-MM-DD")
				return
			}
			start, err = schedule.ParseTimeOfDay(req.StartTime)
			if err != nil {
				writeError(w, http.StatusBadRequest, "validation_error", "start_time must be HH:MM")
				return
			}
			appt, err = coordinator.Reschedule(r.Context(), id, date, start)
		default:
			writeError(w, http.StatusBadRequest, "validation_error", "action must be confirm, cancel or reschedule")
			return
		}
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, appt)
	}
}

func listAppointmentsHandler(repo booking.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		clinicID, err := uuid.Parse(q.Get("clinic_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "clinic_id must be a valid UUID")
			return
		}

		filter := booking.ListFilter{ClinicID: clinicID, Limit: 100}

		if v := q.Get("patient_id"); v != "" {
			pid, err := uuid.Parse(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "validation_error", "patient_id must be a valid UUID")
				return
			}
			filter.PatientID = &pid
		}
		if v := q.Get("from"); v != "" {
			d, err := schedule.ParseDate(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "validation_error", "from must be YYYY-MM-DD")
				return
			}
			filter.From = &d
		}
		if v := q.Get("to"); v != "" {
			d, err := schedule.ParseDate(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "validation_error", "to must be YYYY-MM-DD")
				return
			}
			filter.To = &d
		}
		if v := q.Get("status"); v != "" {
			status := booking.AppointmentStatus(v)
			filter.Status = &status
		}

		list, err := repo.List(r.Context(), filter)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func parseCommitRequest(req CreateAppointmentRequest) (booking.Request, error) {
	clinicID, err := uuid.Parse(req.ClinicID)
	if err != nil {
		return booking.Request{}, &booking.ValidationError{Field: "clinic_id", Reason: "must be a valid UUID"}
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return booking.Request{}, &booking.ValidationError{Field: "patient_id", Reason: "must be a valid UUID"}
	}
	treatmentID, err := uuid.Parse(req.TreatmentID)
	if err != nil {
		return booking.Request{}, &booking.ValidationError{Field: "treatment_id", Reason: "must be a valid UUID"}
	}
	date, err := schedule.ParseDate(req.Date)
	if err != nil {
		return booking.Request{}, &booking.ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	start, err := schedule.ParseTimeOfDay(req.StartTime)
	if err != nil {
		return booking.Request{}, &booking.ValidationError{Field: "start_time", Reason: "must be HH:MM"}
	}

	return booking.Request{
		ClinicID:    clinicID,
		PatientID:   patientID,
		TreatmentID: treatmentID,
		Date:        date,
		StartTime:   start,
	}, nil
}
