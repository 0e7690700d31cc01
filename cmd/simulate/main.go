package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// simulate fires concurrent booking attempts at one clinic-day to exercise
// the commit path under contention. Expect mostly capacity_exceeded once the
// grid fills: that is the engine doing its job.

type options struct {
	baseURL     string
	clinicID    string
	treatmentID string
	date        string
	workers     int
	requests    int
	patients    int
}

type availabilityResponse struct {
	DayStatus string `json:"day_status"`
	Slots     []struct {
		Start  string `json:"start"`
		Status string `json:"status"`
	} `json:"slots"`
}

type createRequest struct {
	ClinicID    string `json:"clinic_id"`
	PatientID   string `json:"patient_id"`
	TreatmentID string `json:"treatment_id"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type counters struct {
	created  atomic.Int64
	conflict atomic.Int64
	rejected atomic.Int64
	failed   atomic.Int64
}

func main() {
	var opts options
	flag.StringVar(&opts.baseURL, "url", "http://localhost:8080", "api-server base URL")
	flag.StringVar(&opts.clinicID, "clinic", "", "clinic UUID (required)")
	flag.StringVar(&opts.treatmentID, "treatment", "", "treatment UUID (required)")
	flag.StringVar(&opts.date, "date", time.Now().AddDate(0, 0, 1).Format("2006-01-02"), "target date")
	flag.IntVar(&opts.workers, "workers", 20, "concurrent workers")
	flag.IntVar(&opts.requests, "requests", 200, "total booking attempts")
	flag.IntVar(&opts.patients, "patients", 50, "distinct synthetic patient IDs")
	flag.Parse()

	if opts.clinicID == "" || opts.treatmentID == "" {
		flag.Usage()
		log.Fatal("-clinic and -treatment are required")
	}

	client := &http.Client{Timeout: 10 * time.Second}

	slots, err := fetchSlots(client, opts)
	if err != nil {
		log.Fatalf("fetch availability: %v", err)
	}
	if len(slots) == 0 {
		log.Fatalf("no open slots on %s, pick another date", opts.date)
	}
	log.Printf("targeting %d slots on %s with %d workers / %d requests",
		len(slots), opts.date, opts.workers, opts.requests)

	patients := make([]string, opts.patients)
	for i := range patients {
		patients[i] = uuid.NewString()
	}

	var (
		stats     counters
		latencies = make([]time.Duration, opts.requests)
		jobs      = make(chan int)
		wg        sync.WaitGroup
	)

	start := time.Now()
	for w := 0; w < opts.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rng := rand.New(rand.NewSource(time.Now().UnixNano()))
			for i := range jobs {
				req := createRequest{
					ClinicID:    opts.clinicID,
					PatientID:   patients[rng.Intn(len(patients))],
					TreatmentID: opts.treatmentID,
					Date:        opts.date,
					StartTime:   slots[rng.Intn(len(slots))],
				}
				began := time.Now()
				code, apiErr := attempt(client, opts.baseURL, req)
				latencies[i] = time.Since(began)
				classify(&stats, code, apiErr)
			}
		}()
	}

	for i := 0; i < opts.requests; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	elapsed := time.Since(start)

	report(&stats, latencies, elapsed)
}

func fetchSlots(client *http.Client, opts options) ([]string, error) {
	url := fmt.Sprintf("%s/availability?clinic_id=%s&date=%s&treatment_id=%s",
		opts.baseURL, opts.clinicID, opts.date, opts.treatmentID)
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}

	var avail availabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&avail); err != nil {
		return nil, err
	}

	var open []string
	for _, s := range avail.Slots {
		if s.Status == "free" || s.Status == "overbookable" {
			open = append(open, s.Start)
		}
	}
	return open, nil
}

func attempt(client *http.Client, baseURL string, req createRequest) (int, *errorResponse) {
	payload, _ := json.Marshal(req)
	resp, err := client.Post(baseURL+"/appointments", "application/json", bytes.NewReader(payload))
	if err != nil {
		return 0, &errorResponse{Code: "network_error", Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusCreated {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}

	var apiErr errorResponse
	_ = json.NewDecoder(resp.Body).Decode(&apiErr)
	return resp.StatusCode, &apiErr
}

func classify(stats *counters, code int, apiErr *errorResponse) {
	switch {
	case code == http.StatusCreated:
		stats.created.Add(1)
	case code == http.StatusConflict:
		stats.conflict.Add(1)
	case code >= 400 && code < 500:
		stats.rejected.Add(1)
	default:
		stats.failed.Add(1)
		if apiErr != nil {
			log.Printf("failure: status=%d code=%s msg=%s", code, apiErr.Code, apiErr.Message)
		}
	}
}

func report(stats *counters, latencies []time.Duration, elapsed time.Duration) {
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	pct := func(p float64) time.Duration {
		if len(latencies) == 0 {
			return 0
		}
		idx := int(p * float64(len(latencies)-1))
		return latencies[idx]
	}

	total := int64(len(latencies))
	log.Printf("done in %s (%.1f req/s)", elapsed.Round(time.Millisecond),
		float64(total)/elapsed.Seconds())
	log.Printf("created=%d conflict=%d rejected=%d failed=%d",
		stats.created.Load(), stats.conflict.Load(), stats.rejected.Load(), stats.failed.Load())
	log.Printf("latency p50=%s p95=%s p99=%s max=%s",
		pct(0.50).Round(time.Millisecond), pct(0.95).Round(time.Millisecond),
		pct(0.99).Round(time.Millisecond), latencies[len(latencies)-1].Round(time.Millisecond))
}
