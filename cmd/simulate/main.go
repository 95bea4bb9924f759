package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Fires N concurrent bookings at the same grid slot and reports how many
// succeeded versus hit the collision guard. Exactly one success is the
// expected outcome.
func main() {
	log.SetFlags(log.LstdFlags)

	var (
		baseURL = flag.String("url", "http://localhost:8080", "API base URL")
		token   = flag.String("token", "", "Bearer token from /api/auth/login")
		date    = flag.String("date", time.Now().AddDate(0, 0, 1).Format("2006-01-02"), "slot date (YYYY-MM-DD)")
		slot    = flag.String("time", "10:00", "slot time (HH:MM)")
		workers = flag.Int("workers", 20, "concurrent booking attempts")
	)
	flag.Parse()

	if *token == "" {
		log.Fatal("-token is required")
	}

	log.Printf("racing %d bookings for slot %s %s", *workers, *date, *slot)

	var created, conflict, failed int64
	var wg sync.WaitGroup

	client := &http.Client{Timeout: 10 * time.Second}

	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			body, _ := json.Marshal(map[string]string{
				"patient_name":   fmt.Sprintf("carga paciente %d", n),
				"treatment_type": "Consulta",
				"date":           *date,
				"time":           *slot,
			})

			req, err := http.NewRequest(http.MethodPost, *baseURL+"/api/appointments", bytes.NewReader(body))
			if err != nil {
				atomic.AddInt64(&failed, 1)
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+*token)

			resp, err := client.Do(req)
			if err != nil {
				atomic.AddInt64(&failed, 1)
				return
			}
			defer resp.Body.Close()
			_, _ = io.Copy(io.Discard, resp.Body)

			switch resp.StatusCode {
			case http.StatusCreated:
				atomic.AddInt64(&created, 1)
			case http.StatusConflict:
				atomic.AddInt64(&conflict, 1)
			default:
				atomic.AddInt64(&failed, 1)
			}
		}(i)
	}

	wg.Wait()

	log.Printf("created=%d conflict=%d failed=%d", created, conflict, failed)
	if created != 1 {
		log.Printf("WARNING: expected exactly 1 created booking, got %d", created)
	}
}
