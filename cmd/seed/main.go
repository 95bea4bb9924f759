package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JoaquinFreire/odontologiafinal/internal/auth"
	"github.com/JoaquinFreire/odontologiafinal/internal/db"
	"github.com/JoaquinFreire/odontologiafinal/internal/schedule"
)

// Seeds a demo practitioner plus a couple of weeks of appointments spread
// over the booking grid.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	practitionerID, err := seedPractitioner(ctx, pool)
	if err != nil {
		log.Fatalf("seed practitioner: %v", err)
	}
	if err := seedAppointments(ctx, pool, practitionerID, 60); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

func seedPractitioner(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	email := envOr("SEED_EMAIL", "demo@clinica.test")
	password := envOr("SEED_PASSWORD", "demo1234")

	hash, err := auth.HashPassword(password)
	if err != nil {
		return 0, err
	}

	var id int64
	err = pool.QueryRow(ctx, `
		INSERT INTO users (email, full_name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (email) DO UPDATE SET updated_at = now()
		RETURNING id
	`, email, gofakeit.Name(), hash).Scan(&id)
	if err != nil {
		return 0, err
	}

	log.Printf("practitioner ready: email=%s id=%d", email, id)
	return id, nil
}

func seedAppointments(ctx context.Context, pool *pgxpool.Pool, practitionerID int64, count int) error {
	log.Printf("seeding %d appointments", count)

	treatments := schedule.TreatmentTypes()
	slots := schedule.TimeSlots()
	clock := schedule.NewClock(time.UTC)

	taken := make(map[string]bool)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	inserted := 0
	for inserted < count {
		// Scatter over the coming two weeks, skipping slots already used.
		day := time.Now().UTC().AddDate(0, 0, gofakeit.Number(0, 13))
		slot := schedule.Slot{
			Date: day.Format("2006-01-02"),
			Time: slots[gofakeit.Number(0, len(slots)-1)],
		}
		if taken[slot.Key()] {
			continue
		}
		taken[slot.Key()] = true

		at, err := clock.SlotInstant(slot.Date, slot.Time)
		if err != nil {
			return err
		}

		treatment := treatments[gofakeit.Number(0, len(treatments)-2)] // skip "Otro"
		name := schedule.NormalizePatientName(gofakeit.Name())
		dni := gofakeit.DigitN(8)

		_, err = tx.Exec(ctx, `
			INSERT INTO appointments (practitioner_id, patient_name, patient_dni, treatment_type, scheduled_at, completed, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, FALSE, now(), now())
		`, practitionerID, name, dni, treatment, at)
		if err != nil {
			return err
		}
		inserted++
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("appointments seeded")
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
