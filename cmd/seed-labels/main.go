package main

import (
	"context"
	"fmt"
	"log"

	"github.com/anchorhub/anchorhub-api/internal/config"
	"github.com/anchorhub/anchorhub-api/internal/database"
)

// Seeds the global status label catalog. Safe to re-run; existing labels are
// left untouched.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	labels := []struct {
		Label       string
		Color       string
		Order       float64
		IsDoneState bool
	}{
		{"To Do", "#C4C4C4FF", 0, false},
		{"Working On It", "#FDAB3DFF", 1, false},
		{"Stuck", "#E2445CFF", 2, false},
		{"Needs Attention", "#FFCB00FF", 3, false},
		{"Done", "#00C875FF", 4, true},
	}

	seeded := 0
	for _, l := range labels {
		tag, err := db.Pool.Exec(ctx, `
			INSERT INTO status_labels (scope, board_id, label, color, order_index, is_done_state)
			VALUES ('global', NULL, $1, $2, $3, $4)
			ON CONFLICT (scope, board_id, label) DO NOTHING
		`, l.Label, l.Color, l.Order, l.IsDoneState)
		if err != nil {
			log.Fatalf("Failed to seed label %q: %v", l.Label, err)
		}
		seeded += int(tag.RowsAffected())
	}

	fmt.Printf("Seeded %d global labels\n", seeded)
}
