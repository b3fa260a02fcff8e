package main

import (
	"flag"
	"log"

	"referral-backend/config"
	"referral-backend/migrations"
)

func main() {
	direction := flag.String("direction", "up", "up, down or version")
	steps := flag.Int("steps", 1, "number of migrations to roll back with -direction=down")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.DBUrl == "" {
		log.Fatal("DATABASE_URL is required")
	}

	switch *direction {
	case "up":
		if err := migrations.Up(cfg.DBUrl); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migrations applied")
	case "down":
		if err := migrations.Down(cfg.DBUrl, *steps); err != nil {
			log.Fatalf("Rollback failed: %v", err)
		}
		log.Printf("Rolled back %d migration(s)", *steps)
	case "version":
		v, dirty, err := migrations.Version(cfg.DBUrl)
		if err != nil {
			log.Fatalf("Failed to read version: %v", err)
		}
		log.Printf("Schema version %d (dirty=%v)", v, dirty)
	default:
		log.Fatalf("unknown direction %q", *direction)
	}
}
