package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/vncsmyrnk/surveyengine/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/surveyengine/internal/config"
)

// Applies the embedded migrations. With a name argument only the matching
// migration runs; -list prints what is available.
func main() {
	list := flag.Bool("list", false, "list available migrations and exit")
	flag.Parse()

	if *list {
		names, err := postgres.MigrationNames()
		if err != nil {
			log.Fatal(err)
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := postgres.Open(ctx, cfg.Postgres.DSN())
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	applied, err := postgres.ApplyMigration(ctx, db, flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to execute migration: %v", err)
	}

	fmt.Printf("%d migration file(s) executed successfully.\n", applied)
}
