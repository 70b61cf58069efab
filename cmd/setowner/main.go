// Package main provides a CLI tool for setting which users own a stored
// character. Owners may roll initiative and claim slots for the character's
// combatants.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/cory-johannsen/holotable/internal/config"
	"github.com/cory-johannsen/holotable/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	characterID := flag.String("character", "", "target character ID (required)")
	owners := flag.String("owners", "", "comma-separated user IDs; empty clears ownership")
	flag.Parse()

	if *characterID == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}
	defer pool.Close()

	repo := postgres.NewCharacterRepository(pool.DB())

	c, err := repo.Character(ctx, *characterID)
	if err != nil {
		log.Fatalf("looking up character %q: %v", *characterID, err)
	}
	previous := c.Owners

	c.Owners = nil
	for _, id := range strings.Split(*owners, ",") {
		if id = strings.TrimSpace(id); id != "" {
			c.Owners = append(c.Owners, id)
		}
	}
	if _, err := repo.Save(ctx, c); err != nil {
		log.Fatalf("saving character: %v", err)
	}

	elapsed := time.Since(start)
	fmt.Fprintf(os.Stdout, "set owners for %s (%s): %v -> %v [%s]\n",
		c.Name, c.ID, previous, c.Owners, elapsed)
}
