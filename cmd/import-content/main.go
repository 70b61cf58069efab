// Package main provides a CLI that imports YAML character sheets into the
// PostgreSQL character store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cory-johannsen/holotable/internal/config"
	"github.com/cory-johannsen/holotable/internal/game/character"
	"github.com/cory-johannsen/holotable/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	sourceDir := flag.String("source", "", "character YAML directory (default: content.characters_dir)")
	dryRun := flag.Bool("dry-run", false, "parse the sheets without writing them")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	dir := *sourceDir
	if dir == "" {
		dir = cfg.Content.CharactersDir
	}

	start := time.Now()
	roster, err := character.LoadDirectory(dir)
	if err != nil {
		log.Fatalf("loading characters: %v", err)
	}
	ids := roster.IDs()
	if *dryRun {
		fmt.Fprintf(os.Stdout, "parsed %d characters from %s [%s]\n", len(ids), dir, time.Since(start))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}
	defer pool.Close()

	repo := postgres.NewCharacterRepository(pool.DB())
	for _, id := range ids {
		c, err := roster.Character(ctx, id)
		if err != nil {
			log.Fatalf("reading %q: %v", id, err)
		}
		if _, err := repo.Save(ctx, c); err != nil {
			log.Fatalf("importing %q: %v", id, err)
		}
	}
	fmt.Fprintf(os.Stdout, "imported %d characters from %s [%s]\n", len(ids), dir, time.Since(start))
}
