// Package main provides a command-line narrative dice roller.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/holotable/internal/config"
	"github.com/cory-johannsen/holotable/internal/game/dice"
	"github.com/cory-johannsen/holotable/internal/observability"
)

func main() {
	faceTable := flag.String("faces", "", "path to a YAML face table (empty = built-in)")
	seed := flag.Int64("seed", 0, "seed for a reproducible roll (0 = crypto source)")
	upgrade := flag.Int("upgrade", 0, "upgrade ability dice this many times before rolling")
	downgrade := flag.Int("downgrade", 0, "downgrade proficiency dice this many times before rolling")
	verbose := flag.Bool("v", false, "print every die face")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <expression>\n\nexample: %s 2da+1dp+1dd\n\n", os.Args[0], os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	logCfg := config.LoggingConfig{Level: "warn", Format: "console"}
	if *verbose {
		logCfg.Level = "debug"
	}
	logger, err := observability.NewLogger(logCfg, "roll")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = observability.Sync(logger) }()

	pool, err := dice.ParseExpression(strings.Join(flag.Args(), ""))
	if err != nil {
		log.Fatalf("parsing expression: %v", err)
	}
	pool.Upgrade(*upgrade)
	pool.Downgrade(*downgrade)

	src := dice.NewCryptoSource()
	if *seed != 0 {
		src = dice.NewSeededSource(*seed)
	}
	roller, err := newRoller(*faceTable, src, logger)
	if err != nil {
		log.Fatalf("loading face table: %v", err)
	}

	result := roller.RollPool(pool)
	if *verbose {
		for _, d := range result.Dice {
			fmt.Fprintf(os.Stdout, "  %-11s face %2d  %s\n", d.Kind, d.Face, d.Symbols)
		}
	}
	fmt.Fprintln(os.Stdout, result)
}

func newRoller(faceTable string, src dice.Source, logger *zap.Logger) (*dice.Roller, error) {
	faces := dice.DefaultFaceTable()
	if faceTable != "" {
		t, err := dice.LoadFaceTable(faceTable)
		if err != nil {
			return nil, err
		}
		faces = t
	}
	return dice.NewLoggedRoller(dice.NewEvaluator(faces, src), logger), nil
}
