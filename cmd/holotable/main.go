// Package main provides the holotable authority process: it owns the combat
// store, listens for claim requests on the relay and replicates every commit.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/holotable/internal/config"
	"github.com/cory-johannsen/holotable/internal/game/character"
	"github.com/cory-johannsen/holotable/internal/game/combat"
	"github.com/cory-johannsen/holotable/internal/game/dice"
	"github.com/cory-johannsen/holotable/internal/game/effect"
	"github.com/cory-johannsen/holotable/internal/gameserver"
	"github.com/cory-johannsen/holotable/internal/observability"
	"github.com/cory-johannsen/holotable/internal/relay"
	"github.com/cory-johannsen/holotable/internal/server"
	"github.com/cory-johannsen/holotable/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	authorityID := flag.String("authority", "gm", "user ID of the authority")
	console := flag.Bool("console", true, "read tracker commands from stdin")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, "authority")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = observability.Sync(logger) }()

	roller, err := newRoller(cfg.Dice, logger)
	if err != nil {
		logger.Fatal("building dice roller", zap.Error(err))
	}

	lifecycle := server.NewLifecycle(logger)

	var (
		store       combat.Store
		chars       combat.CharacterSource
		effectStore gameserver.EffectStore
	)
	switch cfg.Combat.Store {
	case "postgres":
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		store = postgres.NewCombatRepository(pool.DB())
		chars = postgres.NewCharacterRepository(pool.DB())
		effectStore = postgres.NewEffectRepository(pool.DB())

		lifecycle.Add("postgres", &server.FuncService{
			StartFn: func(ctx context.Context) error {
				ticker := time.NewTicker(30 * time.Second)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return nil
					case <-ticker.C:
						if err := pool.Health(ctx, 5*time.Second); err != nil {
							logger.Warn("database health check failed", zap.Error(err))
						}
					}
				}
			},
			StopFn: pool.Close,
		})
	default:
		rosterStart := time.Now()
		roster, err := character.LoadDirectory(cfg.Content.CharactersDir)
		if err != nil {
			logger.Fatal("loading characters", zap.Error(err))
		}
		logger.Info("loaded characters",
			zap.Int("count", len(roster.IDs())),
			zap.Duration("elapsed", time.Since(rosterStart)),
		)
		store = combat.NewEngine()
		chars = roster
		effectStore = gameserver.NewMemoryEffectStore()
	}

	templates := effect.NewRegistry()
	if info, err := os.Stat(cfg.Content.EffectsDir); err == nil && info.IsDir() {
		templates, err = effect.LoadDirectory(cfg.Content.EffectsDir)
		if err != nil {
			logger.Fatal("loading effect templates", zap.Error(err))
		}
		logger.Info("loaded effect templates", zap.Int("count", len(templates.All())))
	}

	hub := relay.NewHub(cfg.Relay.BufferSize, logger)
	replicator := gameserver.NewReplicator(hub, logger)
	claims := gameserver.NewClaimHandler(store, hub, cfg.Relay.Topic, replicator, logger)
	tracker := gameserver.NewEffectTracker(effectStore, logger)
	initiative := combat.NewInitiativeRoller(store, tracker.Characters(chars), roller, logger)
	service := gameserver.NewCombatService(store, initiative, tracker, replicator, logger)

	authority := combat.User{ID: *authorityID, Role: combat.RoleAuthority}

	claimService, err := newClaimService(claims, authority)
	if err != nil {
		logger.Fatal("subscribing to claim requests", zap.Error(err))
	}
	logger.Info("listening for claim requests", zap.String("topic", cfg.Relay.Topic))
	lifecycle.Add("claims", claimService)

	if *console {
		tc := &trackerConsole{
			service:   service,
			claims:    claims,
			effects:   tracker,
			templates: templates,
			chars:     chars,
			roller:    roller,
			skill:     cfg.Combat.DefaultInitiativeSkill,
			user:      authority,
			authority: authority,
			out:       os.Stdout,
		}
		lifecycle.Add("console", &server.FuncService{
			StartFn: func(ctx context.Context) error {
				done := make(chan error, 1)
				go func() { done <- tc.Run(ctx, bufio.NewScanner(os.Stdin)) }()
				select {
				case err := <-done:
					// end of input shuts the authority down
					cancel()
					return err
				case <-ctx.Done():
					// stdin reads cannot be interrupted; the reader exits with the process
					return nil
				}
			},
		})
	}

	lifecycle.Add("relay", &server.FuncService{
		StartFn: server.UntilDone(nil),
		StopFn:  hub.Close,
	})

	logger.Info("holotable authority initialized",
		zap.String("store", cfg.Combat.Store),
		zap.String("authority", authority.ID),
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// newRoller builds the logged dice roller selected by cfg.
func newRoller(cfg config.DiceConfig, logger *zap.Logger) (*dice.Roller, error) {
	faces := dice.DefaultFaceTable()
	if cfg.FaceTable != "" {
		t, err := dice.LoadFaceTable(cfg.FaceTable)
		if err != nil {
			return nil, err
		}
		faces = t
	}
	var src dice.Source
	switch cfg.Source {
	case "seeded":
		src = dice.NewSeededSource(cfg.Seed)
	case "crypto", "":
		src = dice.NewCryptoSource()
	default:
		return nil, fmt.Errorf("unknown dice source %q", cfg.Source)
	}
	return dice.NewLoggedRoller(dice.NewEvaluator(faces, src), logger), nil
}

// newClaimService subscribes the authority to claim requests before any
// service starts. Stopping the service unsubscribes.
func newClaimService(claims *gameserver.ClaimHandler, authority combat.User) (*server.FuncService, error) {
	sub, err := claims.Listen(authority)
	if err != nil {
		return nil, err
	}
	return &server.FuncService{
		StartFn: server.UntilDone(nil),
		StopFn:  sub.Unsubscribe,
	}, nil
}
