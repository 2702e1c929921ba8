// Package main runs the idle battle for one save slot, either against the
// wall clock until interrupted or fast-forwarded over a simulated duration.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/incremental/internal/battle"
	"github.com/cory-johannsen/incremental/internal/config"
	"github.com/cory-johannsen/incremental/internal/game/catalog"
	"github.com/cory-johannsen/incremental/internal/game/combat"
	"github.com/cory-johannsen/incremental/internal/game/dice"
	"github.com/cory-johannsen/incremental/internal/observability"
	"github.com/cory-johannsen/incremental/internal/savegame"
	"github.com/cory-johannsen/incremental/internal/scripting"
	"github.com/cory-johannsen/incremental/internal/server"
	"github.com/cory-johannsen/incremental/internal/storage"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file; empty uses defaults and INCREMENTAL_* variables")
	slot := flag.Int("slot", 1, "save slot index (1-based)")
	duration := flag.Duration("duration", 0, "how long to run; 0 runs until interrupted")
	fast := flag.Bool("fast", false, "simulate -duration without waiting on the wall clock")
	travel := flag.String("travel", "", "location id to travel to before fighting")
	fresh := flag.Bool("new", false, "start a new game in the slot, replacing any save")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, "simulate")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	if *slot < 1 || *slot > cfg.Storage.MaxSlots {
		logger.Fatal("slot out of range", zap.Int("slot", *slot), zap.Int("max_slots", cfg.Storage.MaxSlots))
	}
	if *fast && *duration <= 0 {
		logger.Fatal("-fast requires a positive -duration")
	}

	content := catalog.Default()
	if cfg.Simulation.ContentDir != "" {
		content, err = catalog.LoadDir(cfg.Simulation.ContentDir)
		if err != nil {
			logger.Fatal("loading content", zap.String("dir", cfg.Simulation.ContentDir), zap.Error(err))
		}
	}
	logger.Info("content loaded",
		zap.Int("locations", len(content.LocationIDs())),
		zap.Int("items", len(content.ItemIDs())),
	)

	store, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("opening storage", zap.Error(err))
	}
	defer store.Close()

	codec := savegame.NewCodec(store, content,
		savegame.WithKeyPrefix(cfg.Storage.KeyPrefix),
		savegame.WithMaxSlots(cfg.Storage.MaxSlots),
		savegame.WithLogger(logger),
	)

	slotID := savegame.SlotID(*slot)
	state, err := loadOrCreate(ctx, codec, slotID, *fresh)
	if err != nil {
		logger.Fatal("preparing game state", zap.String("slot", slotID), zap.Error(err))
	}

	var src dice.Source = dice.NewCryptoSource()
	if cfg.Simulation.Seed != 0 {
		src = dice.NewSeededSource(cfg.Simulation.Seed)
	}
	rng := dice.NewLoggedSource(src, logger)

	opts := []battle.Option{
		battle.WithLogger(logger),
		battle.WithSource(rng),
		battle.WithReviveDelay(cfg.Simulation.ReviveDelay),
		battle.WithRespawnDelay(cfg.Simulation.RespawnDelay),
		battle.WithNotify(func(line string) { fmt.Fprintln(os.Stdout, line) }),
	}
	if cfg.Simulation.ScriptPath != "" {
		script, err := scripting.LoadTargetScript(cfg.Simulation.ScriptPath,
			scripting.WithLogger(logger),
			scripting.WithSource(rng),
			scripting.WithInstructionLimit(cfg.Simulation.InstructionLimit),
		)
		if err != nil {
			logger.Fatal("loading target script", zap.Error(err))
		}
		defer script.Close()
		opts = append(opts, battle.WithCombatOptions(
			combat.WithActorSelector(script.Selector(combat.FixedEnemy{})),
			combat.WithEnemySelector(script.Selector(combat.FirstLiving{})),
		))
		logger.Info("target script loaded", zap.String("path", cfg.Simulation.ScriptPath))
	}

	session, err := battle.NewSession(content, state, cfg.Simulation.TickLength, opts...)
	if err != nil {
		logger.Fatal("starting battle", zap.Error(err))
	}
	if *travel != "" {
		if err := session.Travel(*travel); err != nil {
			logger.Fatal("travelling", zap.String("location", *travel), zap.Error(err))
		}
	}

	logger.Info("battle starting",
		zap.String("slot", slotID),
		zap.String("location", state.LocationID),
		zap.Duration("tick", cfg.Simulation.TickLength),
		zap.Bool("fast", *fast),
		zap.Duration("startup", time.Since(start)),
	)

	if *fast {
		if err := session.Run(*duration, cfg.Simulation.FrameInterval); err != nil {
			logger.Fatal("simulation failed", zap.Error(err))
		}
		if err := codec.Save(ctx, state); err != nil {
			logger.Fatal("saving", zap.Error(err))
		}
	} else {
		runner := battle.NewRunner(session, codec, battle.RunnerConfig{
			FrameInterval:    cfg.Simulation.FrameInterval,
			AutosaveInterval: cfg.Simulation.AutosaveInterval,
			Duration:         *duration,
		}, logger)
		lc := server.NewLifecycle(logger)
		lc.Add("battle", runner)
		if err := lc.Run(ctx); err != nil {
			logger.Error("battle stopped with error", zap.Error(err))
		}
	}

	printTally(session.Tally(), state)
}

func loadOrCreate(ctx context.Context, codec *savegame.Codec, slotID string, fresh bool) (*savegame.GameState, error) {
	if !fresh {
		state, err := codec.Load(ctx, slotID)
		if err != nil {
			return nil, err
		}
		if state != nil {
			return state, nil
		}
	}
	return codec.CreateDefaultState(slotID)
}

func printTally(t battle.Tally, state *savegame.GameState) {
	fmt.Fprintf(os.Stdout, "\n%d ticks, %d attacks, %d kills, %d downs\n", t.Ticks, t.Attacks, t.Kills, t.Downs)
	fmt.Fprintf(os.Stdout, "+%d xp each, +%d munny, %d drops (%d lost)\n", t.XP, t.Munny, t.Drops, t.Lost)
	for _, a := range state.Actors {
		fmt.Fprintf(os.Stdout, "  %-8s Lv%-3d HP %d/%d  MP %d/%d  XP %d/%d\n",
			a.Name, a.Actor.Level,
			a.Health.Current, a.Health.Max,
			a.Actor.Mana.Current, a.Actor.Mana.Max,
			a.Actor.XP, a.Actor.XPToLevel,
		)
	}
	fmt.Fprintf(os.Stdout, "  munny %d at %s\n", state.Inventory.Munny(), state.LocationID)
}
