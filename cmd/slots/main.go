// Package main lists or deletes save slots.
//
//	slots [-config path]              list every slot
//	slots [-config path] -delete N    delete slot N
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/incremental/internal/config"
	"github.com/cory-johannsen/incremental/internal/game/catalog"
	"github.com/cory-johannsen/incremental/internal/observability"
	"github.com/cory-johannsen/incremental/internal/savegame"
	"github.com/cory-johannsen/incremental/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file; empty uses defaults and INCREMENTAL_* variables")
	del := flag.Int("delete", 0, "slot index to delete (1-based); 0 lists slots")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logging, "slots")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	content := catalog.Default()
	if cfg.Simulation.ContentDir != "" {
		if content, err = catalog.LoadDir(cfg.Simulation.ContentDir); err != nil {
			logger.Fatal("loading content", zap.Error(err))
		}
	}

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

	if *del != 0 {
		if *del < 1 || *del > cfg.Storage.MaxSlots {
			logger.Fatal("slot out of range", zap.Int("slot", *del), zap.Int("max_slots", cfg.Storage.MaxSlots))
		}
		id := savegame.SlotID(*del)
		if err := codec.Delete(ctx, id); err != nil {
			logger.Fatal("deleting slot", zap.Error(err))
		}
		fmt.Fprintf(os.Stdout, "deleted %s\n", id)
		return
	}

	slots, err := codec.ListSlots(ctx)
	if err != nil {
		logger.Fatal("listing slots", zap.Error(err))
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SLOT\tUPDATED\tLOCATION\tPARTY\tMUNNY")
	for _, s := range slots {
		if !s.Exists {
			fmt.Fprintf(w, "%s\t-\t(empty)\t\t\n", s.Title)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
			s.Title,
			s.UpdatedAt.Local().Format(time.DateTime),
			s.LocationDisplay,
			strings.Join(s.PartyNames, ", "),
			s.Munny,
		)
	}
	w.Flush()

	extra, err := storage.Unlisted(ctx, store, cfg.Storage.KeyPrefix, cfg.Storage.MaxSlots)
	if err != nil {
		logger.Fatal("listing records", zap.Error(err))
	}
	if len(extra) > 0 {
		fmt.Fprintf(os.Stdout, "\n%d record(s) outside slot1..slot%d:\n", len(extra), cfg.Storage.MaxSlots)
		for _, k := range extra {
			fmt.Fprintf(os.Stdout, "  %s\n", k)
		}
	}
}
