// Package main provides the simulate binary: it loads character content, spawns one
// character per archetype and lets them skirmish under the frame driver.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rpgsheet/internal/config"
	"github.com/cory-johannsen/rpgsheet/internal/content"
	"github.com/cory-johannsen/rpgsheet/internal/game/dice"
	"github.com/cory-johannsen/rpgsheet/internal/game/technique"
	"github.com/cory-johannsen/rpgsheet/internal/observability"
	"github.com/cory-johannsen/rpgsheet/internal/scripting"
	"github.com/cory-johannsen/rpgsheet/internal/simulation"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	contentRoot := flag.String("content", "", "content root; overrides every content directory with <root>/{archetypes,items,effects,techniques,scripts}")
	duration := flag.Duration("duration", 0, "overrides simulation.duration when > 0")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *contentRoot != "" {
		cfg.Content = config.ContentConfig{
			ArchetypesDir: *contentRoot + "/archetypes",
			ItemsDir:      *contentRoot + "/items",
			EffectsDir:    *contentRoot + "/effects",
			TechniquesDir: *contentRoot + "/techniques",
			ScriptsDir:    *contentRoot + "/scripts",
		}
	}
	if *duration > 0 {
		cfg.Simulation.Duration = *duration
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	var src dice.Source
	if cfg.Simulation.Seed != 0 {
		src = dice.NewSeededSource(cfg.Simulation.Seed)
	} else {
		src = dice.NewCryptoSource()
	}
	roller := dice.NewLoggedRoller(src, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bundle, err := content.Load(ctx, cfg.Content)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	logger.Info("content loaded",
		zap.Int("archetypes", len(bundle.Archetypes)),
		zap.Int("items", bundle.Items.Len()),
		zap.Int("effects", len(bundle.Effects.All())),
		zap.Int("techniques", len(bundle.Techniques)),
	)

	roster := simulation.NewRoster(logger)

	scriptMgr := scripting.NewManager(roller, logger)
	defer scriptMgr.Close()
	if cfg.Content.ScriptsDir != "" {
		if err := scriptMgr.Load(cfg.Content.ScriptsDir, cfg.Scripting.InstructionLimit); err != nil {
			logger.Fatal("loading scripts", zap.Error(err))
		}
	}
	roster.BindScripting(scriptMgr, bundle.Effects)

	builder := technique.NewBuilder(bundle.Effects, roller, roster.Recipient, scriptMgr, logger)
	catalog, err := builder.BuildCatalog(bundle.Techniques)
	if err != nil {
		logger.Fatal("building techniques", zap.Error(err))
	}

	spawner := simulation.NewSpawner(roster, bundle.Items, catalog, logger)
	for _, a := range bundle.Archetypes {
		if _, err := spawner.Spawn(a, a.Name); err != nil {
			logger.Fatal("spawning character", zap.String("archetype", a.ID), zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Simulation.Duration)
	defer cancel()

	driver := simulation.NewDriver(roster, cfg.Simulation.TickInterval, logger)
	skirmish := simulation.NewSkirmish(roster, cfg.Simulation.ActionInterval.Seconds(), logger)
	driver.OnFrame(skirmish.Frame)
	driver.OnFrame(func(float64) {
		if skirmish.Over() {
			cancel()
		}
	})

	logger.Info("simulation ready", zap.Duration("startup", time.Since(start)))
	if err := driver.Run(ctx); err != nil {
		logger.Fatal("running simulation", zap.Error(err))
	}

	for _, s := range roster.Snapshots() {
		logger.Info("final state",
			zap.String("character", s.ID),
			zap.String("name", s.Name),
			zap.Bool("alive", s.Alive),
			zap.String("hp", fmt.Sprintf("%d/%d", s.HP, s.MaxHP)),
			zap.String("mana", fmt.Sprintf("%d/%d", s.Mana, s.MaxMana)),
			zap.Strings("effects", s.Effects),
		)
	}
}
