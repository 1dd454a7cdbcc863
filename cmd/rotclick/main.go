package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rotclick/server/internal/config"
	"github.com/rotclick/server/internal/core/event"
	coresys "github.com/rotclick/server/internal/core/system"
	"github.com/rotclick/server/internal/data"
	"github.com/rotclick/server/internal/handler"
	gonet "github.com/rotclick/server/internal/net"
	"github.com/rotclick/server/internal/persist"
	"github.com/rotclick/server/internal/scripting"
	"github.com/rotclick/server/internal/system"
	"github.com/rotclick/server/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string, serverID int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m            RotClick  v0.1.0               \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      brainrot clicker · game server       \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s \033[90m(id: %d)\033[0m\n\n", serverName, serverID)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("ROTCLICK_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.ID)

	// 3. Profile storage: PostgreSQL when a DSN is configured, otherwise
	// profiles live in memory for the process lifetime.
	printSection("storage")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var profiles persist.ProfileStore
	if cfg.Database.DSN != "" {
		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		if err := persist.RunMigrations(ctx, db.Pool); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("migrations applied")

		profiles = persist.NewProfileRepo(db)
	} else {
		log.Warn("no database DSN configured, profiles are in-memory only")
		profiles = persist.NewMemStore()
		printOK("in-memory profile store")
	}
	fmt.Println()

	// 4. Load authoring data
	printSection("data")

	brainrots, err := data.LoadBrainrotTable("data/yaml/brainrot_list.yaml")
	if err != nil {
		return fmt.Errorf("load brainrot table: %w", err)
	}
	printStat("brainrot templates", brainrots.Count())

	areas, err := data.LoadAreaTable("data/yaml/area_list.yaml")
	if err != nil {
		return fmt.Errorf("load area table: %w", err)
	}
	printStat("areas", areas.Count())

	spawnList, err := data.LoadSpawnList("data/yaml/spawn_list.yaml")
	if err != nil {
		return fmt.Errorf("load spawn list: %w", err)
	}
	printStat("spawn entries", len(spawnList))

	// 5. Lua scripting engine (balance hooks)
	luaEngine, err := scripting.NewEngine("scripts", log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	printOK("lua scripts loaded")
	fmt.Println()

	// 6. World state, event bus, gateway
	worldState := world.NewState()
	bus := event.NewBus()

	gateway, err := gonet.NewGateway(cfg.Network, log)
	if err != nil {
		return fmt.Errorf("gateway: %w", err)
	}

	var tickets *gonet.TicketVerifier
	if cfg.Network.TicketSecret != "" {
		tickets = gonet.NewTicketVerifier(cfg.Network.TicketSecret)
	} else {
		log.Warn("no ticket secret configured, guest joins enabled")
	}

	deps := &handler.Deps{
		Config:    cfg,
		Log:       log,
		World:     worldState,
		Notifier:  gateway,
		Gateway:   gateway,
		Tickets:   tickets,
		Scripting: luaEngine,
		Brainrots: brainrots,
		Areas:     areas,
		Profiles:  profiles,
		Bus:       bus,
		Loads:     make(chan handler.ProfileLoad, 256),
	}

	// 7. Systems
	runner := coresys.NewRunner()

	combatSys := system.NewCombatSystem(deps)
	deps.Combat = combatSys
	spawner := system.NewSpawner(deps)

	autosaveTicks := int(cfg.Game.AutosaveInterval.Std() / cfg.Game.TickRate.Std())
	if autosaveTicks < 1 {
		autosaveTicks = 1
	}
	persistSys := system.NewPersistenceSystem(deps, autosaveTicks)

	runner.Register(system.NewInputSystem(deps))
	runner.Register(combatSys)
	runner.Register(system.NewRespawnSystem(deps, spawner))
	runner.Register(system.NewSweepSystem(deps))
	runner.Register(system.NewBroadcastSystem(deps))
	runner.Register(persistSys)

	// 8. Initial world population
	printSection("world")
	spawned := spawnBrainrots(spawnList, brainrots, areas, spawner, log)
	printStat("instances spawned", spawned)
	fmt.Println()

	// 9. Start accepting connections and run the game loop
	gateway.Start()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Game.TickRate.Std())
	defer ticker.Stop()

	printSection("server ready")
	printReady(fmt.Sprintf("listening on ws://%s/ws", gateway.Addr().String()))
	printReady(fmt.Sprintf("game loop started (tick: %s)", cfg.Game.TickRate.Std()))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			// Events emitted last tick become visible to this tick's
			// output phase.
			bus.SwapBuffers()
			runner.Tick(cfg.Game.TickRate.Std())
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))

			saveCtx, saveCancel := context.WithTimeout(context.Background(), 10*time.Second)
			persistSys.SaveAll(saveCtx)
			saveCancel()

			stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
			gateway.Shutdown(stopCtx)
			stopCancel()

			log.Info("server stopped")
			return nil
		}
	}
}

// spawnBrainrots stands up the initial population from the spawn list.
// Entries referencing unknown templates or areas are skipped with a warning;
// a hard spawn failure abandons that entry's remaining count.
func spawnBrainrots(entries []data.SpawnEntry, brainrots *data.BrainrotTable, areas *data.AreaTable, spawner *system.Spawner, log *zap.Logger) int {
	count := 0
	for _, e := range entries {
		tmpl := brainrots.Get(e.Template)
		if tmpl == nil {
			log.Warn("spawn entry references unknown template", zap.String("template", e.Template))
			continue
		}
		area := areas.Get(e.Area)
		if area == nil {
			log.Warn("spawn entry references unknown area", zap.String("area", e.Area))
			continue
		}
		for i := 0; i < e.Count; i++ {
			inst, err := spawner.Spawn(tmpl, area)
			if err != nil {
				log.Error("boot spawn failed",
					zap.String("template", e.Template),
					zap.String("area", e.Area),
					zap.Error(err),
				)
				break
			}
			if inst != nil {
				count++
			}
		}
	}
	return count
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
