package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"github.com/PixPMusic/gopher-bind/internal/bank"
	"github.com/PixPMusic/gopher-bind/internal/binding"
	"github.com/PixPMusic/gopher-bind/internal/catalog"
	"github.com/PixPMusic/gopher-bind/internal/config"
	"github.com/PixPMusic/gopher-bind/internal/hub"
	"github.com/PixPMusic/gopher-bind/internal/keys"
	"github.com/PixPMusic/gopher-bind/internal/learn"
	"github.com/PixPMusic/gopher-bind/internal/lfo"
	"github.com/PixPMusic/gopher-bind/internal/logging"
	"github.com/PixPMusic/gopher-bind/internal/midi"
	"github.com/PixPMusic/gopher-bind/internal/state"
	"github.com/PixPMusic/gopher-bind/internal/tray"
	"github.com/PixPMusic/gopher-bind/internal/window"
)

func main() {
	configPath := flag.String("config", "", "Config file path (default: user config dir)")
	catalogPath := flag.String("catalog", "", "Parameter catalog YAML (overrides config)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	list := flag.Bool("list", false, "List MIDI input ports and exit")
	headless := flag.Bool("headless", false, "Run the stdin console instead of the window")
	flag.Parse()

	logger := logging.Setup(*debug)

	midiManager := midi.NewManager(logger)
	defer midiManager.Close()

	if *list {
		for _, name := range midiManager.ListInPorts() {
			fmt.Println(name)
		}
		return
	}

	// Load configuration
	cfg, path, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load config", "path", path, "err", err)
		os.Exit(1)
	}
	if *catalogPath != "" {
		cfg.CatalogPath = *catalogPath
	}

	cat := catalog.New()
	if cfg.CatalogPath != "" {
		cat, err = catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			logger.Error("failed to load catalog", "path", cfg.CatalogPath, "err", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("no parameter catalog configured; learn will not find any targets")
	}

	file := config.NewFile(path, cfg)
	banks := bank.NewStore(
		bank.WithLogger(logger),
		bank.WithPersister(file),
	)
	if err := banks.Restore(cfg.Banks); err != nil {
		logger.Error("failed to restore banks", "err", err)
		os.Exit(1)
	}

	params := state.New(nil)
	params.Subscribe("", func(path string, value any) {
		logger.Debug("param", "path", path, "value", value)
	})

	h := hub.Attach(banks, params, hub.WithLogger(logger))

	learnOpts := []learn.Option{learn.WithLogger(logger)}
	if cfg.LearnTimeoutS > 0 {
		learnOpts = append(learnOpts, learn.WithTimeout(time.Duration(cfg.LearnTimeoutS*float64(time.Second))))
	}
	learner := learn.NewLearner(h, banks, binding.NewFactory(cat), learnOpts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go midiManager.Run(ctx, cfg.InPorts, h)

	runner := lfo.NewRunner(h, lfo.WithLogger(logger))
	for _, o := range cfg.LFOs {
		if err := runner.Add(o); err != nil {
			logger.Warn("skipping lfo", "err", err)
		}
	}
	go runner.Run(ctx)

	kb := keys.New(h, keys.WithRamp(time.Duration(cfg.Keys.HoldRampMS)*time.Millisecond))
	tick := time.Duration(cfg.Keys.TickMS) * time.Millisecond
	if tick <= 0 {
		tick = 20 * time.Millisecond
	}
	go kb.Run(ctx, tick)

	logger.Info("gopher-bind starting",
		"config", file.Path(),
		"catalog", cfg.CatalogPath,
		"params", cat.Len(),
		"bank", banks.ActiveName(),
		"lfos", len(runner.Keys()),
	)

	if *headless {
		con := &console{
			out:     os.Stdout,
			catalog: cat,
			banks:   banks,
			params:  params,
			hub:     h,
			learner: learner,
			keys:    kb,
			lfos:    runner,
			file:    file,
			log:     logger,
		}
		go func() {
			if err := con.run(ctx, os.Stdin); err != nil {
				logger.Error("console stopped", "err", err)
			}
		}()
		<-ctx.Done()
	} else {
		runWindow(ctx, window.Deps{
			File:    file,
			Catalog: cat,
			Banks:   banks,
			Learner: learner,
			Ports:   midiManager,
			Keys:    kb,
			LFOs:    runner,
		})
		stop()
	}
	learner.Cancel()

	st := h.Stats()
	slog.Info("gopher-bind stopped",
		"routed", st.Routed,
		"unbound", st.Unbound,
		"intercepted", st.Intercepted,
		"switched", st.Switched,
		"ignored", st.Ignored,
	)
}

// loadConfig reads path, or the default config file when path is empty
func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.LoadFrom(path)
		return cfg, path, err
	}
	def, err := config.ConfigPath()
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load()
	return cfg, def, err
}

// runWindow shows the editor and blocks until the app quits or ctx ends
func runWindow(ctx context.Context, d window.Deps) {
	fyneApp := app.NewWithID("com.pixpmusic.gopherbind")

	mainWindow := window.NewMainWindow(fyneApp, d)

	tray.Setup(fyneApp, d.Banks, tray.Callbacks{
		OnOpen: func() {
			mainWindow.Show()
		},
		OnQuit: func() {
			fyneApp.Quit()
		},
	})

	go func() {
		<-ctx.Done()
		fyne.Do(fyneApp.Quit)
	}()

	mainWindow.Show()

	// Run the Fyne app (this blocks until app.Quit is called)
	fyneApp.Run()
}
