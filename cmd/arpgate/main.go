package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/prabalesh/arpgate/internal/config"
	"github.com/prabalesh/arpgate/internal/engine"
	"github.com/prabalesh/arpgate/internal/registry"
	"github.com/prabalesh/arpgate/internal/shell"
	"github.com/prabalesh/arpgate/internal/utils/color"
	log "github.com/sirupsen/logrus"
)

var version = "unknown"

var cli struct {
	config.Config `embed:""`

	Version bool `help:"Print version information and quit"`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("arpgate"),
		kong.Description("Cut LAN devices off their gateway with ARP spoofing."),
		kong.UsageOnError(),
	)

	if cli.Version {
		log.Infof("version: %s", version)
		return
	}

	cfg := cli.Config
	kctx.FatalIfErrorf(cfg.Validate())
	setupLogging(cfg)

	if err := shell.CheckRequirements(os.Stdout, cfg.Firewall); err != nil {
		log.Fatal(err)
	}

	e, err := engine.Open(cfg)
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}

	for _, address := range cfg.Devices {
		kind, err := registry.ParseKind(address)
		if err != nil {
			log.Warnf("skipping device: %v", err)
			continue
		}
		e.AddDevice(address, kind)
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runCtx, cancel := context.WithCancel(sigCtx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.Run(runCtx)
	}()

	if cfg.Shell {
		shell.NewShell(e, os.Stdin, os.Stdout).Start(sigCtx)
	} else {
		<-sigCtx.Done()
	}

	cancel()
	wg.Wait()

	if err := e.Shutdown(); err != nil {
		log.Errorf("shutdown incomplete: %v", err)
		os.Exit(1)
	}
	log.Info("Exited")
}

func setupLogging(cfg config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.LogJSON {
		log.SetFormatter(&log.JSONFormatter{})
		color.DisableColor()
		return
	}
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
		PadLevelText:  true,
	})
}
