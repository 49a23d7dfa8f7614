package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/gstoney/mcserver/internal/config"
	"github.com/gstoney/mcserver/internal/lobby"
	"github.com/gstoney/mcserver/internal/logging"
	"github.com/gstoney/mcserver/internal/store"
	"github.com/gstoney/mcserver/packet"
	"github.com/gstoney/mcserver/server"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	envFile := flag.String("env", ".env", "path to a .env file, ignored when missing")
	flag.Parse()

	if err := run(*configPath, *envFile); err != nil {
		fmt.Fprintln(os.Stderr, "mcserver:", err)
		os.Exit(1)
	}
}

func run(configPath, envFile string) error {
	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return err
	}

	logFile, err := logging.Init(cfg.Log)
	if err != nil {
		return err
	}
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	var journal lobby.Journal
	if cfg.Store.Path != "" {
		db, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		j := store.NewJournal(db, 0)
		g.Go(func() error { return j.Run(ctx) })
		journal = j
		log.Info().Str("path", cfg.Store.Path).Msg("session journal opened")
	}

	registry := packet.Default()
	clients := server.NewClients(registry)

	game := lobby.New(lobby.Config{
		MaxPlayers: cfg.Status.MaxPlayers,
		GameMode:   cfg.Lobby.GameMode,
		LevelType:  cfg.Lobby.LevelType,
		Spawn:      packet.Position{X: cfg.Lobby.SpawnX, Y: cfg.Lobby.SpawnY, Z: cfg.Lobby.SpawnZ},
	}, journal)

	dispatcher := server.NewDispatcher(game, clients, server.DispatcherConfig{
		TickRate:     cfg.Server.TickRate,
		InboundQueue: cfg.Server.InboundQueue,
	}, server.SystemClock{})

	srvLog := logging.Component("server")
	srv := &server.Server{
		Addr: cfg.Server.Addr,
		Config: server.Config{
			MaxPacketLen:      cfg.Server.MaxPacketLen,
			OutboundQueue:     cfg.Server.OutboundQueue,
			PacketRate:        cfg.Server.PacketRate,
			PacketBurst:       cfg.Server.PacketBurst,
			KeepAliveInterval: cfg.Server.KeepAliveInterval.Duration,
			KeepAliveTimeout:  cfg.Server.KeepAliveTimeout.Duration,
			LoginTimeout:      cfg.Server.LoginTimeout.Duration,
			WriteTimeout:      cfg.Server.WriteTimeout.Duration,
		},
		Status: server.StatusConfig{
			VersionName: cfg.Status.VersionName,
			MOTD:        cfg.Status.MOTD,
			MaxPlayers:  cfg.Status.MaxPlayers,
		},
		Registry: registry,
		Clients:  clients,
		Events:   dispatcher.Inbound(),
		Logger:   &srvLog,
	}

	g.Go(func() error { return dispatcher.Run(ctx) })
	g.Go(func() error { return srv.ListenAndServe(ctx) })

	err = g.Wait()
	log.Info().Msg("server stopped")
	return err
}
