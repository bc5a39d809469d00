package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"rallypoint/internal/beacon"
	"rallypoint/internal/clock"
	"rallypoint/internal/config"
	"rallypoint/internal/game"
	"rallypoint/internal/server"
	"rallypoint/internal/spectate"
	"rallypoint/internal/tick"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("rallypoint", os.Args[1:])
	if err != nil {
		return err
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := server.Listen(cfg.Listen)
	if err != nil {
		return err
	}

	loop := tick.NewLoop(clock.Real())
	opts := server.Options{
		World:          game.NewWorld(cfg.AgentSpeed),
		Clock:          clock.Real(),
		SessionTimeout: cfg.SessionTimeout,
		PollWait:       cfg.PollWait,
		Logger:         logger.With("component", "server"),
	}

	if cfg.Demo.Wanderer {
		wanderer := game.NewWanderer(cfg.AgentSpeed, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), logger.With("component", "wanderer"))
		opts.Extras = append(opts.Extras, wanderer)
		tick.NewScheduler(loop, cfg.WorldPeriod, wanderer).Start()
	}

	var spectators sync.WaitGroup
	if cfg.Spectate.Addr != "" {
		hub := spectate.NewHub(logger.With("component", "spectate"))
		opts.Observer = hub
		spectators.Add(2)
		go func() {
			defer spectators.Done()
			hub.Run(ctx)
		}()
		go func() {
			defer spectators.Done()
			if err := hub.Serve(ctx, cfg.Spectate.Addr); err != nil {
				logger.Error("spectator feed stopped", "error", err)
			}
		}()
	}

	srv := server.New(conn, opts)
	defer srv.Close()
	tick.NewScheduler(loop, cfg.ServerPeriod, srv).Start()

	if cfg.Beacon.Enabled {
		bconn, err := beacon.Dial(cfg.Beacon.Port)
		if err != nil {
			logger.Warn("beacon disabled", "error", err)
		} else {
			b := beacon.New(bconn, logger.With("component", "beacon"))
			defer b.Close()
			tick.NewScheduler(loop, cfg.Beacon.Interval, b).Start()
		}
	}

	logger.Info("rallypoint server started",
		"addr", srv.Addr(),
		"server_period", cfg.ServerPeriod,
		"session_timeout", cfg.SessionTimeout,
		"spectate", cfg.Spectate.Addr,
	)

	err = loop.Run(ctx)
	stop()
	spectators.Wait()
	if err != nil {
		logger.Error("server stopped", "error", err)
		return err
	}
	logger.Info("server shut down")
	return nil
}
