package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/skirmish/skirmish/internal/core/config"
	"github.com/skirmish/skirmish/internal/core/flags"
	"github.com/skirmish/skirmish/internal/core/session"
	"github.com/skirmish/skirmish/internal/injector"
	"github.com/skirmish/skirmish/internal/server"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to simulation config yaml")
		listenAddr = flag.String("listen", "", "override HTTP listen address")
		demo       = flag.Bool("demo", false, "pre-populate a demo skirmish")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error loading config:", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	srvCfg := server.DefaultConfig()
	if *listenAddr != "" {
		srvCfg.ListenAddr = *listenAddr
	}

	sess := injector.ProvideSession(cfg)
	if *demo {
		if err := populateDemo(sess); err != nil {
			fmt.Fprintln(os.Stderr, "Error populating demo:", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv := server.New(srvCfg, sess, injector.ProvideLogger())

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	if err := srv.Start(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error starting server:", err)
		os.Exit(1)
	}

	<-stopCh
	cancel()
	if err := srv.Stop(); err != nil {
		fmt.Fprintln(os.Stderr, "Error stopping server:", err)
	}
}

// populateDemo registers a few kinds and drops two small warbands into
// the world so the websocket feed has something to show immediately.
func populateDemo(sess *session.Session) error {
	kinds := []struct {
		name     string
		capacity int
		arch     session.Archetype
	}{
		{"warrior", 8, session.Archetype{Static: flags.Melee | flags.Ally, MaxHP: 100, Attack: 15, Defense: 5}},
		{"archer", 8, session.Archetype{Static: flags.Ranged | flags.Ally, MaxHP: 70, Attack: 12, Defense: 2}},
		{"goblin", 16, session.Archetype{Static: flags.Melee | flags.Monster, MaxHP: 50, Attack: 8, Defense: 3}},
		{"skeleton", 16, session.Archetype{Static: flags.Ranged | flags.Monster, MaxHP: 40, Attack: 10, Defense: 1}},
		{"chicken", 4, session.Archetype{Static: flags.Melee | flags.Monster | flags.Passive, MaxHP: 10, Attack: 1, Defense: 0}},
	}
	for _, k := range kinds {
		if err := sess.RegisterKind(k.name, k.capacity, k.arch); err != nil {
			return err
		}
	}

	spawns := []struct {
		kind string
		x, y float64
	}{
		{"warrior", 400, 500}, {"warrior", 420, 540}, {"archer", 330, 520},
		{"goblin", 900, 500}, {"goblin", 920, 540}, {"skeleton", 980, 520},
		{"chicken", 660, 300},
	}
	for _, s := range spawns {
		if _, err := sess.Spawn(s.kind, s.x, s.y); err != nil {
			return err
		}
	}
	return nil
}
