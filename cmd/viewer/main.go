// Command viewer shows a live session in a window and lets you play the
// player with the keyboard.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/lurker/internal/log"
	"github.com/milk9111/lurker/prefabs"
	"github.com/milk9111/lurker/sim"
	"github.com/milk9111/lurker/telemetry"
	"golang.design/x/clipboard"
)

func main() {
	levelName := flag.String("level", prefabs.DefaultLevel, "level name in prefabs/levels (.yaml optional) or a path")
	seed := flag.Int64("seed", 1, "random seed")
	scale := flag.Float64("scale", 12, "pixels per world unit")
	lethal := flag.Bool("lethal", false, "attacks kill the player in reach")
	addr := flag.String("telemetry", "", "also serve snapshots on this address")
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Parse()

	log.Init(*logLevel)

	spec, err := prefabs.LoadLevelSpec(*levelName)
	if err != nil {
		log.Error("load level", "err", err)
		os.Exit(1)
	}

	opts := []sim.Option{sim.WithSeed(*seed)}
	if *lethal {
		opts = append(opts, sim.WithLethalAttacks())
	}
	s, err := sim.New(spec, opts...)
	if err != nil {
		log.Error("start session", "err", err)
		os.Exit(1)
	}
	defer s.Close()

	v := NewViewer(s, *scale)

	if err := clipboard.Init(); err != nil {
		log.Warn("clipboard unavailable", "err", err)
	} else {
		v.copy = func(report string) { clipboard.Write(clipboard.FmtText, []byte(report)) }
	}

	if *addr != "" {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		srv := telemetry.NewServer()
		v.publish = srv.Publish
		srv.SetAudio(s.Audio())
		go func() {
			if err := srv.Run(ctx, *addr); err != nil {
				log.Error("telemetry stopped", "err", err)
			}
		}()
	}

	w, h := v.Layout(0, 0)
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle("lurker: " + spec.Name)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(v); err != nil && err != ebiten.Termination {
		log.Error("viewer", "err", err)
		os.Exit(1)
	}
}
