// Command lurker runs headless sessions of the noise-hunting enemy and its
// encounter director, optionally serving snapshots over HTTP.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/milk9111/lurker/internal/log"
	"github.com/milk9111/lurker/prefabs"
	"github.com/milk9111/lurker/telemetry"
)

type config struct {
	level        string
	ticks        int
	dt           float64
	sessions     int
	seed         int64
	telemetry    string
	publishEvery int
	watch        bool
	realtime     bool
	lethal       bool
	wander       bool
}

func main() {
	var cfg config
	flag.StringVar(&cfg.level, "level", prefabs.DefaultLevel, "level name in prefabs/levels (.yaml optional) or a path")
	flag.IntVar(&cfg.ticks, "ticks", 36000, "ticks per session")
	flag.Float64Var(&cfg.dt, "dt", 1.0/60, "seconds per tick")
	flag.IntVar(&cfg.sessions, "sessions", 1, "number of sessions to run")
	flag.Int64Var(&cfg.seed, "seed", 0, "random seed, 0 picks one from the clock")
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	flag.StringVar(&cfg.telemetry, "telemetry", "", "serve snapshots on this address, e.g. :8080")
	flag.IntVar(&cfg.publishEvery, "publish-every", 6, "ticks between telemetry snapshots")
	flag.BoolVar(&cfg.watch, "watch", false, "reload the level between sessions when its files change")
	flag.BoolVar(&cfg.realtime, "realtime", false, "sleep dt between ticks")
	flag.BoolVar(&cfg.lethal, "lethal", true, "attacks kill the player in reach")
	flag.BoolVar(&cfg.wander, "wander", true, "walk players between random waypoints")
	flag.Parse()

	log.Init(*logLevel)
	if cfg.seed == 0 {
		cfg.seed = time.Now().UnixNano()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error("lurker failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config) error {
	spec, err := prefabs.LoadLevelSpec(cfg.level)
	if err != nil {
		return err
	}

	var watcher *prefabs.Watcher
	if cfg.watch {
		dirs := prefabs.DefaultWatchDirs(cfg.level)
		if len(dirs) == 0 {
			log.Warn("nothing to watch, no override directories found", "root", prefabs.DiskRoot)
		} else if watcher, err = prefabs.NewWatcher(dirs...); err != nil {
			log.Warn("watch disabled", "err", err)
			watcher = nil
		} else {
			defer watcher.Close()
		}
	}

	var srv *telemetry.Server
	if cfg.telemetry != "" {
		srv = telemetry.NewServer()
		go func() {
			if err := srv.Run(ctx, cfg.telemetry); err != nil {
				log.Error("telemetry stopped", "err", err)
			}
		}()
	}

	for i := 0; i < cfg.sessions; i++ {
		if ctx.Err() != nil {
			return nil
		}
		if watcher != nil {
			if changed, files := watcher.Changed(); changed {
				spec = reload(cfg.level, spec, files)
			}
		}

		summary, err := runSession(ctx, spec, cfg, i, srv)
		if err != nil {
			return err
		}
		summary.log()
	}
	return nil
}

// reload keeps the previous spec when the new one does not load.
func reload(level string, prev *prefabs.LevelSpec, files []string) *prefabs.LevelSpec {
	next, err := prefabs.LoadLevelSpec(level)
	if err != nil {
		log.Warn("reload failed, keeping previous level", "level", level, "err", err)
		return prev
	}
	log.Info("level reloaded", "level", next.Name, "files", files)
	return next
}
