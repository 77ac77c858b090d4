package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/LuizLoyola/AATool/internal/net/identity"
	"github.com/LuizLoyola/AATool/internal/persistence/archive"
	"github.com/LuizLoyola/AATool/internal/persistence/indexdb"
	"github.com/LuizLoyola/AATool/internal/protocol"
	"github.com/LuizLoyola/AATool/internal/saves"
	"github.com/LuizLoyola/AATool/internal/tracker/catalog"
	"github.com/LuizLoyola/AATool/internal/tracker/progress"
	"github.com/LuizLoyola/AATool/internal/tracker/tuning"
	"github.com/LuizLoyola/AATool/internal/transport/ws"
)

func main() {
	var (
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tracker.yaml (default: <configs>/tracker.yaml)")
		savesDir   = flag.String("saves", "", "world save directory to track (overrides tuning)")
		dataDir    = flag.String("data", "", "runtime data directory (overrides tuning)")
		addr       = flag.String("addr", "", "overlay feed listen address (overrides tuning)")
		noResume   = flag.Bool("no_resume", false, "do not restore the latest archived snapshot on start")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[tracker] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tracker.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}
	if *savesDir != "" {
		tune.SavesDir = *savesDir
	}
	if *dataDir != "" {
		tune.DataDir = *dataDir
	}
	if *addr != "" {
		tune.ListenAddr = *addr
	}
	if tune.SavesDir == "" {
		logger.Fatalf("no save directory configured (tracker.yaml saves_dir or -saves)")
	}

	cat, err := catalog.Load(*configDir, catalog.Category(tune.Category), tune.GameVersion)
	if err != nil {
		logger.Fatalf("load catalog: %v", err)
	}
	logger.Printf("catalog %s/%s: %d advancements, %d blocks, %d deaths, %d pickups",
		tune.Category, tune.GameVersion,
		len(cat.Advancements), len(cat.Blocks), len(cat.Deaths), len(cat.Pickups))

	resolver := identity.NewResolver(logger)
	defer resolver.Close()

	var opts []progress.Option
	if tune.MainPlayer != "" {
		id, err := uuid.Parse(tune.MainPlayer)
		if err != nil {
			logger.Fatalf("bad main_player uuid: %v", err)
		}
		opts = append(opts, progress.WithMainPlayer(id))
	}
	if tune.MainPlayerName != "" {
		opts = append(opts, progress.WithMainPlayerName(tune.MainPlayerName))
	}

	logs := saves.NewLogReader(tune.InstanceDir)
	tracker := progress.NewTracker(cat, logs, resolver, opts...)

	archiveDir := filepath.Join(tune.DataDir, "archives")
	if !*noResume {
		if path := archive.Latest(archiveDir); path != "" {
			state, hdr, err := archive.Read(path)
			if err != nil {
				logger.Printf("resume %s: %v", path, err)
			} else {
				blob := progress.Encode(state, hdr.Category, hdr.Game)
				tracker.Restore(blob)
				logger.Printf("resumed snapshot from %s (%s/%s)", path, hdr.Category, hdr.Game)
			}
		}
	}

	var index *indexdb.SQLiteIndex
	if !tune.DisableDB {
		index, err = indexdb.OpenSQLite(filepath.Join(tune.DataDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer index.Close()
	}

	feed := ws.NewServer(logger)
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ws", feed.Handler())
	srv := &http.Server{Addr: tune.ListenAddr, Handler: mux}
	go func() {
		logger.Printf("overlay feed on %s", tune.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %v", err)
		}
	}()

	world := saves.NewWorldFolder(tune.SavesDir)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	interval := time.Duration(tune.PollIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	passes := 0
	for {
		select {
		case <-ctx.Done():
			logger.Printf("shutting down")
			shutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			_ = srv.Shutdown(shutdown)
			cancelShutdown()
			return
		case <-ticker.C:
			world.Refresh()
			if !tracker.Sync(world) {
				// A pass is still running; coalesce.
				continue
			}
			tracker.SyncDeathMessages()
			passes++

			state := tracker.State()
			if index != nil {
				index.RecordPass(state)
			}

			blob := tracker.EncodeState()
			msg, err := protocol.EncodeState(state.GameCategory, state.GameVersion, len(state.Players), blob)
			if err != nil {
				logger.Printf("encode feed: %v", err)
			} else {
				feed.Publish(msg)
			}

			if tune.ArchiveEveryPasses > 0 && passes%tune.ArchiveEveryPasses == 0 {
				if _, err := archive.Write(archiveDir, blob, state.GameCategory, state.GameVersion); err != nil {
					logger.Printf("archive: %v", err)
				}
			}
		}
	}
}
