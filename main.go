package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"estate_admin/config"
	"estate_admin/logging"
	"estate_admin/scheduler"
	"estate_admin/services"
	"estate_admin/storage"
	"estate_admin/tui"
	"estate_admin/tui/views"
	"estate_admin/workers"
)

var (
	daemonMode = flag.Bool("daemon", false, "Run watcher, backup worker and scheduler without the TUI")
)

// app bundles everything the commands and front-ends operate on.
type app struct {
	cfg      *config.Config
	kv       storage.KV
	accounts *services.AccountService
	listings *services.ListingService
	watcher  *workers.ListingWatcher
	backup   *workers.BackupWorker
	uploader workers.Uploader
}

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup always happens.
func run() int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 1
	}

	// The TUI owns the terminal and one-shot commands print their own
	// output, so only the daemon logs to stdout.
	logFile, err := logging.Setup(cfg.LogPath, *daemonMode)
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}
	logging.SetLevel(logging.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer a.kv.Close()

	if handled, err := a.runCommand(ctx); handled {
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	if *daemonMode {
		if err := a.runDaemon(ctx); err != nil {
			logging.Errorf("%v", err)
			return 1
		}
		return 0
	}

	if err := a.runTUI(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	kv, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	logging.Infof("Storage: %s", storage.Describe(cfg))

	creds, err := services.NewCredentialStore(cfg.CredentialScheme, kv)
	if err != nil {
		kv.Close()
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		kv:       kv,
		accounts: services.NewAccountService(kv, creds, cfg.AdminEmail),
		listings: services.NewListingService(kv),
		watcher:  workers.NewListingWatcher(kv),
	}
	a.listings.SetPublisher(a.watcher)

	if cfg.SampleDataPath != "" {
		samples, err := services.LoadSampleListings(cfg.SampleDataPath)
		if err != nil {
			kv.Close()
			return nil, fmt.Errorf("sample data: %w", err)
		}
		a.listings.SetSampleData(samples)
		logging.Infof("Loaded %d sample listings from %s", len(samples), cfg.SampleDataPath)
	}

	if cfg.Backup.S3.Enabled() {
		up, err := storage.NewS3Uploader(ctx, cfg.Backup.S3)
		if err != nil {
			kv.Close()
			return nil, fmt.Errorf("s3: %w", err)
		}
		a.uploader = up
		logging.Infof("Backups go to s3://%s/%s", cfg.Backup.S3.Bucket, cfg.Backup.Prefix)
	} else {
		a.uploader = workers.NewNoOpUploader()
		logging.Debugf("S3 not configured, snapshots are not stored")
	}
	a.backup = workers.NewBackupWorker(a.listings, a.accounts, a.uploader, cfg.Backup.Prefix)

	if cfg.Backup.Mirror.Enabled() {
		a.backup.SetMirror(storage.NewSupabaseMirror(&cfg.Backup.Mirror))
		logging.Infof("Listings are mirrored to %s/rest/v1/%s", cfg.Backup.Mirror.URL, cfg.Backup.Mirror.Table)
	}

	return a, nil
}

// startBackground seeds an empty catalog and starts the watcher, backup
// worker and scheduler. The returned scheduler must be stopped.
func (a *app) startBackground(ctx context.Context) (*scheduler.Scheduler, error) {
	if _, err := a.listings.InitializeSampleData(ctx); err != nil {
		logging.Warnf("Could not seed sample listings: %v", err)
	}

	go a.watcher.Run(ctx, a.cfg.WatchInterval)
	go a.backup.Run(ctx)

	sched := scheduler.New(a.cfg)
	sched.SetWorkers(a.backup, a.watcher)
	if err := sched.Start(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}
	return sched, nil
}

func (a *app) runDaemon(ctx context.Context) error {
	log.Println("Starting estate daemon...")

	a.watcher.SetLogger(func(level logging.Level, source, message string) {
		logging.Debugf("[%s] %s", source, message)
	})

	sched, err := a.startBackground(ctx)
	if err != nil {
		return err
	}

	events := a.watcher.Subscribe(ctx)
	log.Println("Daemon running. Press Ctrl+C to stop.")

	for {
		select {
		case e, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if e.ID != "" {
				logging.Infof("Listing %s: %s", e.Kind, e.ID)
			} else {
				logging.Infof("Listings %s", e.Kind)
			}
		case <-ctx.Done():
			log.Println("Shutting down...")
			sched.Stop()
			log.Println("Goodbye!")
			return nil
		}
	}
}

func (a *app) runTUI(ctx context.Context) error {
	activity := views.NewActivityLog()
	a.watcher.SetLogger(activity.Record)
	a.backup.SetLogger(activity.Record)

	sched, err := a.startBackground(ctx)
	if err != nil {
		return err
	}
	defer sched.Stop()

	return tui.Run(ctx, tui.Deps{
		Listings: a.listings,
		Accounts: a.accounts,
		Events:   a.watcher.Subscribe(ctx),
		Activity: activity,
		Backup:   sched.TriggerBackup,
		Refresh:  sched.TriggerRefresh,
	})
}
