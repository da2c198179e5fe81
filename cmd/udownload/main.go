package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"gocloud.dev/blob/fileblob"

	"github.com/udownload/udownload/internal/config"
	"github.com/udownload/udownload/internal/download"
	"github.com/udownload/udownload/internal/fetch"
	"github.com/udownload/udownload/internal/history"
	"github.com/udownload/udownload/internal/model"
	"github.com/udownload/udownload/internal/platform"
	"github.com/udownload/udownload/internal/retry"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

func main() {
	var (
		configPath   = flag.String("config", "", "path to config file (default ~/.udownload/config.yml)")
		outputDir    = flag.String("output", "", "output directory")
		audioOnly    = flag.Bool("audio", false, "extract audio only (mp3)")
		quality      = flag.String("quality", "", "video quality: best, 1080p, 720p, 480p, 360p")
		format       = flag.String("format", "", "container format: mp4, mkv, webm, original")
		parallel     = flag.Int("parallel", 0, "max parallel downloads (1-10)")
		retries      = flag.Int("retries", -1, "retries per download on transient failure")
		cookies      = flag.String("cookies", "", "browser to read cookies from")
		showHistory  = flag.Bool("history", false, "show download history and exit")
		showStats    = flag.Bool("stats", false, "show download statistics and exit")
		filterPlat   = flag.String("filter-platform", "", "filter history/stats by platform")
		successOnly  = flag.Bool("success-only", false, "only successful downloads in history")
		limit        = flag.Int("limit", 20, "max history entries to show")
		exportPath   = flag.String("export", "", "export history to the given file and exit")
		exportFormat = flag.String("export-format", history.FormatJSON, "export format: json or csv")
		clearHist    = flag.Bool("clear-history", false, "clear download history and exit")
	)
	flag.Parse()

	fmt.Printf("udownload v%s\n", version)

	cfg := loadConfig(*configPath)

	// Flags override config file and environment.
	cfg = cfg.Merge(config.Config{
		OutputDir:      *outputDir,
		AudioOnly:      *audioOnly,
		VideoQuality:   *quality,
		Format:         *format,
		CookiesBrowser: *cookies,
		MaxConcurrent:  *parallel,
	})
	if *retries >= 0 {
		cfg.MaxRetries = *retries
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	store, err := history.Open(cfg.HistoryFile)
	if err != nil {
		log.Fatalf("failed to open history: %v", err)
	}
	defer store.Close()

	filter := history.Filter{Platform: *filterPlat}
	if *successOnly {
		success := true
		filter.Success = &success
	}

	switch {
	case *showHistory:
		printHistory(store, filter, *limit)
		return
	case *showStats:
		printStats(store, filter)
		return
	case *exportPath != "":
		exportHistory(store, *exportPath, *exportFormat)
		return
	case *clearHist:
		if err := store.Clear(); err != nil {
			log.Fatalf("failed to clear history: %v", err)
		}
		fmt.Println("history cleared")
		return
	}

	urls := flag.Args()
	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "usage: udownload [flags] URL...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := platform.CreateDirectoryIfNotExists(cfg.OutputDir); err != nil {
		log.Fatalf("failed to ensure output dir: %v", err)
	}

	orch, err := download.New(
		download.Config{MaxParallel: cfg.MaxConcurrent},
		fetch.NewYTDLP(),
		retry.NewExponentialPolicy(cfg.Retry.Backoff, cfg.Retry.MaxBackoff),
		store,
	)
	if err != nil {
		log.Fatalf("failed to start downloader: %v", err)
	}

	events, unsubscribe := orch.Subscribe("")
	printerDone := make(chan struct{})
	go printEvents(events, printerDone)

	// Ctrl-C cancels everything in flight; tasks finish as Cancelled.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	go func() {
		<-interrupts
		fmt.Println("\ninterrupted, cancelling downloads...")
		orch.CancelAll()
	}()

	for _, url := range urls {
		req := model.DownloadRequest{
			URL:        url,
			Options:    cfg.Options(),
			MaxRetries: cfg.MaxRetries,
		}
		if _, err := orch.Submit(req); err != nil {
			log.Printf("failed to submit %s: %v", url, err)
		}
	}

	orch.WaitAll()
	orch.Shutdown()
	unsubscribe()
	<-printerDone

	failed := printSummary(orch.Tasks())
	if failed > 0 {
		os.Exit(1)
	}
}

// loadConfig builds the effective configuration: defaults, then the config
// file if present, then environment overrides.
func loadConfig(path string) config.Config {
	cfg := config.Default()

	explicit := path != ""
	if !explicit {
		path = config.DefaultConfigPath()
	}
	if loaded, err := config.LoadFromFile(path); err == nil {
		cfg = loaded
	} else if explicit {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := cfg.LoadFromEnv(); err != nil {
		log.Fatalf("failed to load environment config: %v", err)
	}
	return cfg
}

// printEvents renders the live event stream until the channel closes.
func printEvents(events <-chan download.Event, done chan<- struct{}) {
	defer close(done)

	lastPercent := make(map[string]int)
	for ev := range events {
		switch ev.Type {
		case download.EventStateChanged:
			switch ev.Task.Status {
			case model.TaskStatusRunning:
				fmt.Printf("[%s] downloading (attempt %d): %s\n",
					ev.Task.Platform, ev.Task.Attempt, ev.Task.Request.URL)
			case model.TaskStatusRetrying:
				fmt.Printf("[%s] retrying: %s (%s)\n",
					ev.Task.Platform, ev.Task.Request.URL, ev.Task.LastError)
			}
		case download.EventProgress:
			percent := int(ev.Task.Progress * 100)
			if percent/10 > lastPercent[ev.Task.ID]/10 {
				lastPercent[ev.Task.ID] = percent
				fmt.Printf("[%s] %3d%% %s\n", ev.Task.Platform, percent, ev.Task.GetDisplayTitle())
			}
		case download.EventTerminal:
			switch ev.Task.Status {
			case model.TaskStatusSucceeded:
				fmt.Printf("[%s] done: %s\n", ev.Task.Platform, ev.Task.GetDisplayTitle())
			case model.TaskStatusFailed:
				fmt.Printf("[%s] failed: %s (%s)\n", ev.Task.Platform, ev.Task.Request.URL, ev.Task.LastError)
			case model.TaskStatusCancelled:
				fmt.Printf("[%s] cancelled: %s\n", ev.Task.Platform, ev.Task.Request.URL)
			}
		case download.EventStoreWarning:
			fmt.Printf("warning: history not saved: %s\n", ev.Err)
		}
	}
}

// printSummary reports final task outcomes and returns the failure count.
func printSummary(tasks []model.DownloadTask) int {
	var succeeded, failed, cancelled int
	for _, task := range tasks {
		switch task.Status {
		case model.TaskStatusSucceeded:
			succeeded++
		case model.TaskStatusFailed:
			failed++
		case model.TaskStatusCancelled:
			cancelled++
		}
	}
	fmt.Printf("\n%d succeeded, %d failed, %d cancelled\n", succeeded, failed, cancelled)
	return failed
}

func printHistory(store *history.Store, filter history.Filter, limit int) {
	records := store.Query(filter)
	if len(records) > limit && limit > 0 {
		records = records[len(records)-limit:]
	}
	if len(records) == 0 {
		fmt.Println("no history")
		return
	}
	for _, rec := range records {
		status := "ok"
		if !rec.Success {
			status = "failed: " + rec.ErrorMessage
		}
		title := rec.Title
		if title == "" {
			title = rec.URL
		}
		fmt.Printf("%s  %-10s %-40s %s\n",
			rec.Timestamp.Format("2006-01-02 15:04"), rec.Platform, title, status)
	}
}

func printStats(store *history.Store, filter history.Filter) {
	stats := store.Stats(filter)
	fmt.Printf("total: %d  succeeded: %d  failed: %d  success rate: %.1f%%\n",
		stats.Total, stats.Succeeded, stats.Failed, stats.SuccessRate*100)
	for name, ps := range stats.PerPlatform {
		fmt.Printf("  %-10s total: %d  succeeded: %d  failed: %d\n",
			name, ps.Total, ps.Succeeded, ps.Failed)
	}
}

// exportHistory writes a full export next to the user via a fileblob
// bucket, so the same path works for any gocloud.dev backend.
func exportHistory(store *history.Store, path, format string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dir, key := filepath.Dir(path), filepath.Base(path)
	if err := platform.CreateDirectoryIfNotExists(dir); err != nil {
		log.Fatalf("failed to create export directory: %v", err)
	}

	bucket, err := fileblob.OpenBucket(dir, nil)
	if err != nil {
		log.Fatalf("failed to open export location: %v", err)
	}
	defer bucket.Close()

	if err := store.ExportToBucket(ctx, bucket, key, format); err != nil {
		log.Fatalf("failed to export history: %v", err)
	}
	fmt.Printf("exported %d records to %s\n", store.Len(), path)
}
