package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/IliaW/page-watcher/config"
	"github.com/IliaW/page-watcher/internal/broker"
	"github.com/IliaW/page-watcher/internal/fetcher"
	"github.com/IliaW/page-watcher/internal/model"
	"github.com/IliaW/page-watcher/internal/worker"
	"github.com/lmittmann/tint"
)

var (
	cfg *config.Config
	log *slog.Logger
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg = config.MustLoad()
	log = setupLogger()

	jobs, err := model.BuildJobs(cfg.Resources)
	if err != nil {
		log.Error("failed to build jobs from config.", slog.String("err", err.Error()))
		os.Exit(1)
	}
	log.Info("starting application.", slog.String("env", cfg.Env), slog.Int("jobs", len(jobs)))

	pageFetcher := fetcher.NewDocumentFetcher(cfg.FetcherSettings, log)

	var resultChan chan *model.CycleResult
	kafkaWg := &sync.WaitGroup{}
	if cfg.KafkaSettings != nil && cfg.KafkaSettings.Producer != nil && cfg.KafkaSettings.Producer.Enabled {
		resultChan = make(chan *model.CycleResult, 100)
		kafkaWg.Add(1)
		go broker.NewKafkaProducer(kafkaWg, resultChan, log, cfg.KafkaSettings.Producer)
	}

	workerWg := &sync.WaitGroup{}
	panicChan := make(chan *worker.WatchWorker, len(jobs))
	for _, job := range jobs {
		w := &worker.WatchWorker{
			Job:        job,
			Fetcher:    pageFetcher,
			ResultChan: resultChan,
			PanicChan:  panicChan,
			Version:    cfg.Version,
			Log:        log,
			Wg:         workerWg,
		}
		workerWg.Add(1)
		go w.Run(ctx)
	}
	// Restart workers if they panic.
	go func() {
		for w := range panicChan {
			if ctx.Err() != nil {
				continue
			}
			workerWg.Add(1)
			go w.Run(ctx)
		}
	}()

	// Graceful shutdown.
	// 1. Stop scheduling new cycles on system call. In-flight cycles drain to completion
	// 2. Wait till all watch workers returned. Close resultChan
	// 3. Wait till the kafka producer flushed the remaining results
	<-ctx.Done()
	log.Info("stopping watcher...")
	workerWg.Wait()
	close(panicChan)
	log.Info("close panicChan.")
	if resultChan != nil {
		close(resultChan)
		log.Info("close resultChan.")
	}
	kafkaWg.Wait()
}

func setupLogger() *slog.Logger {
	resolvedLogLevel := func() slog.Level {
		envLogLevel := strings.ToLower(cfg.LogLevel)
		switch envLogLevel {
		case "info":
			return slog.LevelInfo
		case "error":
			return slog.LevelError
		default:
			return slog.LevelDebug
		}
	}

	replaceAttrs := func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == slog.SourceKey {
			source := a.Value.Any().(*slog.Source)
			source.File = filepath.Base(source.File)
		}
		return a
	}

	var logger *slog.Logger
	if strings.ToLower(cfg.LogType) == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			AddSource:   true,
			Level:       resolvedLogLevel(),
			ReplaceAttr: replaceAttrs}))
	} else {
		logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{
			AddSource:   true,
			Level:       resolvedLogLevel(),
			ReplaceAttr: replaceAttrs,
			NoColor:     false}))
	}

	slog.SetDefault(logger)
	logger.Debug("debug messages are enabled.")

	return logger
}
