package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/telhawk-systems/cdm-normalizer/common/config"
	"github.com/telhawk-systems/cdm-normalizer/common/logging"
	"github.com/telhawk-systems/cdm-normalizer/common/messaging"
	natsclient "github.com/telhawk-systems/cdm-normalizer/common/messaging/nats"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/dlq"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/handlers"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/pipeline"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/server"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/service"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/setup"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default: $"+config.EnvConfigDir+"/config.yaml)")
	addr := flag.String("addr", "", "override listen address")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format).
		With(logging.Service("cdm-normalizer"))
	logging.SetDefault(logger)

	if err := run(cfg, *addr, logger); err != nil {
		logger.Error("normalizer exited", logging.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, addr string, logger *logging.Logger) error {
	if err := setup.ValidateOutput(cfg.Normalizer.Output); err != nil {
		return err
	}

	pc, err := setup.BuildPipelineConfig(cfg)
	if err != nil {
		return err
	}
	pipe, err := pipeline.New(pc, logger)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger.Info("pipeline ready",
		"formatters", len(pc.Formatters),
		"index_rules", len(pc.IndexRules),
		"role", pc.Role,
		"hostname_override", pc.HostnameOverride,
	)

	var queue *dlq.Queue
	if cfg.DLQ.Enabled {
		queue, err = dlq.NewQueue(cfg.DLQ.BasePath, logger)
		if err != nil {
			logger.Warn("failed to initialize DLQ, continuing without it", logging.Error(err))
		} else {
			logger.Info("DLQ enabled", "path", cfg.DLQ.BasePath)
		}
	} else {
		logger.Info("DLQ disabled")
	}

	var bus *natsclient.Client
	if cfg.NATS.Enabled || cfg.Normalizer.Output == setup.OutputNATS {
		natsCfg := natsclient.DefaultConfig()
		natsCfg.URL = cfg.NATS.URL
		natsCfg.MaxReconnects = cfg.NATS.MaxReconnects
		natsCfg.ReconnectWait = cfg.NATS.ReconnectWait

		bus, err = natsclient.NewClient(natsCfg, logger)
		if err != nil {
			return err
		}
		defer bus.Close()
		logger.Info("connected to NATS", "url", cfg.NATS.URL)
	}

	sink, err := buildSink(cfg, pipe, bus, queue, logger)
	if err != nil {
		return err
	}

	processor := service.NewProcessor(pipe, sink, queue, logger)
	if bus != nil {
		processor.SetBroker(bus)
	}

	var consumer *service.Consumer
	if cfg.NATS.Enabled {
		consumer = service.NewConsumer(bus, processor, cfg.NATS.Subject, cfg.NATS.Queue, logger)
		if err := consumer.Start(); err != nil {
			return err
		}
	}

	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	if addr != "" {
		listenAddr = addr
	}
	srv := &http.Server{
		Addr:         listenAddr,
		Handler:      server.NewRouter(handlers.NewProcessorHandler(processor, cfg.Server.MaxBodyBytes, logger)),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("normalizer listening", "addr", listenAddr, "output", sink.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if consumer != nil {
		if err := consumer.Stop(); err != nil {
			logger.Warn("failed to stop consumer", logging.Error(err))
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", logging.Error(err))
	}
	if err := sink.Close(shutdownCtx); err != nil {
		logger.Warn("failed to flush sink", logging.Error(err))
	}
	if osSink, ok := sink.(*storage.OpenSearchSink); ok {
		st := osSink.Stats()
		logger.Info("bulk indexer closed", "indexed", st.Indexed, "failed", st.Failed)
	}
	if bus != nil {
		if err := bus.Drain(); err != nil {
			logger.Warn("NATS drain failed", logging.Error(err))
		}
	}
	return nil
}

func buildSink(cfg *config.Config, pipe *pipeline.Pipeline, bus messaging.Publisher, queue *dlq.Queue, logger *logging.Logger) (storage.Sink, error) {
	switch cfg.Normalizer.Output {
	case setup.OutputNATS:
		return storage.NewPublishSink(bus, cfg.NATS.OutputSubject, pipe.IndexField()), nil
	case setup.OutputStdout:
		return storage.NewWriterSink(os.Stdout), nil
	default:
		oc := setup.OpenSearchConfig(cfg)
		oc.IndexField = pipe.IndexField()
		sink, err := storage.NewOpenSearchSink(oc, queue, logger)
		if err != nil {
			return nil, err
		}
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sink.Ping(pingCtx); err != nil {
			logger.Warn("OpenSearch not reachable yet, indexing will retry", logging.Error(err))
		} else if err := sink.EnsureTemplate(pingCtx); err != nil {
			logger.Warn("failed to install index template", logging.Error(err))
		}
		return sink, nil
	}
}
