package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/LeonardoBeccarini/fertigation/internal/services/calculator"
	"github.com/LeonardoBeccarini/fertigation/internal/services/dispatch"
	"github.com/LeonardoBeccarini/fertigation/internal/services/web/app"
	"github.com/LeonardoBeccarini/fertigation/pkg/rabbitmq"
)

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	return config.Build()
}

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "optional YAML config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("can not read configuration: %v", err)
	}

	zl, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	logger := zl.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// --- Sink opzionali: MQTT verso i controller, Influx per la telemetria ---
	var sinks []dispatch.Sink

	if cfg.MQTT.Enabled {
		mqCfg := &rabbitmq.RabbitMQConfig{
			Host:     cfg.MQTT.Host,
			Port:     cfg.MQTT.Port,
			User:     cfg.MQTT.User,
			Password: cfg.MQTT.Password,
			ClientID: cfg.MQTT.ClientID,
		}
		client, err := rabbitmq.NewRabbitMQConn(ctx, mqCfg, logger)
		if err != nil {
			// il calcolatore funziona anche senza broker
			logger.Warnf("web: mqtt disabled: %v", err)
		} else {
			pub := rabbitmq.NewPublisher(client, "", timeout)
			defer pub.Close()
			sinks = append(sinks, dispatch.NewMQTTSink(pub, cfg.MQTT.TopicTemplate, byte(cfg.MQTT.QoS)))
		}
	}

	if cfg.Influx.Enabled() {
		influx := influxdb2.NewClient(cfg.Influx.URL, cfg.Influx.Token)
		defer influx.Close()
		writeAPI := influx.WriteAPIBlocking(cfg.Influx.Org, cfg.Influx.Bucket)
		sinks = append(sinks, dispatch.NewInfluxSink(writeAPI, cfg.Influx.Measurement))
	}

	disp := dispatch.New(dispatch.Config{
		QueueSize:       cfg.DispatchQueue,
		DedupTTL:        time.Duration(cfg.DedupTTLMs) * time.Millisecond,
		SendTimeout:     timeout,
		BreakerFailures: cfg.Breaker.Fails,
		BreakerOpenFor:  time.Duration(cfg.Breaker.OpenMs) * time.Millisecond,
		BreakerInterval: time.Duration(cfg.Breaker.IntervalMs) * time.Millisecond,
		Logger:          logger,
		Registerer:      reg,
	}, sinks...)

	var events app.EventSink
	if disp.Enabled() {
		events = disp
		go disp.Run(ctx)
	}

	srv, err := app.NewServer(app.Config{
		Table:      calculator.Default,
		Events:     events,
		Logger:     logger,
		Registerer: reg,
		Gatherer:   reg,
	})
	if err != nil {
		logger.Fatalf("web: init failed: %v", err)
	}

	hs := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Infof("web: HTTP listening on :%s (sinks=%d)", cfg.Port, len(sinks))
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()
	stop()

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = hs.Shutdown(shCtx)
	logger.Infof("web: shutdown complete")
}
