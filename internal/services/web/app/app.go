package app

import (
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/LeonardoBeccarini/fertigation/internal/model"
	"github.com/LeonardoBeccarini/fertigation/internal/services/calculator"
)

// Valori mostrati al primo caricamento della pagina
const (
	DefaultStage  = "seedling"
	DefaultVolume = "1000"
)

// EventSink riceve le ricette calcolate (implementato da dispatch.Dispatcher).
type EventSink interface {
	Submit(evt model.RecipeCalculatedEvent) bool
	States() map[string]string
}

type Config struct {
	Table  *calculator.Table
	Events EventSink // opzionale

	Logger     *zap.SugaredLogger
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer

	Now func() time.Time
}

type Server struct {
	cfg     Config
	log     *zap.SugaredLogger
	tmpl    *template.Template
	metrics *metrics
}

func NewServer(cfg Config) (*Server, error) {
	if cfg.Table == nil {
		cfg.Table = calculator.Default
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	if cfg.Registerer == nil || cfg.Gatherer == nil {
		reg := prometheus.NewRegistry()
		cfg.Registerer, cfg.Gatherer = reg, reg
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Server{
		cfg:     cfg,
		log:     cfg.Logger,
		tmpl:    tmpl,
		metrics: newMetrics(cfg.Registerer),
	}, nil
}

// Handler registra la pagina e gli endpoint operativi.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.HandleIndex)
	mux.Handle("/healthz", NewHealthHandler(s.cfg.Events))
	mux.Handle("/readyz", NewReadyHandler(s.tmpl != nil))
	mux.Handle("/metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{}))
	return mux
}
