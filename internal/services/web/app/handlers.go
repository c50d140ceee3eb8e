package app

import (
	"net/http"
	"strings"

	"github.com/LeonardoBeccarini/fertigation/internal/services/calculator"
	"github.com/LeonardoBeccarini/fertigation/internal/services/dispatch"
)

// HandleIndex: GET mostra il form con i default, POST calcola la ricetta.
func (s *Server) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		s.render(w, newPage(s.cfg.Table, userInput{Stage: DefaultStage, Volume: DefaultVolume}, nil))
	case http.MethodPost:
		s.handleCalculate(w, r)
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	// PostFormValue gestisce sia urlencoded che multipart
	in := userInput{
		Stage:  r.PostFormValue("growth_stage"),
		Volume: r.PostFormValue("tank_volume"),
	}

	res := s.cfg.Table.CalculateRaw(in.Stage, in.Volume)
	s.observe(res)
	s.log.Infof("web: calculation stage=%q volume=%q outcome=%s", in.Stage, in.Volume, res.Outcome)

	if res.OK() && s.cfg.Events != nil {
		if !s.cfg.Events.Submit(dispatch.NewEvent(res.Recipe, s.cfg.Now())) {
			s.log.Debugf("web: recipe event not queued stage=%s volume=%g", res.Recipe.Stage, res.Recipe.VolumeLiters)
		}
	}

	s.render(w, newPage(s.cfg.Table, in, &res))
}

func (s *Server) observe(res calculator.Result) {
	stage := "invalid"
	if res.OK() {
		stage = strings.ToLower(res.Recipe.Stage.String())
		s.metrics.volume.Observe(res.Recipe.VolumeLiters)
	}
	s.metrics.calculations.WithLabelValues(stage, string(res.Outcome)).Inc()
}
