package app

import (
	"bytes"
	"embed"
	"html/template"
	"math"
	"net/http"
	"strconv"
	"strings"
	"unicode"

	"github.com/LeonardoBeccarini/fertigation/internal/model/entities"
	"github.com/LeonardoBeccarini/fertigation/internal/services/calculator"
)

//go:embed templates/index.html
var templatesFS embed.FS

type userInput struct {
	Stage  string
	Volume string
}

type tankView struct {
	Name  entities.Tank
	Items entities.Formula
}

type pageData struct {
	Stages []string
	Input  userInput
	Result *calculator.Result
	Tanks  []tankView
}

var templateFuncs = template.FuncMap{
	"eqFold": strings.EqualFold,
	"title":  titleCase,
	"grams":  formatGrams,
}

func parseTemplates() (*template.Template, error) {
	return template.New("index.html").Funcs(templateFuncs).ParseFS(templatesFS, "templates/index.html")
}

// formatGrams mostra i grammi come li stampa Python: 600.0, 0.15, 266.67,
// 1e+16 (notazione esponenziale da 1e16 in su e sotto 1e-4).
func formatGrams(v float64) string {
	if abs := math.Abs(v); abs >= 1e16 || (abs != 0 && abs < 1e-4) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func titleCase(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func newPage(t *calculator.Table, in userInput, res *calculator.Result) pageData {
	p := pageData{Input: in, Result: res}
	for _, s := range t.Stages() {
		p.Stages = append(p.Stages, s.String())
	}
	if res != nil && res.OK() {
		for _, tank := range entities.Tanks {
			p.Tanks = append(p.Tanks, tankView{Name: tank, Items: res.Recipe.Formula(tank)})
		}
	}
	return p
}

// render esegue il template in un buffer: su errore 500 senza pagina a metà.
func (s *Server) render(w http.ResponseWriter, p pageData) {
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, p); err != nil {
		s.log.Errorf("web: render error: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
