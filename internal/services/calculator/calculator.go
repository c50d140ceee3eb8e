package calculator

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/LeonardoBeccarini/fertigation/internal/model/entities"
)

// Outcome classifica il risultato di una richiesta (usato anche come label metriche).
type Outcome string

const (
	OutcomeOK                Outcome = "ok"
	OutcomeInvalidStage      Outcome = "invalid_stage"
	OutcomeNonNumericVolume  Outcome = "non_numeric_volume"
	OutcomeNonPositiveVolume Outcome = "non_positive_volume"
)

var (
	ErrInvalidStage      = errors.New("invalid growth stage")
	ErrNonNumericVolume  = errors.New("tank volume is not a number")
	ErrNonPositiveVolume = errors.New("tank volume is not positive")
)

// Messaggi mostrati all'utente
const (
	MsgNonNumericVolume  = "Error: Please enter a valid number for the tank volume."
	MsgNonPositiveVolume = "Error: Tank volume must be a positive number."
)

// CalculatedRecipe is a base recipe scaled to a concrete tank volume.
type CalculatedRecipe struct {
	entities.Recipe
	VolumeLiters float64 `json:"volume_l"`
}

// Result is either a CalculatedRecipe (Outcome ok) or a user-facing Message.
type Result struct {
	Outcome Outcome
	Recipe  *CalculatedRecipe
	Message string
}

func (r Result) OK() bool { return r.Outcome == OutcomeOK && r.Recipe != nil }

// Err returns nil for a successful result, otherwise an error wrapping the
// sentinel of the failure kind.
func (r Result) Err() error {
	var base error
	switch r.Outcome {
	case OutcomeOK:
		return nil
	case OutcomeInvalidStage:
		base = ErrInvalidStage
	case OutcomeNonNumericVolume:
		base = ErrNonNumericVolume
	case OutcomeNonPositiveVolume:
		base = ErrNonPositiveVolume
	default:
		base = errors.New("unknown outcome")
	}
	return fmt.Errorf("%w: %s", base, r.Message)
}

// Calculate scales the base recipe of stage to volume liters.
// An unknown stage is reported in the Result, never as a panic.
func (t *Table) Calculate(stage string, volume float64) Result {
	base, ok := t.Lookup(stage)
	if !ok {
		return Result{
			Outcome: OutcomeInvalidStage,
			Message: fmt.Sprintf("Error: Invalid growth_stage '%s'. Please use one of: %s.", stage, t.stageList()),
		}
	}

	factor := volume / baseVolumeLiters
	out := &CalculatedRecipe{
		Recipe: entities.Recipe{
			Stage: base.Stage,
			TankA: scale(base.TankA, factor),
			TankB: scale(base.TankB, factor),
		},
		VolumeLiters: volume,
	}
	return Result{Outcome: OutcomeOK, Recipe: out}
}

// Calculate uses the Default table.
func Calculate(stage string, volume float64) Result {
	return Default.Calculate(stage, volume)
}

func scale(f entities.Formula, factor float64) entities.Formula {
	out := make(entities.Formula, 0, len(f))
	for _, a := range f {
		out = append(out, entities.FertilizerAmount{Name: a.Name, Grams: Round2(a.Grams * factor)})
	}
	return out
}

// Round2 arrotonda a 2 decimali, metà lontano da zero.
// Da 1e15 in su il passo di un float64 supera 0.01 e x*100 può andare in overflow.
func Round2(x float64) float64 {
	if math.Abs(x) >= 1e15 || math.IsNaN(x) {
		return x
	}
	return math.Round(x*100) / 100
}

// ParseVolume validates an untrusted tank_volume field. Surrounding spaces
// are ignored; NaN and infinities are not valid numbers.
func ParseVolume(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNonNumericVolume
	}
	if v <= 0 {
		return 0, ErrNonPositiveVolume
	}
	return v, nil
}

// FromVolumeError maps a ParseVolume error to the Result shown to the user.
func FromVolumeError(err error) Result {
	switch {
	case errors.Is(err, ErrNonPositiveVolume):
		return Result{Outcome: OutcomeNonPositiveVolume, Message: MsgNonPositiveVolume}
	default:
		return Result{Outcome: OutcomeNonNumericVolume, Message: MsgNonNumericVolume}
	}
}

// CalculateRaw parses the volume then calculates; both web form and CLI go through here.
func (t *Table) CalculateRaw(stage, rawVolume string) Result {
	v, err := ParseVolume(rawVolume)
	if err != nil {
		return FromVolumeError(err)
	}
	return t.Calculate(stage, v)
}
