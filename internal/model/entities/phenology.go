package entities

import "strings"

// Stage è la fase fenologica della coltura che seleziona la ricetta base.
type Stage string

const (
	StageSeedling   Stage = "seedling"
	StageVegetative Stage = "vegetative"
	StageFlowering  Stage = "flowering"
	StageFruiting   Stage = "fruiting"
)

// ParseStage normalizza l'input utente (case-insensitive). Non valida:
// il controllo di appartenenza lo fa la tabella ricette.
func ParseStage(raw string) Stage {
	return Stage(strings.ToLower(raw))
}

func (s Stage) String() string { return string(s) }
