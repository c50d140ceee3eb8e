package calculator

import (
	"strings"

	"github.com/LeonardoBeccarini/fertigation/internal/model/entities"
)

// Nomi fertilizzanti come mostrati all'utente
const (
	CalciumNitrate        = "Calcium Nitrate"
	PotassiumNitrate      = "Potassium Nitrate"
	MonoAmmoniumPhosphate = "Mono Ammonium Phosphate (MAP)"
	PotassiumSulphate     = "Potassium Sulphate"
	MagnesiumSulphate     = "Magnesium Sulphate"
	baseVolumeLiters      = 1000.0
	stageListSeparator    = ", "
)

// Table is an immutable, ordered set of base recipes (grams per 1000 L).
// Build it once and share it; nothing mutates it after NewTable returns.
type Table struct {
	recipes []entities.Recipe
	index   map[entities.Stage]int
}

// NewTable keeps the definition order of recipes, which is also the order
// used when listing valid stages. A later duplicate stage replaces the earlier one.
func NewTable(recipes ...entities.Recipe) *Table {
	t := &Table{index: make(map[entities.Stage]int, len(recipes))}
	for _, r := range recipes {
		r.Stage = entities.ParseStage(string(r.Stage))
		r.TankA = append(entities.Formula(nil), r.TankA...)
		r.TankB = append(entities.Formula(nil), r.TankB...)
		if i, ok := t.index[r.Stage]; ok {
			t.recipes[i] = r
			continue
		}
		t.index[r.Stage] = len(t.recipes)
		t.recipes = append(t.recipes, r)
	}
	return t
}

// Stages returns the valid stages in definition order.
func (t *Table) Stages() []entities.Stage {
	out := make([]entities.Stage, 0, len(t.recipes))
	for _, r := range t.recipes {
		out = append(out, r.Stage)
	}
	return out
}

// Lookup is case-insensitive.
func (t *Table) Lookup(stage string) (entities.Recipe, bool) {
	i, ok := t.index[entities.ParseStage(stage)]
	if !ok {
		return entities.Recipe{}, false
	}
	return t.recipes[i], true
}

func (t *Table) stageList() string {
	names := make([]string, 0, len(t.recipes))
	for _, s := range t.Stages() {
		names = append(names, s.String())
	}
	return strings.Join(names, stageListSeparator)
}

// Default è la tabella ricette del peperone in idroponica.
var Default = NewTable(
	entities.Recipe{
		Stage: entities.StageSeedling,
		TankA: entities.Formula{{Name: CalciumNitrate, Grams: 600}, {Name: PotassiumNitrate, Grams: 250}},
		TankB: entities.Formula{{Name: MonoAmmoniumPhosphate, Grams: 200}, {Name: PotassiumSulphate, Grams: 250}, {Name: MagnesiumSulphate, Grams: 300}},
	},
	entities.Recipe{
		Stage: entities.StageVegetative,
		TankA: entities.Formula{{Name: CalciumNitrate, Grams: 800}, {Name: PotassiumNitrate, Grams: 400}},
		TankB: entities.Formula{{Name: MonoAmmoniumPhosphate, Grams: 150}, {Name: PotassiumSulphate, Grams: 500}, {Name: MagnesiumSulphate, Grams: 400}},
	},
	entities.Recipe{
		Stage: entities.StageFlowering,
		TankA: entities.Formula{{Name: CalciumNitrate, Grams: 900}, {Name: PotassiumNitrate, Grams: 500}},
		TankB: entities.Formula{{Name: MonoAmmoniumPhosphate, Grams: 200}, {Name: PotassiumSulphate, Grams: 600}, {Name: MagnesiumSulphate, Grams: 450}},
	},
	entities.Recipe{
		Stage: entities.StageFruiting,
		TankA: entities.Formula{{Name: CalciumNitrate, Grams: 800}, {Name: PotassiumNitrate, Grams: 600}},
		TankB: entities.Formula{{Name: MonoAmmoniumPhosphate, Grams: 150}, {Name: PotassiumSulphate, Grams: 700}, {Name: MagnesiumSulphate, Grams: 450}},
	},
)
