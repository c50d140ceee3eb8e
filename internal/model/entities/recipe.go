package entities

// Tank identifies one of the two concentrate stock solutions. The two are
// mixed separately so calcium and phosphates/sulphates never meet undiluted.
type Tank string

const (
	TankA Tank = "Tank A"
	TankB Tank = "Tank B"
)

// Tanks in display order.
var Tanks = []Tank{TankA, TankB}

// FertilizerAmount is grams of one fertilizer.
// In a base Recipe the grams refer to 1000 liters of final solution.
type FertilizerAmount struct {
	Name  string  `json:"name"`
	Grams float64 `json:"grams"`
}

// Formula is the ordered list of fertilizers dissolved in one tank.
type Formula []FertilizerAmount

// Grams returns the amount for the named fertilizer.
func (f Formula) Grams(name string) (float64, bool) {
	for _, a := range f {
		if a.Name == name {
			return a.Grams, true
		}
	}
	return 0, false
}

// Names returns fertilizer names in formula order.
func (f Formula) Names() []string {
	out := make([]string, 0, len(f))
	for _, a := range f {
		out = append(out, a.Name)
	}
	return out
}

// AsMap converts the formula to name -> grams (for JSON / telemetry).
func (f Formula) AsMap() map[string]float64 {
	m := make(map[string]float64, len(f))
	for _, a := range f {
		m[a.Name] = a.Grams
	}
	return m
}

// Recipe holds the two tank formulas for one growth stage.
type Recipe struct {
	Stage Stage   `json:"stage"`
	TankA Formula `json:"tank_a"`
	TankB Formula `json:"tank_b"`
}

// Formula returns the formula of the given tank; unknown tanks yield nil.
func (r Recipe) Formula(t Tank) Formula {
	switch t {
	case TankA:
		return r.TankA
	case TankB:
		return r.TankB
	default:
		return nil
	}
}

// Amount looks up grams for tank/fertilizer.
func (r Recipe) Amount(t Tank, fertilizer string) (float64, bool) {
	return r.Formula(t).Grams(fertilizer)
}
