package messages

import "time"

// RecipeCalculatedEvent è pubblicato dal web service dopo ogni calcolo riuscito,
// verso i controller di dosaggio (MQTT) e la telemetria (Influx).
type RecipeCalculatedEvent struct {
	Stage        string             `json:"stage"`
	VolumeLiters float64            `json:"volume_l"`
	TankA        map[string]float64 `json:"tank_a"` // grammi già scalati sul volume
	TankB        map[string]float64 `json:"tank_b"`
	Timestamp    time.Time          `json:"timestamp"`
}
