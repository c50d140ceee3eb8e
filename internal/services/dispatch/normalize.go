package dispatch

import (
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/LeonardoBeccarini/fertigation/internal/model/entities"
	"github.com/LeonardoBeccarini/fertigation/internal/model/messages"
	"github.com/LeonardoBeccarini/fertigation/internal/services/calculator"
)

// NewEvent costruisce l'evento da una ricetta calcolata.
func NewEvent(r *calculator.CalculatedRecipe, at time.Time) messages.RecipeCalculatedEvent {
	return messages.RecipeCalculatedEvent{
		Stage:        r.Stage.String(),
		VolumeLiters: r.VolumeLiters,
		TankA:        r.Formula(entities.TankA).AsMap(),
		TankB:        r.Formula(entities.TankB).AsMap(),
		Timestamp:    at.UTC(),
	}
}

// EventToPoint normalizza l'evento in un *write.Point: tag stage, un field per
// fertilizzante ("tank_a_calcium_nitrate") più volume_l.
func EventToPoint(measurement string, evt messages.RecipeCalculatedEvent) *write.Point {
	if measurement == "" {
		measurement = "fertigation_calculation"
	}
	tags := map[string]string{"stage": evt.Stage}

	fields := map[string]interface{}{"volume_l": evt.VolumeLiters}
	for name, g := range evt.TankA {
		fields[sanitizeKey("tank_a_"+name)] = g
	}
	for name, g := range evt.TankB {
		fields[sanitizeKey("tank_b_"+name)] = g
	}

	t := evt.Timestamp
	if t.IsZero() {
		t = time.Now()
	}
	return influxdb2.NewPoint(sanitizeKey(measurement), tags, fields, t)
}

// sanitizeKey: minuscole, [a-z0-9_] soltanto, niente underscore doppi o ai bordi.
func sanitizeKey(s string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
