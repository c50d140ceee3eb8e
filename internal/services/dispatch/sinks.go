package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/LeonardoBeccarini/fertigation/internal/model/messages"
	"github.com/LeonardoBeccarini/fertigation/pkg/rabbitmq"
)

// Sink riceve le ricette calcolate. Send deve rispettare ctx.
type Sink interface {
	Name() string
	Send(ctx context.Context, evt messages.RecipeCalculatedEvent) error
}

// MQTTSink pubblica la ricetta per i controller di dosaggio.
type MQTTSink struct {
	pub       rabbitmq.IPublisher
	topicTmpl string
	qos       byte
}

// NewMQTTSink: topicTmpl may contain {stage}, e.g. "fertigation/recipe/{stage}".
func NewMQTTSink(pub rabbitmq.IPublisher, topicTmpl string, qos byte) *MQTTSink {
	if strings.TrimSpace(topicTmpl) == "" {
		topicTmpl = "fertigation/recipe/{stage}"
	}
	return &MQTTSink{pub: pub, topicTmpl: topicTmpl, qos: qos}
}

func (s *MQTTSink) Name() string { return "mqtt" }

func (s *MQTTSink) Topic(stage string) string {
	return strings.NewReplacer("{stage}", stage).Replace(s.topicTmpl)
}

func (s *MQTTSink) Send(ctx context.Context, evt messages.RecipeCalculatedEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("mqtt: marshal event: %w", err)
	}
	return s.pub.PublishToQos(s.Topic(evt.Stage), s.qos, false, b)
}

// pointWriter è il sottoinsieme di api.WriteAPIBlocking che serve qui.
type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// InfluxSink scrive un punto di telemetria per ogni calcolo.
type InfluxSink struct {
	w           pointWriter
	measurement string
}

func NewInfluxSink(w pointWriter, measurement string) *InfluxSink {
	return &InfluxSink{w: w, measurement: measurement}
}

func (s *InfluxSink) Name() string { return "influx" }

func (s *InfluxSink) Send(ctx context.Context, evt messages.RecipeCalculatedEvent) error {
	if err := s.w.WritePoint(ctx, EventToPoint(s.measurement, evt)); err != nil {
		return fmt.Errorf("influx: write point: %w", err)
	}
	return nil
}
