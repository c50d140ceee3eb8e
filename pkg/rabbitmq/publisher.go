package rabbitmq

import (
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

var ErrPublishTimeout = errors.New("mqtt publish timeout")

// IPublisher interface defines the method to publish a message
type IPublisher interface {
	PublishMessage(message interface{}) error
	PublishToQos(topic string, qos byte, retained bool, message interface{}) error
	Close()
}

// Publisher holds the client and the default topic.
type Publisher struct {
	client  mqtt.Client
	topic   string
	timeout time.Duration
}

// NewPublisher creates a new Publisher instance using the shared MQTT client and topic
func NewPublisher(client mqtt.Client, topic string, timeout time.Duration) *Publisher {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Publisher{client: client, topic: topic, timeout: timeout}
}

// PublishMessage publishes on the default topic at QoS 0.
func (p *Publisher) PublishMessage(message interface{}) error {
	return p.PublishToQos(p.topic, 0, false, message)
}

// PublishToQos accepts string or []byte payloads.
func (p *Publisher) PublishToQos(topic string, qos byte, retained bool, message interface{}) error {
	switch message.(type) {
	case string, []byte:
	default:
		return fmt.Errorf("invalid message format %T, expected string or []byte", message)
	}
	if p.client == nil || !p.client.IsConnectionOpen() {
		return fmt.Errorf("publish on %s: client not connected", topic)
	}

	token := p.client.Publish(topic, qos, retained, message)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("publish on %s: %w", topic, ErrPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish message on %s: %w", topic, err)
	}
	return nil
}

// Close gracefully closes the MQTT connection for the publisher
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
