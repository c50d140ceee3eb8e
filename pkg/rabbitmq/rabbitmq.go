package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// RabbitMQConfig: broker RabbitMQ con plugin MQTT.
type RabbitMQConfig struct {
	Host       string        `yaml:"host"`
	Port       int           `yaml:"port"`
	User       string        `yaml:"user"`
	Password   string        `yaml:"password"`
	ClientID   string        `yaml:"client_id"`
	MaxRetries int           `yaml:"max_retries"`
	MaxElapsed time.Duration `yaml:"max_elapsed"`
}

// NewRabbitMQConn apre la connessione MQTT con retry esponenziale e la chiude
// alla cancellazione di ctx.
func NewRabbitMQConn(ctx context.Context, cfg *RabbitMQConfig, log *zap.SugaredLogger) (mqtt.Client, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	connAddr := fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(connAddr)
	opts.SetUsername(cfg.User)
	opts.SetPassword(cfg.Password)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warnf("mqtt: connection lost: %v", err)
	})

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = cfg.MaxElapsed
	if bo.MaxElapsedTime <= 0 {
		bo.MaxElapsedTime = 10 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 5
	}

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			log.Warnf("mqtt: failed to connect to %s: %v", connAddr, token.Error())
			return token.Error()
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(maxRetries-1)), ctx))
	if err != nil {
		return nil, fmt.Errorf("could not establish MQTT connection after retries: %w", err)
	}

	log.Infof("mqtt: connected to %s", connAddr)

	go func() {
		<-ctx.Done()
		CloseRabbitMQConn(client, log)
	}()

	return client, nil
}

func CloseRabbitMQConn(client mqtt.Client, log *zap.SugaredLogger) {
	if client.IsConnected() {
		client.Disconnect(250)
		if log != nil {
			log.Infof("mqtt: connection closed")
		}
	}
}
