package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"

	"github.com/aircare/purifier-agent/pkg/file"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// Publisher is the publish-side surface the telemetry mirror fans out to.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload any) error
	Disconnect(quiesce uint)
}

// Service maintains an optional broker connection used to fan out
// measurement samples. Device communication never goes through MQTT; the
// device contract stays poll-based HTTP.
type Service struct {
	client     mqtt.Client
	fileClient file.FileOperations
	logger     zerolog.Logger
}

// NewService creates a new MQTT publisher service.
func NewService(fileClient file.FileOperations, logger zerolog.Logger) *Service {
	return &Service{
		fileClient: fileClient,
		logger:     logger,
	}
}

// Initialize sets up the MQTT client and connects to the broker. When
// caCertPath is non-empty the connection is made over TLS with that CA.
func (s *Service) Initialize(broker, clientID, caCertPath string) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)

	if caCertPath != "" {
		caCert, err := s.fileClient.ReadFileRaw(caCertPath)
		if err != nil {
			return fmt.Errorf("failed to read CA certificate: %w", err)
		}

		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return fmt.Errorf("failed to append CA certificate")
		}
		opts.SetTLSConfig(&tls.Config{RootCAs: caCertPool})
	}

	client := mqtt.NewClient(opts)
	s.client = client

	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}

	s.logger.Info().Str("broker", broker).Msg("Connected to MQTT broker")
	return nil
}

// Publish sends a message to the specified topic and waits for the broker ack.
func (s *Service) Publish(topic string, qos byte, retained bool, payload any) error {
	token := s.client.Publish(topic, qos, retained, payload)
	token.Wait()
	return token.Error()
}

// Disconnect gracefully disconnects the MQTT client.
func (s *Service) Disconnect(quiesce uint) {
	if s.client != nil {
		s.client.Disconnect(quiesce)
	}
}
