package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aircare/purifier-agent/internal/controls"
	"github.com/aircare/purifier-agent/internal/service_registry"
	"github.com/aircare/purifier-agent/internal/services"
	"github.com/aircare/purifier-agent/internal/state"
	"github.com/aircare/purifier-agent/internal/telemetry"
	"github.com/aircare/purifier-agent/internal/utils"
	"github.com/aircare/purifier-agent/pkg/cloud"
	"github.com/aircare/purifier-agent/pkg/file"
	"github.com/aircare/purifier-agent/pkg/identity"
	"github.com/aircare/purifier-agent/pkg/mqtt"
	"github.com/aircare/purifier-agent/pkg/notify"
	"github.com/aircare/purifier-agent/pkg/transport"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	// Set up structured logging with JSON output
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Initialize file operations handler
	fileClient := file.NewFileService()

	// Load configuration from file
	config, err := utils.LoadConfig(*configPath, fileClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Load or generate the stable client-side device identity
	deviceInfo := identity.NewDeviceInfo(config.Device.IdentityFile, fileClient, logger)
	if err := deviceInfo.LoadDeviceInfo(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to load device identity")
	}

	// The state container owns endpoint config and all reconciled device
	// state; everything below receives it explicitly.
	container := state.NewContainer(state.Endpoint{
		Host:           config.Device.Host,
		Port:           config.Device.Port,
		RequestTimeout: time.Duration(config.Device.RequestTimeoutMs) * time.Millisecond,
	})

	device := transport.NewClient(container, logger)

	var store cloud.Store
	if config.Cloud.Enabled {
		store = cloud.NewClient(
			config.Cloud.URL,
			config.Cloud.AnonKey,
			time.Duration(config.Cloud.RequestTimeoutMs)*time.Millisecond,
			logger,
		)
	} else {
		logger.Warn().Msg("Cloud persistence is disabled; measurements will not be mirrored")
	}

	var notifier notify.Notifier
	if config.Alerts.Mailgun.Enabled {
		notifier = notify.NewMailgunNotifier(
			config.Alerts.Mailgun.Domain,
			config.Alerts.Mailgun.APIKey,
			config.Alerts.Mailgun.Sender,
			config.Alerts.Mailgun.Recipients,
			logger,
		)
	}

	var publisher mqtt.Publisher
	if config.Telemetry.MQTT.Enabled {
		mqttService := mqtt.NewService(fileClient, logger)
		clientID := config.Telemetry.MQTT.ClientID + "-" + uuid.New().String()
		if err := mqttService.Initialize(config.Telemetry.MQTT.Broker, clientID, config.Telemetry.MQTT.CACertificate); err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize MQTT connection")
		}
		defer mqttService.Disconnect(250)
		publisher = mqttService
	}

	mirror := telemetry.NewMirror(
		store,
		deviceInfo.GetDeviceID(),
		telemetry.ParseAlertPolicy(config.Telemetry.AlertPolicy),
		notifier,
		publisher,
		config.Telemetry.MQTT.Topic,
		byte(config.Telemetry.MQTT.QOS),
		logger,
	)

	syncService := services.NewSyncService(
		time.Duration(config.Sync.PollIntervalMs)*time.Millisecond,
		device,
		container,
		mirror,
		logger,
	)

	// The poll loop lives exactly as long as the device is reachable.
	connectivityService := services.NewConnectivityService(
		time.Duration(config.Connectivity.RetryIntervalMs)*time.Millisecond,
		device,
		container,
		func(connected bool) {
			if connected {
				if err := syncService.Start(); err != nil {
					logger.Debug().Err(err).Msg("Sync service already running")
				}
			} else {
				if err := syncService.Stop(); err != nil {
					logger.Debug().Err(err).Msg("Sync service already stopped")
				}
			}
		},
		logger,
	)

	// The dispatcher is handed to whatever control surface fronts the agent.
	_ = controls.NewDispatcher(device, container, logger)

	registry := service_registry.NewServiceRegistry(logger)
	registry.RegisterService("connectivity", connectivityService)

	if err := registry.StartServices(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start services")
	}
	logger.Info().Str("device_id", deviceInfo.GetDeviceID()).Msg("All services started successfully")

	// Handle graceful shutdown
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	logger.Info().Msg("Shutting down gracefully...")
	if err := registry.StopServices(); err != nil {
		logger.Error().Err(err).Msg("Service shutdown reported failures")
	}
	if err := syncService.Stop(); err != nil {
		logger.Debug().Err(err).Msg("Sync service already stopped")
	}
}
