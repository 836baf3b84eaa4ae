package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adactor "github.com/berfenger/entity2mqtt/internal/adapter/actor"
	"github.com/berfenger/entity2mqtt/internal/config"
	"github.com/berfenger/entity2mqtt/internal/server"
	"github.com/berfenger/entity2mqtt/internal/util/actorutil"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/carlmjohnson/versioninfo"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {

	// load and print config
	cfg, err := initConfig()
	if err != nil {
		slog.Error("config errors", "error", err)
		return
	}
	safePrintConfig(*cfg)

	slog.Info("entity2mqtt bridge", "version", versioninfo.Short())

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	defer logger.Sync()

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return adactor.NewPlayerActor(cfg, logger)
	})
	pid, err := ctx.SpawnNamed(props, "player")
	if err != nil {
		return
	}

	server := server.NewServer(*cfg, ctx, pid)
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")

	ctx.Stop(pid)
	as.Shutdown()
}

func initConfig() (*config.Config, error) {

	// alias PORT => ENTITY2MQTT_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("ENTITY2MQTT_PORT", port)
	}

	setConfigDefaults()

	viper.SetEnvPrefix("entity2mqtt")
	viper.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	// parse log level
	switch viper.GetString("log_level") {
	case "trace":
		cfg.LogLevel = zap.DebugLevel
	case "debug":
		cfg.LogLevel = zap.DebugLevel
	case "info":
		cfg.LogLevel = zap.InfoLevel
	case "error":
		cfg.LogLevel = zap.ErrorLevel
	case "warn":
		cfg.LogLevel = zap.WarnLevel
	case "fatal":
		cfg.LogLevel = zap.FatalLevel
	default:
		cfg.LogLevel = zap.InfoLevel
	}

	// check and fix state topic prefix
	statePrefix, err := config.CheckMQTTTopic(cfg.MQTT.StatePrefix)
	if err != nil {
		return nil, errors.New("invalid state prefix. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.StatePrefix = statePrefix

	// check and fix homeassistant discovery topic
	discoveryPrefix, err := config.CheckMQTTTopic(cfg.MQTT.DiscoveryPrefix)
	if err != nil {
		return nil, errors.New("invalid discovery prefix. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.DiscoveryPrefix = discoveryPrefix

	// check bounds
	if cfg.MQTT.Host == "" {
		return nil, errors.New("config param mqtt.host is required")
	}
	if cfg.Player.Name == "" {
		return nil, errors.New("config param player.name is required")
	}
	if cfg.Player.TickIntervalMillis > 0 && cfg.Player.TickIntervalMillis < 500 {
		return nil, errors.New("config param player.tick_interval_millis should be >= 500")
	}

	return &cfg, nil
}

func setConfigDefaults() {
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("mqtt.state_prefix", "hmd")
	viper.SetDefault("mqtt.discovery_prefix", "homeassistant")
	viper.SetDefault("mqtt.client_name", "entity2mqtt")
	viper.SetDefault("player.name", "Demo Player")
	viper.SetDefault("player.device_name", "entity2mqtt demo")
	viper.SetDefault("player.tick_interval_millis", 1000)
	viper.SetDefault("port", 8080)
}

func safePrintConfig(cfg config.Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	slog.Info("Using", "config", cfg)
}
