package util

import (
	"github.com/berfenger/entity2mqtt/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		MQTT: config.MQTTConfig{
			Host:            "localhost",
			Port:            1883,
			StatePrefix:     "hmd",
			DiscoveryPrefix: "homeassistant",
		},
		Player: config.PlayerConfig{
			Name:               "Test Player",
			DeviceName:         "Test Device",
			Sources:            []string{"Library", "Radio"},
			TickIntervalMillis: 1000,
		},
		Port: 8080,
	}
}
