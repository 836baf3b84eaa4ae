package config

import (
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel zapcore.Level
	MQTT     MQTTConfig   `mapstructure:"mqtt"`
	Player   PlayerConfig `mapstructure:"player"`

	Port    uint `mapstructure:"port"`
	HttpLog bool `mapstructure:"http_log"`
}

type MQTTConfig struct {
	Host            string
	Port            int
	Username        string
	Password        string
	ClientName      string `mapstructure:"client_name"`
	UseTLS          bool   `mapstructure:"use_tls"`
	StatePrefix     string `mapstructure:"state_prefix"`
	DiscoveryPrefix string `mapstructure:"discovery_prefix"`
}

type PlayerConfig struct {
	Name               string
	DeviceName         string   `mapstructure:"device_name"`
	Sources            []string `mapstructure:"sources"`
	TickIntervalMillis uint32   `mapstructure:"tick_interval_millis"`
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix topic prefix
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}
