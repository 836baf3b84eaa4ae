package hamqtt

import (
	"errors"
	"fmt"
	"math/rand"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const (
	defaultStatePrefix     = "hmd"
	defaultDiscoveryPrefix = "homeassistant"
)

// MQTTSettings configures the broker connection and the topic namespaces.
type MQTTSettings struct {
	Host     string
	Port     int
	Username string
	Password string
	// ClientName is the MQTT client id. A random suffix is appended so
	// several entities can share one broker without clashing.
	ClientName string
	UseTLS     bool
	// StatePrefix is the root of every derived state/command topic.
	StatePrefix string
	// DiscoveryPrefix is the root of the discovery config topic.
	DiscoveryPrefix string
	// Client, when set, is a caller-managed paho client reused by the
	// entity. Connection handling is then the caller's responsibility.
	Client mqtt.Client
}

// Settings wraps the MQTT settings plus the injected logger.
type Settings struct {
	MQTT   MQTTSettings
	Logger *zap.Logger
}

func (s *Settings) withDefaults() error {
	if s.MQTT.Client == nil && s.MQTT.Host == "" {
		return errors.New("mqtt host is required")
	}
	if s.MQTT.Port == 0 {
		if s.MQTT.UseTLS {
			s.MQTT.Port = 8883
		} else {
			s.MQTT.Port = 1883
		}
	}
	if s.MQTT.ClientName == "" {
		s.MQTT.ClientName = "entity2mqtt"
	}
	if s.MQTT.StatePrefix == "" {
		s.MQTT.StatePrefix = defaultStatePrefix
	}
	if s.MQTT.DiscoveryPrefix == "" {
		s.MQTT.DiscoveryPrefix = defaultDiscoveryPrefix
	}
	if s.Logger == nil {
		s.Logger = zap.NewNop()
	}
	return nil
}

// optsFromSettings builds paho client options with a last-will that marks
// the entity offline on an unclean disconnect.
func optsFromSettings(cfg MQTTSettings, willTopic string) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	scheme := "tcp"
	if cfg.UseTLS {
		scheme = "ssl"
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, cfg.Port))
	opts.SetClientID(fmt.Sprintf("%s_%d", cfg.ClientName, rand.Intn(1000)))
	if cfg.Username != "" && cfg.Password != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.WillEnabled = true
	opts.WillTopic = willTopic
	opts.WillPayload = []byte(PayloadOffline)
	opts.WillRetained = true
	opts.WillQos = 0
	return opts
}
