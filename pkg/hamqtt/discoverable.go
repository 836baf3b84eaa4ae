package hamqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const (
	PayloadOnline  = "online"
	PayloadOffline = "offline"

	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// Message is the transport context handed to command callbacks.
type Message = mqtt.Message

// publisher is the slice of the paho client the state helpers need.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Discoverable is the common core of every entity kind: it owns the topic
// endpoints, the MQTT client and the discovery announce.
type Discoverable struct {
	settings  Settings
	info      *EntityInfo
	component string
	logger    *zap.Logger

	client mqtt.Client
	pub    publisher

	stateTopic        string
	availabilityTopic string
	configTopic       string

	// configFn builds the discovery payload for the concrete entity kind.
	configFn func() any
	// onConnect subscribes the entity's command topics. Runs on every
	// (re)connect, after the discovery config has been announced.
	onConnect func(client mqtt.Client)
}

func newDiscoverable(settings Settings, info *EntityInfo, component string) (*Discoverable, error) {
	if err := info.validate(); err != nil {
		return nil, err
	}
	if err := settings.withDefaults(); err != nil {
		return nil, err
	}
	deviceName := ""
	if info.Device != nil {
		deviceName = info.Device.Name
	}
	base := entityBasePath(component, deviceName, info.Name)
	d := &Discoverable{
		settings:          settings,
		info:              info,
		component:         component,
		logger:            settings.Logger.With(zap.String("entity", info.Name), zap.String("component", component)),
		stateTopic:        settings.MQTT.StatePrefix + "/" + base + "/state",
		availabilityTopic: settings.MQTT.StatePrefix + "/" + base + "/availability",
		configTopic:       settings.MQTT.DiscoveryPrefix + "/" + base + "/config",
	}
	if settings.MQTT.Client != nil {
		d.client = settings.MQTT.Client
		d.pub = settings.MQTT.Client
	}
	return d, nil
}

// entityConfig is the identity block shared by every discovery payload.
// Kind-specific config structs embed it and add their topic keys.
type entityConfig struct {
	Name                string      `json:"name"`
	ObjectID            string      `json:"object_id,omitempty"`
	UniqueID            string      `json:"unique_id,omitempty"`
	Device              *DeviceInfo `json:"device,omitempty"`
	DeviceClass         string      `json:"device_class,omitempty"`
	EntityCategory      string      `json:"entity_category,omitempty"`
	Icon                string      `json:"icon,omitempty"`
	EnabledByDefault    *bool       `json:"enabled_by_default,omitempty"`
	AvailabilityTopic   string      `json:"availability_topic"`
	PayloadAvailable    string      `json:"payload_available"`
	PayloadNotAvailable string      `json:"payload_not_available"`
}

func (d *Discoverable) baseConfig() entityConfig {
	return entityConfig{
		Name:                d.info.Name,
		ObjectID:            d.info.ObjectID,
		UniqueID:            d.info.UniqueID,
		Device:              d.info.Device,
		DeviceClass:         d.info.DeviceClass,
		EntityCategory:      d.info.EntityCategory,
		Icon:                d.info.Icon,
		EnabledByDefault:    d.info.EnabledByDefault,
		AvailabilityTopic:   d.availabilityTopic,
		PayloadAvailable:    PayloadOnline,
		PayloadNotAvailable: PayloadOffline,
	}
}

// StateTopic returns the derived state topic.
func (d *Discoverable) StateTopic() string { return d.stateTopic }

// AvailabilityTopic returns the derived availability topic.
func (d *Discoverable) AvailabilityTopic() string { return d.availabilityTopic }

// ConfigTopic returns the discovery config topic the announce is published to.
func (d *Discoverable) ConfigTopic() string { return d.configTopic }

// Connect establishes the broker connection (unless a caller-managed client
// was supplied), announces the discovery config and subscribes the command
// topics. Safe to call once; reconnect handling is left to paho.
func (d *Discoverable) Connect() error {
	if d.settings.MQTT.Client != nil {
		// caller-managed client: run the connect hook directly
		d.connected(d.client)
		return nil
	}
	opts := optsFromSettings(d.settings.MQTT, d.availabilityTopic)
	opts.OnConnect = func(client mqtt.Client) {
		d.connected(client)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		d.logger.Warn("MQTT connection lost", zap.Error(err))
	}
	client := mqtt.NewClient(opts)
	d.client = client
	d.pub = client
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return errors.New("MQTT connect timed out")
	}
	return token.Error()
}

func (d *Discoverable) connected(client mqtt.Client) {
	if err := d.WriteConfig(); err != nil {
		d.logger.Error("could not publish discovery config", zap.Error(err))
	}
	if d.onConnect != nil {
		d.onConnect(client)
	}
	if err := d.SetAvailability(true); err != nil {
		d.logger.Error("could not publish availability", zap.Error(err))
	}
}

// Close marks the entity offline and, for an owned client, disconnects.
func (d *Discoverable) Close() {
	if err := d.SetAvailability(false); err != nil {
		d.logger.Warn("could not publish offline state", zap.Error(err))
	}
	if d.settings.MQTT.Client == nil && d.client != nil {
		d.client.Disconnect(uint(publishTimeout.Milliseconds()))
	}
}

// WriteConfig publishes the retained discovery announce. Home Assistant
// infers the supported features from which topic keys are present.
func (d *Discoverable) WriteConfig() error {
	if d.configFn == nil {
		return errors.New("entity has no config generator")
	}
	payload, err := json.Marshal(d.configFn())
	if err != nil {
		return fmt.Errorf("could not encode discovery config: %w", err)
	}
	d.logger.Debug("publishing discovery config", zap.String("topic", d.configTopic))
	return d.publish(d.configTopic, string(payload), true)
}

// SetAvailability publishes online/offline, retained, so a late-joining hub
// sees the last-known availability.
func (d *Discoverable) SetAvailability(available bool) error {
	payload := PayloadOffline
	if available {
		payload = PayloadOnline
	}
	return d.publish(d.availabilityTopic, payload, true)
}

// stateHelper publishes a state value to the entity's state topic, retained.
func (d *Discoverable) stateHelper(state string) error {
	return d.publish(d.stateTopic, state, true)
}

func (d *Discoverable) publish(topic, payload string, retain bool) error {
	if d.pub == nil {
		return ErrNotConnected
	}
	token := d.pub.Publish(topic, 1, retain, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("MQTT publish to %s timed out", topic)
	}
	return token.Error()
}

// Subscriber extends Discoverable with a single command topic, for entity
// kinds that accept one command (switch, number, text, ...).
type Subscriber struct {
	Discoverable
	commandTopic string
	callback     func(Message)
}

func newSubscriber(settings Settings, info *EntityInfo, component string, callback func(Message)) (*Subscriber, error) {
	d, err := newDiscoverable(settings, info, component)
	if err != nil {
		return nil, err
	}
	deviceName := ""
	if info.Device != nil {
		deviceName = info.Device.Name
	}
	base := entityBasePath(component, deviceName, info.Name)
	s := &Subscriber{
		Discoverable: *d,
		commandTopic: d.settings.MQTT.StatePrefix + "/" + base + "/command",
		callback:     callback,
	}
	s.onConnect = func(client mqtt.Client) {
		token := client.Subscribe(s.commandTopic, 1, func(_ mqtt.Client, msg mqtt.Message) {
			s.handleCommand(msg)
		})
		if !token.WaitTimeout(publishTimeout) || token.Error() != nil {
			s.logger.Error("could not subscribe to command topic",
				zap.String("topic", s.commandTopic), zap.Error(token.Error()))
		}
	}
	return s, nil
}

// CommandTopic returns the derived command topic.
func (s *Subscriber) CommandTopic() string { return s.commandTopic }

// handleCommand invokes the registered callback. Callback panics are
// recovered so the paho network goroutine keeps serving messages.
func (s *Subscriber) handleCommand(msg Message) {
	if s.callback == nil {
		s.logger.Warn("command received but no callback registered",
			zap.String("topic", msg.Topic()))
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("command callback panicked", zap.Any("panic", r))
		}
	}()
	s.callback(msg)
}
