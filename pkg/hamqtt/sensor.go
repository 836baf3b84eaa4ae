package hamqtt

import (
	"fmt"
)

// SensorInfo describes a read-only sensor entity.
type SensorInfo struct {
	EntityInfo
	UnitOfMeasurement         string `json:"unit_of_measurement,omitempty"`
	StateClass                string `json:"state_class,omitempty"`
	SuggestedDisplayPrecision *int   `json:"suggested_display_precision,omitempty"`
}

type sensorConfig struct {
	entityConfig
	StateTopic                string `json:"state_topic"`
	UnitOfMeasurement         string `json:"unit_of_measurement,omitempty"`
	StateClass                string `json:"state_class,omitempty"`
	SuggestedDisplayPrecision *int   `json:"suggested_display_precision,omitempty"`
}

// Sensor is a read-only entity publishing string or numeric states.
type Sensor struct {
	*Discoverable
	info *SensorInfo
}

func NewSensor(settings Settings, info SensorInfo) (*Sensor, error) {
	base, err := newDiscoverable(settings, &info.EntityInfo, "sensor")
	if err != nil {
		return nil, err
	}
	s := &Sensor{Discoverable: base, info: &info}
	base.configFn = func() any {
		return sensorConfig{
			entityConfig:              base.baseConfig(),
			StateTopic:                base.stateTopic,
			UnitOfMeasurement:         info.UnitOfMeasurement,
			StateClass:                info.StateClass,
			SuggestedDisplayPrecision: info.SuggestedDisplayPrecision,
		}
	}
	return s, nil
}

// SetState publishes a raw state value.
func (s *Sensor) SetState(state string) error {
	return s.stateHelper(state)
}

// SetNumericState publishes value formatted with the given number of
// decimal places.
func (s *Sensor) SetNumericState(value float64, decimals uint) error {
	format := fmt.Sprintf("%%.%df", decimals)
	return s.stateHelper(fmt.Sprintf(format, value))
}

const (
	payloadBinaryOn  = "on"
	payloadBinaryOff = "off"
)

// BinarySensorInfo describes a two-state sensor entity.
type BinarySensorInfo struct {
	EntityInfo
	// OffDelay, in seconds, makes the hub reset to off after the delay.
	OffDelay int `json:"off_delay,omitempty"`
}

type binarySensorConfig struct {
	entityConfig
	StateTopic string `json:"state_topic"`
	PayloadOn  string `json:"payload_on"`
	PayloadOff string `json:"payload_off"`
	OffDelay   int    `json:"off_delay,omitempty"`
}

// BinarySensor is a read-only entity with exactly two states.
type BinarySensor struct {
	*Discoverable
	info *BinarySensorInfo
}

func NewBinarySensor(settings Settings, info BinarySensorInfo) (*BinarySensor, error) {
	base, err := newDiscoverable(settings, &info.EntityInfo, "binary_sensor")
	if err != nil {
		return nil, err
	}
	b := &BinarySensor{Discoverable: base, info: &info}
	base.configFn = func() any {
		return binarySensorConfig{
			entityConfig: base.baseConfig(),
			StateTopic:   base.stateTopic,
			PayloadOn:    payloadBinaryOn,
			PayloadOff:   payloadBinaryOff,
			OffDelay:     info.OffDelay,
		}
	}
	return b, nil
}

// On publishes the on state.
func (b *BinarySensor) On() error { return b.UpdateState(true) }

// Off publishes the off state.
func (b *BinarySensor) Off() error { return b.UpdateState(false) }

// UpdateState publishes the given binary state.
func (b *BinarySensor) UpdateState(on bool) error {
	if on {
		return b.stateHelper(payloadBinaryOn)
	}
	return b.stateHelper(payloadBinaryOff)
}
