package hamqtt

import "errors"

var (
	// ErrInvalidValue marks a state value rejected before publishing.
	ErrInvalidValue = errors.New("invalid value")
	// ErrUnsupportedFeature marks an operation on a capability the entity
	// was not constructed with. Distinct from ErrInvalidValue so callers can
	// tell a bad value apart from a feature that was never offered.
	ErrUnsupportedFeature = errors.New("unsupported feature")
	// ErrNotConnected is returned by publish operations before Connect.
	ErrNotConnected = errors.New("not connected to MQTT broker")
)
