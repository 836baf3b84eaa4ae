package hamqtt

import "errors"

// EntityInfo carries the identity fields shared by every entity kind. It is
// immutable once the entity has been constructed.
type EntityInfo struct {
	Name             string      `json:"name"`
	UniqueID         string      `json:"unique_id,omitempty"`
	ObjectID         string      `json:"object_id,omitempty"`
	Device           *DeviceInfo `json:"device,omitempty"`
	DeviceClass      string      `json:"device_class,omitempty"`
	EntityCategory   string      `json:"entity_category,omitempty"`
	Icon             string      `json:"icon,omitempty"`
	EnabledByDefault *bool       `json:"enabled_by_default,omitempty"`
}

// validate enforces the construction-time invariants. An entity attached to
// a device must carry a unique id, otherwise Home Assistant cannot link the
// two.
func (e *EntityInfo) validate() error {
	if e.Name == "" {
		return errors.New("entity requires a name")
	}
	if e.Device != nil {
		if e.UniqueID == "" {
			return errors.New("a unique_id is required if a device is defined")
		}
		if err := e.Device.validate(); err != nil {
			return err
		}
	}
	return nil
}
