package hamqtt

import "errors"

// DeviceInfo describes the physical device an entity belongs to. Several
// entities may share the same DeviceInfo; Home Assistant groups them under
// one device as long as the identifiers match.
type DeviceInfo struct {
	Identifiers      []string `json:"identifiers"`
	Name             string   `json:"name,omitempty"`
	Manufacturer     string   `json:"manufacturer,omitempty"`
	Model            string   `json:"model,omitempty"`
	SWVersion        string   `json:"sw_version,omitempty"`
	HWVersion        string   `json:"hw_version,omitempty"`
	ViaDevice        string   `json:"via_device,omitempty"`
	ConfigurationURL string   `json:"configuration_url,omitempty"`
}

func (d *DeviceInfo) validate() error {
	if len(d.Identifiers) == 0 {
		return errors.New("device requires at least one identifier")
	}
	return nil
}
