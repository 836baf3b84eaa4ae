package hamqtt

import (
	"encoding/json"
	"fmt"
)

// ImageInfo describes an image entity fed by URL.
type ImageInfo struct {
	EntityInfo
	ContentType string `json:"content_type,omitempty"`
}

type imageConfig struct {
	entityConfig
	URLTopic    string `json:"url_topic"`
	ContentType string `json:"content_type,omitempty"`
}

// Image is an entity showing a picture fetched from a published URL.
type Image struct {
	*Discoverable
	info *ImageInfo
}

func NewImage(settings Settings, info ImageInfo) (*Image, error) {
	base, err := newDiscoverable(settings, &info.EntityInfo, "image")
	if err != nil {
		return nil, err
	}
	img := &Image{Discoverable: base, info: &info}
	base.configFn = func() any {
		return imageConfig{
			entityConfig: base.baseConfig(),
			URLTopic:     base.stateTopic,
			ContentType:  info.ContentType,
		}
	}
	return img, nil
}

// SetURL publishes the image URL the hub should fetch.
func (i *Image) SetURL(url string) error {
	if url == "" {
		return fmt.Errorf("%w: image URL must not be empty", ErrInvalidValue)
	}
	return i.stateHelper(url)
}

// CameraInfo describes a camera entity fed with raw image payloads.
type CameraInfo struct {
	EntityInfo
	// ImageEncoding is "b64" when images are published base64-encoded.
	ImageEncoding string `json:"image_encoding,omitempty"`
}

type cameraConfig struct {
	entityConfig
	Topic         string `json:"topic"`
	ImageEncoding string `json:"image_encoding,omitempty"`
}

// Camera is an entity whose state topic carries the image bytes themselves.
type Camera struct {
	*Discoverable
	info *CameraInfo
}

func NewCamera(settings Settings, info CameraInfo) (*Camera, error) {
	base, err := newDiscoverable(settings, &info.EntityInfo, "camera")
	if err != nil {
		return nil, err
	}
	c := &Camera{Discoverable: base, info: &info}
	base.configFn = func() any {
		return cameraConfig{
			entityConfig:  base.baseConfig(),
			Topic:         base.stateTopic,
			ImageEncoding: info.ImageEncoding,
		}
	}
	return c, nil
}

// PublishImage publishes one frame. Frames are not retained; a hub that
// joins late waits for the next one.
func (c *Camera) PublishImage(payload []byte) error {
	if len(payload) == 0 {
		return fmt.Errorf("%w: image payload must not be empty", ErrInvalidValue)
	}
	return c.publish(c.stateTopic, string(payload), false)
}

// DeviceTriggerInfo describes a device trigger. Unlike other entities a
// device trigger always belongs to a device and has a type/subtype pair
// instead of a state.
type DeviceTriggerInfo struct {
	EntityInfo
	Type    string `json:"type"`
	Subtype string `json:"subtype"`
	Payload string `json:"payload,omitempty"`
}

type deviceTriggerConfig struct {
	AutomationType string      `json:"automation_type"`
	Topic          string      `json:"topic"`
	Type           string      `json:"type"`
	Subtype        string      `json:"subtype"`
	Payload        string      `json:"payload,omitempty"`
	Device         *DeviceInfo `json:"device"`
}

// DeviceTrigger fires stateless events toward the hub's automations.
type DeviceTrigger struct {
	*Discoverable
	info *DeviceTriggerInfo
}

func NewDeviceTrigger(settings Settings, info DeviceTriggerInfo) (*DeviceTrigger, error) {
	if info.Type == "" || info.Subtype == "" {
		return nil, fmt.Errorf("%w: device trigger requires type and subtype", ErrInvalidValue)
	}
	if info.Device == nil {
		return nil, fmt.Errorf("%w: device trigger requires a device", ErrInvalidValue)
	}
	base, err := newDiscoverable(settings, &info.EntityInfo, "device_automation")
	if err != nil {
		return nil, err
	}
	t := &DeviceTrigger{Discoverable: base, info: &info}
	base.configFn = func() any {
		return deviceTriggerConfig{
			AutomationType: "trigger",
			Topic:          base.stateTopic,
			Type:           info.Type,
			Subtype:        info.Subtype,
			Payload:        info.Payload,
			Device:         info.Device,
		}
	}
	return t, nil
}

// Trigger fires the trigger once. Not retained: a trigger is an event, not
// a state.
func (t *DeviceTrigger) Trigger(payload string) error {
	if payload == "" {
		payload = t.info.Payload
	}
	return t.publish(t.stateTopic, payload, false)
}

// UpdateInfo describes a firmware/software update entity.
type UpdateInfo struct {
	EntityInfo
	Title       string `json:"title,omitempty"`
	ReleaseURL  string `json:"release_url,omitempty"`
	EntityImage string `json:"entity_picture,omitempty"`
}

type updateConfig struct {
	entityConfig
	StateTopic     string `json:"state_topic"`
	CommandTopic   string `json:"command_topic"`
	PayloadInstall string `json:"payload_install"`
	Title          string `json:"title,omitempty"`
	ReleaseURL     string `json:"release_url,omitempty"`
}

// updateState is the JSON state payload of an update entity.
type updateState struct {
	InstalledVersion string `json:"installed_version,omitempty"`
	LatestVersion    string `json:"latest_version,omitempty"`
	Title            string `json:"title,omitempty"`
	ReleaseURL       string `json:"release_url,omitempty"`
	EntityPicture    string `json:"entity_picture,omitempty"`
	InProgress       *bool  `json:"in_progress,omitempty"`
	UpdatePercentage *int   `json:"update_percentage,omitempty"`
}

// Update tracks an available software update and accepts install commands.
type Update struct {
	*Subscriber
	info  *UpdateInfo
	state updateState
}

func NewUpdate(settings Settings, info UpdateInfo, callback func(Message)) (*Update, error) {
	sub, err := newSubscriber(settings, &info.EntityInfo, "update", callback)
	if err != nil {
		return nil, err
	}
	u := &Update{Subscriber: sub, info: &info}
	u.state.Title = info.Title
	u.state.ReleaseURL = info.ReleaseURL
	u.state.EntityPicture = info.EntityImage
	sub.configFn = func() any {
		return updateConfig{
			entityConfig:   sub.baseConfig(),
			StateTopic:     sub.stateTopic,
			CommandTopic:   sub.commandTopic,
			PayloadInstall: "INSTALL",
			Title:          info.Title,
			ReleaseURL:     info.ReleaseURL,
		}
	}
	return u, nil
}

func (u *Update) publishState() error {
	payload, err := json.Marshal(u.state)
	if err != nil {
		return fmt.Errorf("could not encode update state: %w", err)
	}
	return u.stateHelper(string(payload))
}

// SetVersions publishes the installed and latest known versions.
func (u *Update) SetVersions(installed, latest string) error {
	u.state.InstalledVersion = installed
	u.state.LatestVersion = latest
	return u.publishState()
}

// SetProgress publishes install progress, range [0, 100].
func (u *Update) SetProgress(percentage int) error {
	if percentage < 0 || percentage > 100 {
		return fmt.Errorf("%w: progress must be between 0 and 100, got %d", ErrInvalidValue, percentage)
	}
	inProgress := percentage < 100
	u.state.InProgress = &inProgress
	u.state.UpdatePercentage = &percentage
	return u.publishState()
}
