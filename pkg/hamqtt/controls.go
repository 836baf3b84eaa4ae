package hamqtt

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
)

// SwitchInfo describes a switch entity.
type SwitchInfo struct {
	EntityInfo
	Optimistic bool `json:"optimistic,omitempty"`
}

type switchConfig struct {
	entityConfig
	StateTopic   string `json:"state_topic"`
	CommandTopic string `json:"command_topic"`
	PayloadOn    string `json:"payload_on"`
	PayloadOff   string `json:"payload_off"`
	Optimistic   bool   `json:"optimistic,omitempty"`
}

// Switch is a two-state entity the hub can command. The callback receives
// the raw "ON"/"OFF" payload.
type Switch struct {
	*Subscriber
	info *SwitchInfo
}

func NewSwitch(settings Settings, info SwitchInfo, callback func(Message)) (*Switch, error) {
	sub, err := newSubscriber(settings, &info.EntityInfo, "switch", callback)
	if err != nil {
		return nil, err
	}
	sw := &Switch{Subscriber: sub, info: &info}
	sub.configFn = func() any {
		return switchConfig{
			entityConfig: sub.baseConfig(),
			StateTopic:   sub.stateTopic,
			CommandTopic: sub.commandTopic,
			PayloadOn:    "ON",
			PayloadOff:   "OFF",
			Optimistic:   info.Optimistic,
		}
	}
	return sw, nil
}

// On reports the switch as on.
func (s *Switch) On() error { return s.stateHelper("ON") }

// Off reports the switch as off.
func (s *Switch) Off() error { return s.stateHelper("OFF") }

// UpdateState reports the given switch state.
func (s *Switch) UpdateState(on bool) error {
	if on {
		return s.On()
	}
	return s.Off()
}

// ButtonInfo describes a stateless button entity.
type ButtonInfo struct {
	EntityInfo
	// PayloadPress overrides the press payload, default "PRESS".
	PayloadPress string `json:"payload_press,omitempty"`
}

type buttonConfig struct {
	entityConfig
	CommandTopic string `json:"command_topic"`
	PayloadPress string `json:"payload_press,omitempty"`
}

// Button is a stateless entity that only receives press commands.
type Button struct {
	*Subscriber
	info *ButtonInfo
}

func NewButton(settings Settings, info ButtonInfo, callback func(Message)) (*Button, error) {
	sub, err := newSubscriber(settings, &info.EntityInfo, "button", callback)
	if err != nil {
		return nil, err
	}
	b := &Button{Subscriber: sub, info: &info}
	sub.configFn = func() any {
		return buttonConfig{
			entityConfig: sub.baseConfig(),
			CommandTopic: sub.commandTopic,
			PayloadPress: info.PayloadPress,
		}
	}
	return b, nil
}

// TextInfo describes a free-form text entity.
type TextInfo struct {
	EntityInfo
	// Min and Max bound the accepted text length. The discovery convention
	// caps Max at 255.
	Min int `json:"min,omitempty"`
	Max int `json:"max,omitempty"`
}

type textConfig struct {
	entityConfig
	StateTopic   string `json:"state_topic"`
	CommandTopic string `json:"command_topic"`
	Min          int    `json:"min,omitempty"`
	Max          int    `json:"max,omitempty"`
}

// Text is a string-valued entity the hub can write to.
type Text struct {
	*Subscriber
	info *TextInfo
}

func NewText(settings Settings, info TextInfo, callback func(Message)) (*Text, error) {
	if info.Max == 0 {
		info.Max = 255
	}
	if info.Min < 0 || info.Max > 255 || info.Min > info.Max {
		return nil, fmt.Errorf("%w: text length bounds [%d, %d] out of range", ErrInvalidValue, info.Min, info.Max)
	}
	sub, err := newSubscriber(settings, &info.EntityInfo, "text", callback)
	if err != nil {
		return nil, err
	}
	t := &Text{Subscriber: sub, info: &info}
	sub.configFn = func() any {
		return textConfig{
			entityConfig: sub.baseConfig(),
			StateTopic:   sub.stateTopic,
			CommandTopic: sub.commandTopic,
			Min:          info.Min,
			Max:          info.Max,
		}
	}
	return t, nil
}

// SetText publishes the current text, enforcing the length bounds.
func (t *Text) SetText(text string) error {
	if len(text) < t.info.Min || len(text) > t.info.Max {
		return fmt.Errorf("%w: text length %d outside bounds [%d, %d]",
			ErrInvalidValue, len(text), t.info.Min, t.info.Max)
	}
	return t.stateHelper(text)
}

// NumberInfo describes a numeric entity with a bounded range.
type NumberInfo struct {
	EntityInfo
	Min  float64 `json:"min,omitempty"`
	Max  float64 `json:"max,omitempty"`
	Step float64 `json:"step,omitempty"`
	// Mode is how the hub renders the control: "auto", "box" or "slider".
	Mode string `json:"mode,omitempty"`
}

type numberConfig struct {
	entityConfig
	StateTopic   string  `json:"state_topic"`
	CommandTopic string  `json:"command_topic"`
	Min          float64 `json:"min,omitempty"`
	Max          float64 `json:"max,omitempty"`
	Step         float64 `json:"step,omitempty"`
	Mode         string  `json:"mode,omitempty"`
}

// Number is a numeric entity the hub can write to.
type Number struct {
	*Subscriber
	info *NumberInfo
}

func NewNumber(settings Settings, info NumberInfo, callback func(Message)) (*Number, error) {
	if info.Max != 0 && info.Min > info.Max {
		return nil, fmt.Errorf("%w: number range [%v, %v] is inverted", ErrInvalidValue, info.Min, info.Max)
	}
	sub, err := newSubscriber(settings, &info.EntityInfo, "number", callback)
	if err != nil {
		return nil, err
	}
	n := &Number{Subscriber: sub, info: &info}
	sub.configFn = func() any {
		return numberConfig{
			entityConfig: sub.baseConfig(),
			StateTopic:   sub.stateTopic,
			CommandTopic: sub.commandTopic,
			Min:          info.Min,
			Max:          info.Max,
			Step:         info.Step,
			Mode:         info.Mode,
		}
	}
	return n, nil
}

// SetValue publishes the current value, enforcing the configured range.
// Non-finite values are always rejected.
func (n *Number) SetValue(value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) ||
		value < n.info.Min || (n.info.Max != 0 && value > n.info.Max) {
		return fmt.Errorf("%w: value %v outside range [%v, %v]",
			ErrInvalidValue, value, n.info.Min, n.info.Max)
	}
	return n.stateHelper(strconv.FormatFloat(value, 'f', -1, 64))
}

// SelectInfo describes a select entity with a closed option set.
type SelectInfo struct {
	EntityInfo
	Options []string `json:"options"`
}

type selectConfig struct {
	entityConfig
	StateTopic   string   `json:"state_topic"`
	CommandTopic string   `json:"command_topic"`
	Options      []string `json:"options"`
}

// Select is an entity whose state is one of a fixed option list.
type Select struct {
	*Subscriber
	info *SelectInfo
}

func NewSelect(settings Settings, info SelectInfo, callback func(Message)) (*Select, error) {
	if len(info.Options) == 0 {
		return nil, fmt.Errorf("%w: select requires at least one option", ErrInvalidValue)
	}
	sub, err := newSubscriber(settings, &info.EntityInfo, "select", callback)
	if err != nil {
		return nil, err
	}
	sel := &Select{Subscriber: sub, info: &info}
	sub.configFn = func() any {
		return selectConfig{
			entityConfig: sub.baseConfig(),
			StateTopic:   sub.stateTopic,
			CommandTopic: sub.commandTopic,
			Options:      info.Options,
		}
	}
	return sel, nil
}

// SelectOption publishes the selected option, which must be in the
// configured option list.
func (s *Select) SelectOption(option string) error {
	if !slices.Contains(s.info.Options, option) {
		return fmt.Errorf("%w: option %q is not in the option list", ErrInvalidValue, option)
	}
	return s.stateHelper(option)
}

// LightInfo describes a light entity using the JSON schema.
type LightInfo struct {
	EntityInfo
	Brightness          bool     `json:"brightness,omitempty"`
	ColorMode           bool     `json:"color_mode,omitempty"`
	SupportedColorModes []string `json:"supported_color_modes,omitempty"`
	Effect              bool     `json:"effect,omitempty"`
	EffectList          []string `json:"effect_list,omitempty"`
}

type lightConfig struct {
	entityConfig
	Schema              string   `json:"schema"`
	StateTopic          string   `json:"state_topic"`
	CommandTopic        string   `json:"command_topic"`
	Brightness          bool     `json:"brightness,omitempty"`
	ColorMode           bool     `json:"color_mode,omitempty"`
	SupportedColorModes []string `json:"supported_color_modes,omitempty"`
	Effect              bool     `json:"effect,omitempty"`
	EffectList          []string `json:"effect_list,omitempty"`
}

type lightState struct {
	State      string `json:"state"`
	Brightness *int   `json:"brightness,omitempty"`
	ColorMode  string `json:"color_mode,omitempty"`
	Color      any    `json:"color,omitempty"`
	Effect     string `json:"effect,omitempty"`
}

// Light is a JSON-schema light. State updates are JSON objects carrying the
// on/off state plus the optional brightness, color and effect attributes.
type Light struct {
	*Subscriber
	info *LightInfo
}

func NewLight(settings Settings, info LightInfo, callback func(Message)) (*Light, error) {
	sub, err := newSubscriber(settings, &info.EntityInfo, "light", callback)
	if err != nil {
		return nil, err
	}
	l := &Light{Subscriber: sub, info: &info}
	sub.configFn = func() any {
		return lightConfig{
			entityConfig:        sub.baseConfig(),
			Schema:              "json",
			StateTopic:          sub.stateTopic,
			CommandTopic:        sub.commandTopic,
			Brightness:          info.Brightness,
			ColorMode:           info.ColorMode,
			SupportedColorModes: info.SupportedColorModes,
			Effect:              info.Effect,
			EffectList:          info.EffectList,
		}
	}
	return l, nil
}

func (l *Light) publishState(state lightState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("could not encode light state: %w", err)
	}
	return l.stateHelper(string(payload))
}

// On reports the light as on.
func (l *Light) On() error { return l.publishState(lightState{State: "ON"}) }

// Off reports the light as off.
func (l *Light) Off() error { return l.publishState(lightState{State: "OFF"}) }

// SetBrightness reports the light on at the given brightness, range [0, 255].
func (l *Light) SetBrightness(brightness int) error {
	if !l.info.Brightness {
		return fmt.Errorf("%w: light does not support brightness", ErrUnsupportedFeature)
	}
	if brightness < 0 || brightness > 255 {
		return fmt.Errorf("%w: brightness must be between 0 and 255, got %d", ErrInvalidValue, brightness)
	}
	return l.publishState(lightState{State: "ON", Brightness: &brightness})
}

// SetColor reports the light on with the given color in the given mode,
// which must be one of the supported color modes.
func (l *Light) SetColor(mode string, color any) error {
	if !slices.Contains(l.info.SupportedColorModes, mode) {
		return fmt.Errorf("%w: color mode %q is not supported", ErrUnsupportedFeature, mode)
	}
	return l.publishState(lightState{State: "ON", ColorMode: mode, Color: color})
}

// SetEffect reports the light running the given effect, which must be in
// the effect list.
func (l *Light) SetEffect(effect string) error {
	if !l.info.Effect {
		return fmt.Errorf("%w: light does not support effects", ErrUnsupportedFeature)
	}
	if !slices.Contains(l.info.EffectList, effect) {
		return fmt.Errorf("%w: effect %q is not in the effect list", ErrInvalidValue, effect)
	}
	return l.publishState(lightState{State: "ON", Effect: effect})
}

// Cover states.
const (
	CoverOpen    = "open"
	CoverOpening = "opening"
	CoverClosed  = "closed"
	CoverClosing = "closing"
	CoverStopped = "stopped"
)

// CoverInfo describes a cover entity.
type CoverInfo struct {
	EntityInfo
	Optimistic bool `json:"optimistic,omitempty"`
}

type coverConfig struct {
	entityConfig
	StateTopic   string `json:"state_topic"`
	CommandTopic string `json:"command_topic"`
	PayloadOpen  string `json:"payload_open"`
	PayloadClose string `json:"payload_close"`
	PayloadStop  string `json:"payload_stop"`
	Optimistic   bool   `json:"optimistic,omitempty"`
}

// Cover is an entity for blinds, garage doors and the like. The callback
// receives the raw OPEN/CLOSE/STOP payload.
type Cover struct {
	*Subscriber
	info *CoverInfo
}

func NewCover(settings Settings, info CoverInfo, callback func(Message)) (*Cover, error) {
	sub, err := newSubscriber(settings, &info.EntityInfo, "cover", callback)
	if err != nil {
		return nil, err
	}
	c := &Cover{Subscriber: sub, info: &info}
	sub.configFn = func() any {
		return coverConfig{
			entityConfig: sub.baseConfig(),
			StateTopic:   sub.stateTopic,
			CommandTopic: sub.commandTopic,
			PayloadOpen:  "OPEN",
			PayloadClose: "CLOSE",
			PayloadStop:  "STOP",
			Optimistic:   info.Optimistic,
		}
	}
	return c, nil
}

// SetState publishes one of the cover states.
func (c *Cover) SetState(state string) error {
	switch state {
	case CoverOpen, CoverOpening, CoverClosed, CoverClosing, CoverStopped:
		return c.stateHelper(state)
	}
	return fmt.Errorf("%w: invalid cover state %q", ErrInvalidValue, state)
}
