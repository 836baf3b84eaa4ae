package hamqtt

import (
	"fmt"
	"strconv"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// MediaPlayerInfo describes a media player entity.
type MediaPlayerInfo struct {
	EntityInfo
	// SourceList is the set of selectable input sources, if any.
	SourceList []string `json:"source_list,omitempty"`
	// SoundModeList is the set of selectable sound modes, if any.
	SoundModeList []string `json:"sound_mode_list,omitempty"`
	// VolumeStep is the step used by volume up/down, range (0, 1].
	VolumeStep float64 `json:"volume_step,omitempty"`
}

// MediaPlayerCallbacks holds one handler slot per command. A non-nil slot
// enables the command: its topic is derived, subscribed and announced in the
// discovery config. Handlers run on the paho network goroutine.
type MediaPlayerCallbacks struct {
	Play            func(payload string, msg Message)
	Pause           func(payload string, msg Message)
	Stop            func(payload string, msg Message)
	NextTrack       func(payload string, msg Message)
	PreviousTrack   func(payload string, msg Message)
	VolumeSet       func(volume float64, msg Message)
	Seek            func(position float64, msg Message)
	VolumeMute      func(muted bool, msg Message)
	ShuffleSet      func(shuffle bool, msg Message)
	RepeatSet       func(mode RepeatMode, msg Message)
	SelectSource    func(source string, msg Message)
	SelectSoundMode func(mode string, msg Message)
	TurnOn          func(payload string, msg Message)
	TurnOff         func(payload string, msg Message)
	PlayMedia       func(request PlayMediaRequest, msg Message)
	BrowseMedia     func(payload string, msg Message)
}

func simpleCommand(role TopicRole, fn func(string, Message)) command {
	cmd := command{role: role, kind: kindSimple}
	if fn != nil {
		cmd.invoke = func(v any, m Message) { fn(v.(string), m) }
	}
	return cmd
}

func numericCommand(role TopicRole, fn func(float64, Message)) command {
	cmd := command{role: role, kind: kindNumeric}
	if fn != nil {
		cmd.invoke = func(v any, m Message) { fn(v.(float64), m) }
	}
	return cmd
}

func booleanCommand(role TopicRole, fn func(bool, Message)) command {
	cmd := command{role: role, kind: kindBoolean}
	if fn != nil {
		cmd.invoke = func(v any, m Message) { fn(v.(bool), m) }
	}
	return cmd
}

func opaqueCommand(role TopicRole, fn func(string, Message)) command {
	cmd := command{role: role, kind: kindOpaque}
	if fn != nil {
		cmd.invoke = func(v any, m Message) { fn(v.(string), m) }
	}
	return cmd
}

// commands builds the full command table. Every role is present; only roles
// with a registered callback carry an invoke slot.
func (c MediaPlayerCallbacks) commands() []command {
	repeat := command{role: RoleRepeatSet, kind: kindRepeat}
	if c.RepeatSet != nil {
		repeat.invoke = func(v any, m Message) { c.RepeatSet(v.(RepeatMode), m) }
	}
	playMedia := command{role: RolePlayMedia, kind: kindPlayMedia}
	if c.PlayMedia != nil {
		playMedia.invoke = func(v any, m Message) { c.PlayMedia(v.(PlayMediaRequest), m) }
	}
	return []command{
		simpleCommand(RolePlay, c.Play),
		simpleCommand(RolePause, c.Pause),
		simpleCommand(RoleStop, c.Stop),
		simpleCommand(RoleNextTrack, c.NextTrack),
		simpleCommand(RolePreviousTrack, c.PreviousTrack),
		numericCommand(RoleVolumeSet, c.VolumeSet),
		numericCommand(RoleSeek, c.Seek),
		booleanCommand(RoleVolumeMute, c.VolumeMute),
		booleanCommand(RoleShuffleSet, c.ShuffleSet),
		repeat,
		opaqueCommand(RoleSelectSource, c.SelectSource),
		opaqueCommand(RoleSelectSoundMode, c.SelectSoundMode),
		simpleCommand(RoleTurnOn, c.TurnOn),
		simpleCommand(RoleTurnOff, c.TurnOff),
		playMedia,
		simpleCommand(RoleBrowseMedia, c.BrowseMedia),
	}
}

// Valid media player states.
const (
	StatePlaying = "playing"
	StatePaused  = "paused"
	StateStopped = "stopped"
	StateIdle    = "idle"
	StateOff     = "off"
)

func validPlayerState(state string) bool {
	switch state {
	case StatePlaying, StatePaused, StateStopped, StateIdle, StateOff:
		return true
	}
	return false
}

// playerState is the last-known local state. Both the application goroutines
// (setters) and the paho callback goroutine may touch it, so access goes
// through the entity mutex.
type playerState struct {
	state       string
	title       string
	artist      string
	album       string
	albumArtURL string
	volume      *float64
	duration    *int
	position    *int
	muted       *bool
	shuffle     *bool
	repeat      RepeatMode
}

// MediaPlayer implements an MQTT media player with handler-presence feature
// flags: the callbacks supplied at construction decide which command topics
// exist.
type MediaPlayer struct {
	*Discoverable
	info   *MediaPlayerInfo
	topics TopicSet
	table  *commandTable

	mu   sync.Mutex
	last playerState
}

// NewMediaPlayer builds a media player entity. The topic set is derived once
// here and is immutable afterwards; Connect announces it.
func NewMediaPlayer(settings Settings, info MediaPlayerInfo, callbacks MediaPlayerCallbacks) (*MediaPlayer, error) {
	base, err := newDiscoverable(settings, &info.EntityInfo, "media_player")
	if err != nil {
		return nil, err
	}
	player := &MediaPlayer{
		Discoverable: base,
		info:         &info,
		table:        newCommandTable(callbacks.commands(), base.logger),
	}
	deviceName := ""
	if info.Device != nil {
		deviceName = info.Device.Name
	}
	player.topics = deriveTopics(base.settings.MQTT.StatePrefix, "media_player",
		deviceName, info.Name, player.table.enabledRoles())
	base.configFn = func() any { return player.GenerateConfig() }
	base.onConnect = player.subscribeCommands
	player.logger.Debug("media player constructed", zap.Int("topics", len(player.topics)))
	return player, nil
}

// Topics returns the derived topic set.
func (p *MediaPlayer) Topics() TopicSet { return p.topics }

func (p *MediaPlayer) subscribeCommands(client mqtt.Client) {
	subscribed := 0
	for _, role := range p.table.enabledRoles() {
		topic := p.topics[role]
		token := client.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
			p.table.dispatch(msg)
		})
		if !token.WaitTimeout(publishTimeout) || token.Error() != nil {
			p.logger.Error("could not subscribe to command topic",
				zap.String("topic", topic), zap.Error(token.Error()))
			continue
		}
		subscribed++
	}
	p.logger.Debug("subscribed to command topics", zap.Int("count", subscribed))
}

// MediaPlayerConfig is the discovery announce payload. Command and metadata
// topic keys are present exactly when the matching topic was derived; Home
// Assistant infers the supported features from key presence.
type MediaPlayerConfig struct {
	Component            string      `json:"component"`
	Name                 string      `json:"name"`
	ObjectID             string      `json:"object_id,omitempty"`
	UniqueID             string      `json:"unique_id,omitempty"`
	Device               *DeviceInfo `json:"device,omitempty"`
	DeviceClass          string      `json:"device_class,omitempty"`
	EntityCategory       string      `json:"entity_category,omitempty"`
	Icon                 string      `json:"icon,omitempty"`
	EnabledByDefault     *bool       `json:"enabled_by_default,omitempty"`
	SourceList           []string    `json:"source_list,omitempty"`
	SoundModeList        []string    `json:"sound_mode_list,omitempty"`
	VolumeStep           float64     `json:"volume_step,omitempty"`
	StateTopic           string      `json:"state_topic"`
	AvailabilityTopic    string      `json:"availability_topic"`
	PayloadAvailable     string      `json:"payload_available"`
	PayloadNotAvailable  string      `json:"payload_not_available"`
	MediaTitleTopic      string      `json:"media_title_topic,omitempty"`
	MediaArtistTopic     string      `json:"media_artist_topic,omitempty"`
	MediaAlbumNameTopic  string      `json:"media_album_name_topic,omitempty"`
	MediaDurationTopic   string      `json:"media_duration_topic,omitempty"`
	MediaPositionTopic   string      `json:"media_position_topic,omitempty"`
	VolumeLevelTopic     string      `json:"volume_level_topic,omitempty"`
	MediaImageURLTopic   string      `json:"media_image_url_topic,omitempty"`
	PlayTopic            string      `json:"play_topic,omitempty"`
	PauseTopic           string      `json:"pause_topic,omitempty"`
	StopTopic            string      `json:"stop_topic,omitempty"`
	NextTrackTopic       string      `json:"next_track_topic,omitempty"`
	PreviousTrackTopic   string      `json:"previous_track_topic,omitempty"`
	VolumeSetTopic       string      `json:"volume_set_topic,omitempty"`
	SeekTopic            string      `json:"seek_topic,omitempty"`
	VolumeMuteTopic      string      `json:"volume_mute_topic,omitempty"`
	ShuffleSetTopic      string      `json:"shuffle_set_topic,omitempty"`
	RepeatSetTopic       string      `json:"repeat_set_topic,omitempty"`
	SelectSourceTopic    string      `json:"select_source_topic,omitempty"`
	SelectSoundModeTopic string      `json:"select_sound_mode_topic,omitempty"`
	TurnOnTopic          string      `json:"turn_on_topic,omitempty"`
	TurnOffTopic         string      `json:"turn_off_topic,omitempty"`
	PlayMediaTopic       string      `json:"play_media_topic,omitempty"`
	BrowseMediaTopic     string      `json:"browse_media_topic,omitempty"`
}

// GenerateConfig assembles the discovery payload from the entity identity
// and the derived topic set. Pure function of both; built fresh on each call.
func (p *MediaPlayer) GenerateConfig() MediaPlayerConfig {
	return MediaPlayerConfig{
		Component:            "media_player",
		Name:                 p.info.Name,
		ObjectID:             p.info.ObjectID,
		UniqueID:             p.info.UniqueID,
		Device:               p.info.Device,
		DeviceClass:          p.info.DeviceClass,
		EntityCategory:       p.info.EntityCategory,
		Icon:                 p.info.Icon,
		EnabledByDefault:     p.info.EnabledByDefault,
		SourceList:           p.info.SourceList,
		SoundModeList:        p.info.SoundModeList,
		VolumeStep:           p.info.VolumeStep,
		StateTopic:           p.topics[RoleState],
		AvailabilityTopic:    p.topics[RoleAvailability],
		PayloadAvailable:     PayloadOnline,
		PayloadNotAvailable:  PayloadOffline,
		MediaTitleTopic:      p.topics[RoleTitle],
		MediaArtistTopic:     p.topics[RoleArtist],
		MediaAlbumNameTopic:  p.topics[RoleAlbum],
		MediaDurationTopic:   p.topics[RoleDuration],
		MediaPositionTopic:   p.topics[RolePosition],
		VolumeLevelTopic:     p.topics[RoleVolume],
		MediaImageURLTopic:   p.topics[RoleAlbumArt],
		PlayTopic:            p.topics[RolePlay],
		PauseTopic:           p.topics[RolePause],
		StopTopic:            p.topics[RoleStop],
		NextTrackTopic:       p.topics[RoleNextTrack],
		PreviousTrackTopic:   p.topics[RolePreviousTrack],
		VolumeSetTopic:       p.topics[RoleVolumeSet],
		SeekTopic:            p.topics[RoleSeek],
		VolumeMuteTopic:      p.topics[RoleVolumeMute],
		ShuffleSetTopic:      p.topics[RoleShuffleSet],
		RepeatSetTopic:       p.topics[RoleRepeatSet],
		SelectSourceTopic:    p.topics[RoleSelectSource],
		SelectSoundModeTopic: p.topics[RoleSelectSoundMode],
		TurnOnTopic:          p.topics[RoleTurnOn],
		TurnOffTopic:         p.topics[RoleTurnOff],
		PlayMediaTopic:       p.topics[RolePlayMedia],
		BrowseMediaTopic:     p.topics[RoleBrowseMedia],
	}
}

// SetState validates and publishes the playback state, retained.
func (p *MediaPlayer) SetState(state string) error {
	if !validPlayerState(state) {
		return fmt.Errorf("%w: invalid state %q, must be one of playing, paused, stopped, idle, off",
			ErrInvalidValue, state)
	}
	if err := p.publish(p.topics[RoleState], state, true); err != nil {
		return err
	}
	p.mu.Lock()
	p.last.state = state
	p.mu.Unlock()
	p.logger.Info("state updated", zap.String("state", state))
	return nil
}

// SetTitle publishes the current media title.
func (p *MediaPlayer) SetTitle(title string) error {
	if err := p.publish(p.topics[RoleTitle], title, true); err != nil {
		return err
	}
	p.mu.Lock()
	p.last.title = title
	p.mu.Unlock()
	return nil
}

// SetArtist publishes the current media artist.
func (p *MediaPlayer) SetArtist(artist string) error {
	if err := p.publish(p.topics[RoleArtist], artist, true); err != nil {
		return err
	}
	p.mu.Lock()
	p.last.artist = artist
	p.mu.Unlock()
	return nil
}

// SetAlbum publishes the current media album name.
func (p *MediaPlayer) SetAlbum(album string) error {
	if err := p.publish(p.topics[RoleAlbum], album, true); err != nil {
		return err
	}
	p.mu.Lock()
	p.last.album = album
	p.mu.Unlock()
	return nil
}

// SetVolume validates and publishes the volume level, range [0.0, 1.0].
func (p *MediaPlayer) SetVolume(volume float64) error {
	// written so NaN fails too, not only values outside the range
	if !(volume >= 0.0 && volume <= 1.0) {
		return fmt.Errorf("%w: volume must be between 0.0 and 1.0, got %v", ErrInvalidValue, volume)
	}
	if err := p.publish(p.topics[RoleVolume], strconv.FormatFloat(volume, 'f', -1, 64), true); err != nil {
		return err
	}
	p.mu.Lock()
	p.last.volume = &volume
	p.mu.Unlock()
	return nil
}

// SetPosition validates and publishes the playback position in seconds.
// When a duration is known the position may not exceed it; equal is allowed.
func (p *MediaPlayer) SetPosition(position int) error {
	if position < 0 {
		return fmt.Errorf("%w: position must be non-negative", ErrInvalidValue)
	}
	p.mu.Lock()
	duration := p.last.duration
	p.mu.Unlock()
	if duration != nil && position > *duration {
		return fmt.Errorf("%w: position %d exceeds duration %d", ErrInvalidValue, position, *duration)
	}
	if err := p.publish(p.topics[RolePosition], strconv.Itoa(position), true); err != nil {
		return err
	}
	p.mu.Lock()
	p.last.position = &position
	p.mu.Unlock()
	return nil
}

// SetDuration validates and publishes the media duration in seconds.
func (p *MediaPlayer) SetDuration(duration int) error {
	if duration < 0 {
		return fmt.Errorf("%w: duration must be non-negative", ErrInvalidValue)
	}
	if err := p.publish(p.topics[RoleDuration], strconv.Itoa(duration), true); err != nil {
		return err
	}
	p.mu.Lock()
	p.last.duration = &duration
	p.mu.Unlock()
	return nil
}

// SetAlbumArtURL publishes the album art image URL.
func (p *MediaPlayer) SetAlbumArtURL(url string) error {
	if err := p.publish(p.topics[RoleAlbumArt], url, true); err != nil {
		return err
	}
	p.mu.Lock()
	p.last.albumArtURL = url
	p.mu.Unlock()
	return nil
}

// SetMuted records the mute state. There is no mute state topic role; the
// value is only kept locally.
func (p *MediaPlayer) SetMuted(muted bool) error {
	p.mu.Lock()
	p.last.muted = &muted
	p.mu.Unlock()
	return nil
}

// SetShuffle records the shuffle state. Fails with ErrUnsupportedFeature if
// the player was constructed without a shuffle callback.
func (p *MediaPlayer) SetShuffle(shuffle bool) error {
	if !p.topics.Has(RoleShuffleSet) {
		return fmt.Errorf("%w: player does not support shuffle control", ErrUnsupportedFeature)
	}
	p.mu.Lock()
	p.last.shuffle = &shuffle
	p.mu.Unlock()
	return nil
}

// SetRepeat records the repeat mode. Fails with ErrUnsupportedFeature if the
// player was constructed without a repeat callback, and with
// ErrInvalidValue for a mode outside off/all/one.
func (p *MediaPlayer) SetRepeat(mode RepeatMode) error {
	if !p.topics.Has(RoleRepeatSet) {
		return fmt.Errorf("%w: player does not support repeat control", ErrUnsupportedFeature)
	}
	if !validRepeatMode(mode) {
		return fmt.Errorf("%w: invalid repeat mode %q, must be one of off, all, one", ErrInvalidValue, mode)
	}
	p.mu.Lock()
	p.last.repeat = mode
	p.mu.Unlock()
	return nil
}

// MediaInfo bundles media metadata for UpdateMediaInfo. Nil fields are
// skipped.
type MediaInfo struct {
	Title       *string
	Artist      *string
	Album       *string
	Duration    *int
	Position    *int
	AlbumArtURL *string
}

// UpdateMediaInfo calls the single-field setters in fixed order. Not atomic:
// a failure partway through leaves earlier fields already published.
func (p *MediaPlayer) UpdateMediaInfo(info MediaInfo) error {
	if info.Title != nil {
		if err := p.SetTitle(*info.Title); err != nil {
			return err
		}
	}
	if info.Artist != nil {
		if err := p.SetArtist(*info.Artist); err != nil {
			return err
		}
	}
	if info.Album != nil {
		if err := p.SetAlbum(*info.Album); err != nil {
			return err
		}
	}
	if info.Duration != nil {
		if err := p.SetDuration(*info.Duration); err != nil {
			return err
		}
	}
	if info.Position != nil {
		if err := p.SetPosition(*info.Position); err != nil {
			return err
		}
	}
	if info.AlbumArtURL != nil {
		if err := p.SetAlbumArtURL(*info.AlbumArtURL); err != nil {
			return err
		}
	}
	return nil
}

// PlaybackState bundles playback fields for UpdatePlaybackState. Nil fields
// are skipped.
type PlaybackState struct {
	State   *string
	Volume  *float64
	Muted   *bool
	Shuffle *bool
	Repeat  *RepeatMode
}

// UpdatePlaybackState calls the single-field setters in fixed order. Not
// atomic.
func (p *MediaPlayer) UpdatePlaybackState(state PlaybackState) error {
	if state.State != nil {
		if err := p.SetState(*state.State); err != nil {
			return err
		}
	}
	if state.Volume != nil {
		if err := p.SetVolume(*state.Volume); err != nil {
			return err
		}
	}
	if state.Muted != nil {
		if err := p.SetMuted(*state.Muted); err != nil {
			return err
		}
	}
	if state.Shuffle != nil {
		if err := p.SetShuffle(*state.Shuffle); err != nil {
			return err
		}
	}
	if state.Repeat != nil {
		if err := p.SetRepeat(*state.Repeat); err != nil {
			return err
		}
	}
	return nil
}

// State returns the last-known playback state, empty if never set.
func (p *MediaPlayer) State() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last.state
}

// Volume returns the last-known volume level.
func (p *MediaPlayer) Volume() (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last.volume == nil {
		return 0, false
	}
	return *p.last.volume, true
}

// Duration returns the last-known media duration in seconds.
func (p *MediaPlayer) Duration() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last.duration == nil {
		return 0, false
	}
	return *p.last.duration, true
}

// Position returns the last-known playback position in seconds.
func (p *MediaPlayer) Position() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last.position == nil {
		return 0, false
	}
	return *p.last.position, true
}

// Shuffle returns the last-known shuffle state.
func (p *MediaPlayer) Shuffle() (bool, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last.shuffle == nil {
		return false, false
	}
	return *p.last.shuffle, true
}

// Repeat returns the last-known repeat mode, empty if never set.
func (p *MediaPlayer) Repeat() RepeatMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last.repeat
}
