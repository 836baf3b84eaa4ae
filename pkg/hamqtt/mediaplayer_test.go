package hamqtt

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlayer(t *testing.T, callbacks MediaPlayerCallbacks) (*MediaPlayer, *fakePublisher) {
	player, err := NewMediaPlayer(testSettings(),
		MediaPlayerInfo{EntityInfo: EntityInfo{Name: "Test Player"}}, callbacks)
	require.NoError(t, err)
	pub := &fakePublisher{}
	player.pub = pub
	return player, pub
}

func configKeys(t *testing.T, player *MediaPlayer) map[string]any {
	raw, err := json.Marshal(player.GenerateConfig())
	require.NoError(t, err)
	var keys map[string]any
	require.NoError(t, json.Unmarshal(raw, &keys))
	return keys
}

func TestConfigOmitsDisabledCommands(t *testing.T) {

	assert := assert.New(t)

	player, _ := newTestPlayer(t, MediaPlayerCallbacks{})
	keys := configKeys(t, player)

	assert.Contains(keys, "state_topic", "state topic always announced")
	assert.Contains(keys, "media_title_topic", "metadata topics always announced")
	assert.Contains(keys, "availability_topic", "availability always announced")
	assert.NotContains(keys, "play_topic", "no play handler, no play key")
	assert.NotContains(keys, "volume_set_topic", "no volume handler, no volume key")
}

func TestConfigIncludesEnabledCommands(t *testing.T) {

	assert := assert.New(t)

	player, _ := newTestPlayer(t, MediaPlayerCallbacks{
		Play:      func(string, Message) {},
		VolumeSet: func(float64, Message) {},
	})
	keys := configKeys(t, player)

	assert.Contains(keys, "play_topic", "play handler announces play key")
	assert.Contains(keys, "volume_set_topic", "volume handler announces volume key")
	assert.NotContains(keys, "pause_topic", "pause stays hidden")
	assert.Equal(player.Topics()[RolePlay], keys["play_topic"], "announced topic matches derived topic")
}

func TestConfigAvailabilityPayloads(t *testing.T) {

	assert := assert.New(t)

	player, _ := newTestPlayer(t, MediaPlayerCallbacks{})
	cfg := player.GenerateConfig()

	assert.Equal("online", cfg.PayloadAvailable, "available payload")
	assert.Equal("offline", cfg.PayloadNotAvailable, "not available payload")
	assert.Equal("media_player", cfg.Component, "component")
}

func TestDispatchPlayPassesRawPayload(t *testing.T) {

	assert := assert.New(t)

	var got string
	called := 0
	player, _ := newTestPlayer(t, MediaPlayerCallbacks{
		Play: func(payload string, _ Message) {
			got = payload
			called++
		},
	})

	player.table.dispatch(&fakeMessage{topic: player.Topics()[RolePlay], payload: []byte("PLAY")})

	assert.Equal(1, called, "handler invoked once")
	assert.Equal("PLAY", got, "raw payload passed through")
}

func TestDispatchVolumeDecodesFloat(t *testing.T) {

	assert := assert.New(t)

	var got float64
	player, _ := newTestPlayer(t, MediaPlayerCallbacks{
		VolumeSet: func(volume float64, _ Message) { got = volume },
	})

	player.table.dispatch(&fakeMessage{topic: player.Topics()[RoleVolumeSet], payload: []byte("0.5")})

	assert.Equal(0.5, got, "numeric payload decoded")
}

func TestDispatchInvalidNumericDropped(t *testing.T) {

	assert := assert.New(t)

	called := false
	player, _ := newTestPlayer(t, MediaPlayerCallbacks{
		VolumeSet: func(float64, Message) { called = true },
	})

	player.table.dispatch(&fakeMessage{topic: player.Topics()[RoleVolumeSet], payload: []byte("loud")})

	assert.False(called, "undecodable payload never reaches the handler")
}

func TestDispatchUnknownCommandIgnored(t *testing.T) {

	player, _ := newTestPlayer(t, MediaPlayerCallbacks{
		Play: func(string, Message) {},
	})

	// must not panic, must not be routed anywhere
	player.table.dispatch(&fakeMessage{topic: "hmd/media_player/test-player/self_destruct", payload: []byte("GO")})
}

func TestDispatchRecoversHandlerPanic(t *testing.T) {

	player, _ := newTestPlayer(t, MediaPlayerCallbacks{
		Play: func(string, Message) { panic("boom") },
	})

	player.table.dispatch(&fakeMessage{topic: player.Topics()[RolePlay], payload: []byte("PLAY")})
}

func TestDispatchRepeatModes(t *testing.T) {

	assert := assert.New(t)

	var got RepeatMode
	called := 0
	player, _ := newTestPlayer(t, MediaPlayerCallbacks{
		RepeatSet: func(mode RepeatMode, _ Message) {
			got = mode
			called++
		},
	})
	topic := player.Topics()[RoleRepeatSet]

	player.table.dispatch(&fakeMessage{topic: topic, payload: []byte("all")})
	assert.Equal(RepeatAll, got, "valid mode decoded")

	player.table.dispatch(&fakeMessage{topic: topic, payload: []byte("sometimes")})
	assert.Equal(1, called, "invalid mode dropped")
}

func TestDispatchMuteBoolean(t *testing.T) {

	assert := assert.New(t)

	var got bool
	player, _ := newTestPlayer(t, MediaPlayerCallbacks{
		VolumeMute: func(muted bool, _ Message) { got = muted },
	})
	topic := player.Topics()[RoleVolumeMute]

	player.table.dispatch(&fakeMessage{topic: topic, payload: []byte("on")})
	assert.True(got, "ON is case-insensitive")

	player.table.dispatch(&fakeMessage{topic: topic, payload: []byte("OFF")})
	assert.False(got, "anything but ON is false")
}

func TestDispatchPlayMedia(t *testing.T) {

	assert := assert.New(t)

	var got PlayMediaRequest
	called := 0
	player, _ := newTestPlayer(t, MediaPlayerCallbacks{
		PlayMedia: func(req PlayMediaRequest, _ Message) {
			got = req
			called++
		},
	})
	topic := player.Topics()[RolePlayMedia]

	player.table.dispatch(&fakeMessage{topic: topic,
		payload: []byte(`{"media_type":"music","media_id":"spotify:track:x"}`)})
	assert.Equal(1, called, "structured payload decoded")
	assert.Equal("music", got.MediaType, "media type")
	assert.Equal("spotify:track:x", got.MediaID, "media id")

	player.table.dispatch(&fakeMessage{topic: topic, payload: []byte(`{"media_type":"music"}`)})
	player.table.dispatch(&fakeMessage{topic: topic, payload: []byte(`{not json`)})
	assert.Equal(1, called, "incomplete or malformed payloads dropped")
}

func TestSetStateValidation(t *testing.T) {

	assert := assert.New(t)

	player, pub := newTestPlayer(t, MediaPlayerCallbacks{})

	err := player.SetState("exploded")
	assert.ErrorIs(err, ErrInvalidValue, "unknown state rejected")
	assert.Empty(pub.records, "nothing published on rejection")

	assert.NoError(player.SetState(StatePlaying), "valid state accepted")
	rec := pub.last()
	assert.Equal(player.StateTopic(), rec.topic, "published to state topic")
	assert.Equal("playing", rec.payload, "payload is the state")
	assert.True(rec.retained, "state is retained")
	assert.Equal(StatePlaying, player.State(), "last-known state recorded")
}

func TestSetVolumeBounds(t *testing.T) {

	assert := assert.New(t)

	player, pub := newTestPlayer(t, MediaPlayerCallbacks{})

	assert.NoError(player.SetVolume(0.0), "lower bound allowed")
	assert.NoError(player.SetVolume(1.0), "upper bound allowed")
	assert.ErrorIs(player.SetVolume(-0.0001), ErrInvalidValue, "below range rejected")
	assert.ErrorIs(player.SetVolume(1.0001), ErrInvalidValue, "above range rejected")
	assert.Len(pub.records, 2, "rejected volumes never published")

	assert.NoError(player.SetVolume(0.5))
	assert.Equal("0.5", pub.last().payload, "volume formatted without trailing zeros")

	volume, ok := player.Volume()
	assert.True(ok, "volume known after set")
	assert.Equal(0.5, volume, "last-known volume")
}

func TestSetVolumeNonFinite(t *testing.T) {

	assert := assert.New(t)

	player, pub := newTestPlayer(t, MediaPlayerCallbacks{})

	assert.ErrorIs(player.SetVolume(math.NaN()), ErrInvalidValue, "NaN rejected")
	assert.ErrorIs(player.SetVolume(math.Inf(1)), ErrInvalidValue, "+Inf rejected")
	assert.ErrorIs(player.SetVolume(math.Inf(-1)), ErrInvalidValue, "-Inf rejected")
	assert.Empty(pub.records, "non-finite volumes never published")

	_, ok := player.Volume()
	assert.False(ok, "last-known volume untouched")
}

func TestSetPositionAgainstDuration(t *testing.T) {

	assert := assert.New(t)

	player, pub := newTestPlayer(t, MediaPlayerCallbacks{})

	assert.ErrorIs(player.SetPosition(-1), ErrInvalidValue, "negative position rejected")
	assert.NoError(player.SetPosition(100), "any position allowed while duration unknown")

	assert.ErrorIs(player.SetDuration(-5), ErrInvalidValue, "negative duration rejected")
	assert.NoError(player.SetDuration(180))

	assert.ErrorIs(player.SetPosition(181), ErrInvalidValue, "position beyond duration rejected")
	assert.NoError(player.SetPosition(180), "position equal to duration allowed")
	assert.Equal("180", pub.last().payload, "position published as integer seconds")
}

func TestShuffleRepeatCapability(t *testing.T) {

	assert := assert.New(t)

	plain, _ := newTestPlayer(t, MediaPlayerCallbacks{})
	assert.ErrorIs(plain.SetShuffle(true), ErrUnsupportedFeature, "shuffle without handler")
	assert.ErrorIs(plain.SetRepeat(RepeatAll), ErrUnsupportedFeature, "repeat without handler")

	full, _ := newTestPlayer(t, MediaPlayerCallbacks{
		ShuffleSet: func(bool, Message) {},
		RepeatSet:  func(RepeatMode, Message) {},
	})
	assert.NoError(full.SetShuffle(true), "shuffle with handler")
	shuffle, ok := full.Shuffle()
	assert.True(ok && shuffle, "shuffle recorded")

	assert.ErrorIs(full.SetRepeat("sometimes"), ErrInvalidValue, "invalid repeat mode rejected")
	assert.NoError(full.SetRepeat(RepeatOne), "valid repeat mode recorded")
	assert.Equal(RepeatOne, full.Repeat(), "last-known repeat mode")
}

func TestUpdateMediaInfoPartial(t *testing.T) {

	assert := assert.New(t)

	player, pub := newTestPlayer(t, MediaPlayerCallbacks{})

	title := "Song"
	duration := 240
	err := player.UpdateMediaInfo(MediaInfo{Title: &title, Duration: &duration})
	assert.NoError(err, "bulk update")
	assert.Len(pub.records, 2, "only non-nil fields published")

	got, ok := player.Duration()
	assert.True(ok, "duration known")
	assert.Equal(240, got, "duration recorded")
}

func TestUpdatePlaybackStateStopsOnError(t *testing.T) {

	assert := assert.New(t)

	player, pub := newTestPlayer(t, MediaPlayerCallbacks{})

	state := StatePlaying
	volume := 1.5
	err := player.UpdatePlaybackState(PlaybackState{State: &state, Volume: &volume})
	assert.ErrorIs(err, ErrInvalidValue, "first failing field reported")
	assert.Len(pub.records, 1, "state published before the volume failed")
	assert.Equal(StatePlaying, player.State(), "earlier fields kept")
}

func TestDeviceRequiresUniqueID(t *testing.T) {

	assert := assert.New(t)

	_, err := NewMediaPlayer(testSettings(), MediaPlayerInfo{
		EntityInfo: EntityInfo{
			Name:   "Player",
			Device: &DeviceInfo{Identifiers: []string{"dev1"}, Name: "Amp"},
		},
	}, MediaPlayerCallbacks{})
	assert.Error(err, "device without unique_id rejected")

	_, err = NewMediaPlayer(testSettings(), MediaPlayerInfo{
		EntityInfo: EntityInfo{
			Name:     "Player",
			UniqueID: "player-1",
			Device:   &DeviceInfo{Identifiers: []string{"dev1"}, Name: "Amp"},
		},
	}, MediaPlayerCallbacks{})
	assert.NoError(err, "device with unique_id accepted")
}

func TestPublishWithoutConnection(t *testing.T) {

	assert := assert.New(t)

	player, err := NewMediaPlayer(testSettings(),
		MediaPlayerInfo{EntityInfo: EntityInfo{Name: "Offline Player"}}, MediaPlayerCallbacks{})
	assert.NoError(err)

	assert.ErrorIs(player.SetState(StateIdle), ErrNotConnected, "publish before connect fails")
}

func TestDeviceTopicsIncludeDeviceSegment(t *testing.T) {

	assert := assert.New(t)

	player, _ := newTestPlayer(t, MediaPlayerCallbacks{})
	assert.Equal("hmd/media_player/test-player/state", player.StateTopic(), "no device segment")

	withDevice, err := NewMediaPlayer(testSettings(), MediaPlayerInfo{
		EntityInfo: EntityInfo{
			Name:     "Test Player",
			UniqueID: "tp-1",
			Device:   &DeviceInfo{Identifiers: []string{"amp"}, Name: "Den Amp"},
		},
	}, MediaPlayerCallbacks{})
	assert.NoError(err)
	assert.Equal("hmd/media_player/den-amp/test-player/state", withDevice.StateTopic(), "device segment included")
	assert.Equal("homeassistant/media_player/den-amp/test-player/config", withDevice.ConfigTopic(), "config under discovery prefix")
}
