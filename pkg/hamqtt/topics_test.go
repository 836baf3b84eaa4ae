package hamqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanString(t *testing.T) {

	assert := assert.New(t)

	assert.Equal("living-room-tv", CleanString("Living Room TV"), "spaces and case")
	assert.Equal("caf--player", CleanString("Café Player"), "non-ascii replaced")
	assert.Equal("under_score-kept", CleanString("under_score-kept"), "allowed chars kept")
}

func TestCleanStringIdempotent(t *testing.T) {

	assert := assert.New(t)

	once := CleanString("My Player (Kitchen)")
	assert.Equal(once, CleanString(once), "cleaning a cleaned string is a no-op")
}

func TestEntityBasePath(t *testing.T) {

	assert := assert.New(t)

	assert.Equal("media_player/den-amp/my-player",
		entityBasePath("media_player", "Den Amp", "My Player"), "with device")
	assert.Equal("media_player/my-player",
		entityBasePath("media_player", "", "My Player"), "device segment skipped when absent")
}

func TestDeriveTopicsStateRolesAlwaysPresent(t *testing.T) {

	assert := assert.New(t)

	topics := deriveTopics("hmd", "media_player", "", "Player", nil)

	for _, role := range stateRoles {
		assert.True(topics.Has(role), "state role %s derived", role)
	}
	assert.Equal("hmd/media_player/player/state", topics[RoleState], "state topic")
	assert.False(topics.Has(RolePlay), "no command topics without enabled commands")
}

func TestDeriveTopicsEnabledCommands(t *testing.T) {

	assert := assert.New(t)

	topics := deriveTopics("hmd", "media_player", "Receiver", "Player",
		[]TopicRole{RolePlay, RoleVolumeSet})

	assert.Equal("hmd/media_player/receiver/player/play", topics[RolePlay], "play topic")
	assert.Equal("hmd/media_player/receiver/player/volume_set", topics[RoleVolumeSet], "volume_set topic")
	assert.False(topics.Has(RolePause), "pause not enabled")
}

func TestDeriveTopicsDeterministic(t *testing.T) {

	assert := assert.New(t)

	enabled := []TopicRole{RolePlay, RolePause, RoleSeek}
	a := deriveTopics("hmd", "media_player", "Dev", "Player", enabled)
	b := deriveTopics("hmd", "media_player", "Dev", "Player", enabled)

	assert.Equal(a, b, "identical inputs yield identical topic sets")
}

func TestDiscoveryKey(t *testing.T) {

	assert := assert.New(t)

	assert.Equal("state_topic", RoleState.DiscoveryKey(), "mapped key")
	assert.Equal("media_album_name_topic", RoleAlbum.DiscoveryKey(), "mapped key")
	assert.Equal("volume_set_topic", RoleVolumeSet.DiscoveryKey(), "fallback key")
}
