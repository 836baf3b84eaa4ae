package actor

import (
	"testing"

	"github.com/berfenger/entity2mqtt/internal/util"
	"github.com/berfenger/entity2mqtt/pkg/hamqtt"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func testPlayerActor() *PlayerActor {
	cfg := util.LoadTestConfig()
	return NewPlayerActor(&cfg, zap.NewNop())
}

func TestPlayerStateMapping(t *testing.T) {

	assert := assert.New(t)

	state := testPlayerActor()

	assert.Equal(hamqtt.StateIdle, state.playerState(), "powered on, nothing played yet")

	state.playing = true
	assert.Equal(hamqtt.StatePlaying, state.playerState(), "playing")

	state.playing = false
	state.position = 42
	assert.Equal(hamqtt.StatePaused, state.playerState(), "paused mid-track")

	state.poweredOn = false
	assert.Equal(hamqtt.StateOff, state.playerState(), "off wins over everything")
}

func TestPlayerClampPosition(t *testing.T) {

	assert := assert.New(t)

	state := testPlayerActor()
	max := demoPlaylist[state.current].duration

	assert.Equal(0, state.clampPosition(-3), "negative clamped to start")
	assert.Equal(max, state.clampPosition(max+100), "overshoot clamped to track end")
	assert.Equal(10, state.clampPosition(10), "in-range position kept")
}

func TestPlayerEntityInfo(t *testing.T) {

	assert := assert.New(t)

	state := testPlayerActor()
	info := state.entityInfo()

	assert.Equal("Test Player", info.Name, "entity name from config")
	assert.NotEmpty(info.UniqueID, "unique id derived")
	assert.NotNil(info.Device, "device attached")
	assert.Equal([]string{"Library", "Radio"}, info.SourceList, "sources from config")
}

func TestPlayerSettings(t *testing.T) {

	assert := assert.New(t)

	state := testPlayerActor()
	settings := state.settings()

	assert.Equal("localhost", settings.MQTT.Host, "broker host from config")
	assert.Equal("hmd", settings.MQTT.StatePrefix, "state prefix from config")
	assert.NotNil(settings.Logger, "actor logger injected")
}
