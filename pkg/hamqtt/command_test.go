package hamqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestDecodeNumeric(t *testing.T) {

	assert := assert.New(t)

	value, err := decodePayload(kindNumeric, "0.75")
	assert.NoError(err)
	assert.Equal(0.75, value, "float decoded")

	value, err = decodePayload(kindNumeric, "42")
	assert.NoError(err)
	assert.Equal(42.0, value, "integer text decodes as float")

	_, err = decodePayload(kindNumeric, "loud")
	assert.Error(err, "non-numeric rejected")

	_, err = decodePayload(kindNumeric, "")
	assert.Error(err, "empty rejected")
}

func TestDecodeBoolean(t *testing.T) {

	assert := assert.New(t)

	for _, payload := range []string{"ON", "on", "On"} {
		value, err := decodePayload(kindBoolean, payload)
		assert.NoError(err)
		assert.Equal(true, value, "%q is true", payload)
	}
	for _, payload := range []string{"OFF", "off", "true", "1", ""} {
		value, err := decodePayload(kindBoolean, payload)
		assert.NoError(err)
		assert.Equal(false, value, "%q is false", payload)
	}
}

func TestDecodeRepeat(t *testing.T) {

	assert := assert.New(t)

	for _, payload := range []string{"off", "all", "one"} {
		value, err := decodePayload(kindRepeat, payload)
		assert.NoError(err)
		assert.Equal(RepeatMode(payload), value, "mode %q", payload)
	}

	_, err := decodePayload(kindRepeat, "ALL")
	assert.Error(err, "repeat modes are case-sensitive")

	_, err = decodePayload(kindRepeat, "twice")
	assert.Error(err, "unknown mode rejected")
}

func TestDecodePlayMedia(t *testing.T) {

	assert := assert.New(t)

	value, err := decodePayload(kindPlayMedia, `{"media_type":"music","media_id":"id1","enqueue":"next"}`)
	assert.NoError(err)
	req := value.(PlayMediaRequest)
	assert.Equal("music", req.MediaType)
	assert.Equal("id1", req.MediaID)
	assert.Equal("next", req.Enqueue)

	_, err = decodePayload(kindPlayMedia, `{"media_type":"music"}`)
	assert.Error(err, "media_id required")

	_, err = decodePayload(kindPlayMedia, `{"media_id":"id1"}`)
	assert.Error(err, "media_type required")

	_, err = decodePayload(kindPlayMedia, `not json`)
	assert.Error(err, "malformed JSON rejected")
}

func TestDecodeSimpleAndOpaquePassThrough(t *testing.T) {

	assert := assert.New(t)

	value, err := decodePayload(kindSimple, "PLAY")
	assert.NoError(err)
	assert.Equal("PLAY", value)

	value, err = decodePayload(kindOpaque, "HDMI 1")
	assert.NoError(err)
	assert.Equal("HDMI 1", value)
}

func TestDispatchDropsInvalidUTF8(t *testing.T) {

	assert := assert.New(t)

	called := false
	table := newCommandTable([]command{
		{role: RolePlay, kind: kindSimple, invoke: func(any, Message) { called = true }},
	}, zap.NewNop())

	table.dispatch(&fakeMessage{topic: "hmd/media_player/p/play", payload: []byte{0xff, 0xfe}})

	assert.False(called, "invalid UTF-8 never reaches the handler")
}

func TestEnabledRoles(t *testing.T) {

	assert := assert.New(t)

	table := newCommandTable([]command{
		{role: RolePlay, kind: kindSimple, invoke: func(any, Message) {}},
		{role: RolePause, kind: kindSimple},
		{role: RoleSeek, kind: kindNumeric, invoke: func(any, Message) {}},
	}, zap.NewNop())

	roles := table.enabledRoles()
	assert.Len(roles, 2, "only commands with handlers")
	assert.Contains(roles, RolePlay)
	assert.Contains(roles, RoleSeek)
	assert.NotContains(roles, RolePause)
}
