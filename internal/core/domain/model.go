package domain

import (
	"github.com/berfenger/entity2mqtt/pkg/hamqtt"
)

const (
	ACTOR_ID_PLAYER = "player"
)

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}

// Playback commands routed from the MQTT callbacks into the player actor.

type PlayCommand struct{}

type PauseCommand struct{}

type StopCommand struct{}

type NextTrackCommand struct{}

type PreviousTrackCommand struct{}

type SetVolumeCommand struct {
	Volume float64
}

type SeekCommand struct {
	Position int
}

type SetMuteCommand struct {
	Muted bool
}

type SetShuffleCommand struct {
	Shuffle bool
}

type SetRepeatCommand struct {
	Mode hamqtt.RepeatMode
}

type SelectSourceCommand struct {
	Source string
}

type PowerCommand struct {
	On bool
}

type PlayMediaCommand struct {
	Request hamqtt.PlayMediaRequest
}
