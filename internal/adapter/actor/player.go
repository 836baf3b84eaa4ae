package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/entity2mqtt/internal/config"
	"github.com/berfenger/entity2mqtt/internal/core/domain"
	"github.com/berfenger/entity2mqtt/internal/util/actorutil"
	"github.com/berfenger/entity2mqtt/pkg/hamqtt"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/scheduler"
	"github.com/carlmjohnson/versioninfo"
	"github.com/reugn/go-quartz/logger"
	"go.uber.org/zap"
)

type track struct {
	title    string
	artist   string
	album    string
	duration int
}

// built-in playlist for the simulated player
var demoPlaylist = []track{
	{title: "Interstate Hum", artist: "Gray Lanes", album: "Night Drive", duration: 214},
	{title: "Paper Satellites", artist: "Gray Lanes", album: "Night Drive", duration: 187},
	{title: "Low Water Mark", artist: "The Mill Ponds", album: "Undertow", duration: 243},
	{title: "Glasshouse", artist: "The Mill Ponds", album: "Undertow", duration: 201},
}

// PlayerActor drives a simulated media player over MQTT. The MQTT callbacks
// run on the paho network goroutine and only forward messages to the actor;
// all playback state lives here.
type PlayerActor struct {
	behavior  actor.Behavior
	stash     *actorutil.Stash
	scheduler *scheduler.TimerScheduler

	config *config.Config
	player *hamqtt.MediaPlayer
	logger *zap.Logger

	current   int
	position  int
	playing   bool
	poweredOn bool
	source    string
}

type playerTick struct {
}

func NewPlayerActor(cfg *config.Config, logger *zap.Logger) *PlayerActor {
	act := &PlayerActor{
		config:    cfg,
		behavior:  actor.NewBehavior(),
		stash:     &actorutil.Stash{},
		logger:    actorutil.ActorLogger(domain.ACTOR_ID_PLAYER, logger),
		poweredOn: true,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *PlayerActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *PlayerActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("player@starting started")

		player, err := hamqtt.NewMediaPlayer(state.settings(), state.entityInfo(), state.callbacks(ctx))
		if err != nil {
			panic(err)
		}
		state.player = player

		// connect to MQTT server. If the broker is unreachable, stop and
		// let the supervisor decide.
		if err := player.Connect(); err != nil {
			panic(err)
		}

		if state.config.Player.TickIntervalMillis > 0 {
			state.scheduler = scheduler.NewTimerScheduler(ctx)
			state.scheduler.RequestOnce(state.tickInterval(), ctx.Self(), playerTick{})
		}

		state.announceTrack()
		state.publishState()

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
		state.stop()
	default:
		state.logger.Debug("player@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *PlayerActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	case domain.ActorHealthRequest:
		state.logger.Debug("player@default ActorHealthRequest")
		actorutil.ForRequest(msg).Respond(ctx, domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_PLAYER,
			Healthy: true,
			State:   state.playerState(),
		})
	case playerTick:
		state.onTick()
		state.scheduler.RequestOnce(state.tickInterval(), ctx.Self(), playerTick{})
	case domain.PlayCommand:
		state.logger.Debug("player@default PlayCommand")
		if state.poweredOn {
			state.playing = true
			state.publishState()
		}
	case domain.PauseCommand:
		state.logger.Debug("player@default PauseCommand")
		state.playing = false
		state.publishState()
	case domain.StopCommand:
		state.logger.Debug("player@default StopCommand")
		state.playing = false
		state.position = 0
		state.publishState()
		state.publishPosition()
	case domain.NextTrackCommand:
		state.logger.Debug("player@default NextTrackCommand")
		state.changeTrack((state.current + 1) % len(demoPlaylist))
	case domain.PreviousTrackCommand:
		state.logger.Debug("player@default PreviousTrackCommand")
		state.changeTrack((state.current + len(demoPlaylist) - 1) % len(demoPlaylist))
	case domain.SetVolumeCommand:
		state.logger.Debug("player@default SetVolumeCommand", zap.Float64("volume", msg.Volume))
		state.publishAsync(ctx, func() error {
			return state.player.SetVolume(msg.Volume)
		})
	case domain.SeekCommand:
		state.logger.Debug("player@default SeekCommand", zap.Int("position", msg.Position))
		state.position = state.clampPosition(msg.Position)
		state.publishPosition()
	case domain.SetMuteCommand:
		state.logger.Debug("player@default SetMuteCommand", zap.Bool("muted", msg.Muted))
		state.publishAsync(ctx, func() error {
			return state.player.SetMuted(msg.Muted)
		})
	case domain.SetShuffleCommand:
		state.logger.Debug("player@default SetShuffleCommand", zap.Bool("shuffle", msg.Shuffle))
		state.publishAsync(ctx, func() error {
			return state.player.SetShuffle(msg.Shuffle)
		})
	case domain.SetRepeatCommand:
		state.logger.Debug("player@default SetRepeatCommand", zap.String("mode", string(msg.Mode)))
		state.publishAsync(ctx, func() error {
			return state.player.SetRepeat(msg.Mode)
		})
	case domain.SelectSourceCommand:
		state.logger.Debug("player@default SelectSourceCommand", zap.String("source", msg.Source))
		state.source = msg.Source
	case domain.PowerCommand:
		state.logger.Debug("player@default PowerCommand", zap.Bool("on", msg.On))
		state.poweredOn = msg.On
		if !msg.On {
			state.playing = false
		}
		state.publishState()
	case domain.PlayMediaCommand:
		state.logger.Debug("player@default PlayMediaCommand", zap.String("media_id", msg.Request.MediaID))
		state.playRequestedMedia(msg.Request)
	default:
		state.logger.Debug("player@default: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

// callbacks forwards every MQTT command into the actor mailbox. The paho
// goroutine never touches playback state directly.
func (state *PlayerActor) callbacks(ctx actor.Context) hamqtt.MediaPlayerCallbacks {
	self := ctx.Self()
	return hamqtt.MediaPlayerCallbacks{
		Play: func(string, hamqtt.Message) {
			ctx.Send(self, domain.PlayCommand{})
		},
		Pause: func(string, hamqtt.Message) {
			ctx.Send(self, domain.PauseCommand{})
		},
		Stop: func(string, hamqtt.Message) {
			ctx.Send(self, domain.StopCommand{})
		},
		NextTrack: func(string, hamqtt.Message) {
			ctx.Send(self, domain.NextTrackCommand{})
		},
		PreviousTrack: func(string, hamqtt.Message) {
			ctx.Send(self, domain.PreviousTrackCommand{})
		},
		VolumeSet: func(volume float64, _ hamqtt.Message) {
			ctx.Send(self, domain.SetVolumeCommand{Volume: volume})
		},
		Seek: func(position float64, _ hamqtt.Message) {
			ctx.Send(self, domain.SeekCommand{Position: int(position)})
		},
		VolumeMute: func(muted bool, _ hamqtt.Message) {
			ctx.Send(self, domain.SetMuteCommand{Muted: muted})
		},
		ShuffleSet: func(shuffle bool, _ hamqtt.Message) {
			ctx.Send(self, domain.SetShuffleCommand{Shuffle: shuffle})
		},
		RepeatSet: func(mode hamqtt.RepeatMode, _ hamqtt.Message) {
			ctx.Send(self, domain.SetRepeatCommand{Mode: mode})
		},
		SelectSource: func(source string, _ hamqtt.Message) {
			ctx.Send(self, domain.SelectSourceCommand{Source: source})
		},
		TurnOn: func(string, hamqtt.Message) {
			ctx.Send(self, domain.PowerCommand{On: true})
		},
		TurnOff: func(string, hamqtt.Message) {
			ctx.Send(self, domain.PowerCommand{On: false})
		},
		PlayMedia: func(req hamqtt.PlayMediaRequest, _ hamqtt.Message) {
			ctx.Send(self, domain.PlayMediaCommand{Request: req})
		},
	}
}

func (state *PlayerActor) settings() hamqtt.Settings {
	return hamqtt.Settings{
		MQTT: hamqtt.MQTTSettings{
			Host:            state.config.MQTT.Host,
			Port:            state.config.MQTT.Port,
			Username:        state.config.MQTT.Username,
			Password:        state.config.MQTT.Password,
			ClientName:      state.config.MQTT.ClientName,
			UseTLS:          state.config.MQTT.UseTLS,
			StatePrefix:     state.config.MQTT.StatePrefix,
			DiscoveryPrefix: state.config.MQTT.DiscoveryPrefix,
		},
		Logger: state.logger,
	}
}

func (state *PlayerActor) entityInfo() hamqtt.MediaPlayerInfo {
	return hamqtt.MediaPlayerInfo{
		EntityInfo: hamqtt.EntityInfo{
			Name:        state.config.Player.Name,
			UniqueID:    fmt.Sprintf("entity2mqtt_%s", hamqtt.CleanString(state.config.Player.Name)),
			DeviceClass: hamqtt.DeviceClassSpeaker,
			Device: &hamqtt.DeviceInfo{
				Identifiers:  []string{hamqtt.CleanString(state.config.Player.DeviceName)},
				Name:         state.config.Player.DeviceName,
				Manufacturer: "entity2mqtt",
				Model:        "demo player",
				SWVersion:    versioninfo.Short(),
			},
		},
		SourceList: state.config.Player.Sources,
	}
}

func (state *PlayerActor) tickInterval() time.Duration {
	return time.Duration(state.config.Player.TickIntervalMillis) * time.Millisecond
}

func (state *PlayerActor) playerState() string {
	switch {
	case !state.poweredOn:
		return hamqtt.StateOff
	case state.playing:
		return hamqtt.StatePlaying
	case state.position > 0:
		return hamqtt.StatePaused
	default:
		return hamqtt.StateIdle
	}
}

// onTick advances the simulated position and rolls over to the next track
// at the end of the current one.
func (state *PlayerActor) onTick() {
	if !state.playing {
		return
	}
	step := int(state.tickInterval() / time.Second)
	if step <= 0 {
		step = 1
	}
	state.position += step
	if state.position >= demoPlaylist[state.current].duration {
		state.changeTrack((state.current + 1) % len(demoPlaylist))
		return
	}
	state.publishPosition()
}

func (state *PlayerActor) changeTrack(index int) {
	state.current = index
	state.position = 0
	state.announceTrack()
	state.publishPosition()
}

func (state *PlayerActor) playRequestedMedia(req hamqtt.PlayMediaRequest) {
	if !state.poweredOn {
		return
	}
	state.playing = true
	state.position = 0
	current := demoPlaylist[state.current]
	title := req.MediaID
	duration := current.duration
	if err := state.player.UpdateMediaInfo(hamqtt.MediaInfo{
		Title:    &title,
		Duration: &duration,
		Position: &state.position,
	}); err != nil {
		logger.Error(err)
	}
	state.publishState()
}

func (state *PlayerActor) announceTrack() {
	current := demoPlaylist[state.current]
	if err := state.player.UpdateMediaInfo(hamqtt.MediaInfo{
		Title:    &current.title,
		Artist:   &current.artist,
		Album:    &current.album,
		Duration: &current.duration,
	}); err != nil {
		logger.Error(err)
	}
}

func (state *PlayerActor) publishState() {
	if err := state.player.SetState(state.playerState()); err != nil {
		logger.Error(err)
	}
}

func (state *PlayerActor) publishPosition() {
	if err := state.player.SetPosition(state.position); err != nil {
		logger.Error(err)
	}
}

// publishAsync runs a publish with a deadline so a stuck broker cannot wedge
// the mailbox forever.
func (state *PlayerActor) publishAsync(ctx actor.Context, fn func() error) {
	actorutil.NewBackgroundTaskErr(ctx, fn).
		WithTimeout(2 * time.Second).
		OnError(func(err error) {
			logger.Error(err)
		}).Run()
}

func (state *PlayerActor) clampPosition(position int) int {
	if position < 0 {
		return 0
	}
	if max := demoPlaylist[state.current].duration; position > max {
		return max
	}
	return position
}

func (state *PlayerActor) stop() {
	if state.player != nil {
		state.player.Close()
	}
}
