package hamqtt

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// payloadKind selects the decode rule applied to an inbound command payload
// before the handler is invoked.
type payloadKind int

const (
	// kindSimple: transport-defined trigger payload, passed through as-is.
	kindSimple payloadKind = iota
	// kindNumeric: float payload (volume_set, seek).
	kindNumeric
	// kindBoolean: "ON" (case-insensitive) is true, anything else is false.
	kindBoolean
	// kindRepeat: closed set off/all/one.
	kindRepeat
	// kindOpaque: free-form string (select_source, select_sound_mode).
	kindOpaque
	// kindPlayMedia: JSON object describing the media to play.
	kindPlayMedia
)

// RepeatMode is a media player repeat setting.
type RepeatMode string

const (
	RepeatOff RepeatMode = "off"
	RepeatAll RepeatMode = "all"
	RepeatOne RepeatMode = "one"
)

func validRepeatMode(mode RepeatMode) bool {
	switch mode {
	case RepeatOff, RepeatAll, RepeatOne:
		return true
	}
	return false
}

// PlayMediaRequest is the decoded payload of a play_media command.
type PlayMediaRequest struct {
	MediaType string `json:"media_type"`
	MediaID   string `json:"media_id"`
	Enqueue   string `json:"enqueue,omitempty"`
	Announce  bool   `json:"announce,omitempty"`
}

// command binds a topic role to its payload decode rule and the registered
// handler. A nil invoke slot means the capability is not enabled; there is
// no separate boolean flag.
type command struct {
	role   TopicRole
	kind   payloadKind
	invoke func(value any, msg Message)
}

// commandTable indexes commands by role and owns the dispatch loop.
type commandTable struct {
	commands map[TopicRole]command
	logger   *zap.Logger
}

func newCommandTable(commands []command, logger *zap.Logger) *commandTable {
	table := &commandTable{
		commands: make(map[TopicRole]command, len(commands)),
		logger:   logger,
	}
	for _, cmd := range commands {
		table.commands[cmd.role] = cmd
	}
	return table
}

// enabledRoles returns the roles with a registered handler, in table order.
func (t *commandTable) enabledRoles() []TopicRole {
	roles := make([]TopicRole, 0, len(t.commands))
	for role, cmd := range t.commands {
		if cmd.invoke != nil {
			roles = append(roles, role)
		}
	}
	return roles
}

// dispatch routes one inbound message to its handler. Every failure mode
// (bad UTF-8, unknown command, undecodable payload, handler panic) is logged
// and swallowed; the paho callback goroutine must never see an error.
func (t *commandTable) dispatch(msg Message) {
	topic := msg.Topic()
	raw := msg.Payload()
	if !utf8.Valid(raw) {
		t.logger.Error("dropping command with invalid UTF-8 payload",
			zap.String("topic", topic))
		return
	}
	payload := string(raw)

	role := TopicRole(topic[strings.LastIndex(topic, "/")+1:])
	cmd, ok := t.commands[role]
	if !ok || cmd.invoke == nil {
		t.logger.Warn("no callback registered for command",
			zap.String("command", string(role)))
		return
	}

	value, err := decodePayload(cmd.kind, payload)
	if err != nil {
		t.logger.Error("dropping undecodable command payload",
			zap.String("command", string(role)), zap.String("payload", payload), zap.Error(err))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("command callback panicked",
				zap.String("command", string(role)), zap.Any("panic", r))
		}
	}()
	cmd.invoke(value, msg)
}

// decodePayload applies the per-kind payload decode rule. The returned value
// is the concrete type the handler slot expects.
func decodePayload(kind payloadKind, payload string) (any, error) {
	switch kind {
	case kindSimple, kindOpaque:
		return payload, nil
	case kindNumeric:
		value, err := strconv.ParseFloat(payload, 64)
		if err != nil {
			return nil, fmt.Errorf("expected numeric payload: %w", err)
		}
		return value, nil
	case kindBoolean:
		return strings.EqualFold(payload, "ON"), nil
	case kindRepeat:
		mode := RepeatMode(payload)
		if !validRepeatMode(mode) {
			return nil, fmt.Errorf("invalid repeat mode %q", payload)
		}
		return mode, nil
	case kindPlayMedia:
		var req PlayMediaRequest
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return nil, fmt.Errorf("invalid play_media payload: %w", err)
		}
		if req.MediaType == "" || req.MediaID == "" {
			return nil, fmt.Errorf("play_media payload requires media_type and media_id")
		}
		return req, nil
	}
	return nil, fmt.Errorf("unknown payload kind %d", kind)
}
