package hamqtt

import (
	"regexp"
	"strings"
)

// TopicRole is the symbolic name of one function of a topic (e.g. "volume_set"),
// independent of its final string form. The role doubles as the last path
// segment of the derived topic.
type TopicRole string

// State roles, always derived for a media player.
const (
	RoleState        TopicRole = "state"
	RoleTitle        TopicRole = "title"
	RoleArtist       TopicRole = "artist"
	RoleAlbum        TopicRole = "album"
	RoleDuration     TopicRole = "duration"
	RolePosition     TopicRole = "position"
	RoleVolume       TopicRole = "volume"
	RoleAlbumArt     TopicRole = "albumart"
	RoleAvailability TopicRole = "availability"
)

// Command roles, derived only when the matching callback is registered.
const (
	RolePlay            TopicRole = "play"
	RolePause           TopicRole = "pause"
	RoleStop            TopicRole = "stop"
	RoleNextTrack       TopicRole = "next_track"
	RolePreviousTrack   TopicRole = "previous_track"
	RoleVolumeSet       TopicRole = "volume_set"
	RoleSeek            TopicRole = "seek"
	RoleVolumeMute      TopicRole = "volume_mute"
	RoleShuffleSet      TopicRole = "shuffle_set"
	RoleRepeatSet       TopicRole = "repeat_set"
	RoleSelectSource    TopicRole = "select_source"
	RoleSelectSoundMode TopicRole = "select_sound_mode"
	RoleTurnOn          TopicRole = "turn_on"
	RoleTurnOff         TopicRole = "turn_off"
	RolePlayMedia       TopicRole = "play_media"
	RoleBrowseMedia     TopicRole = "browse_media"
)

var stateRoles = []TopicRole{
	RoleState, RoleTitle, RoleArtist, RoleAlbum, RoleDuration,
	RolePosition, RoleVolume, RoleAlbumArt, RoleAvailability,
}

// discoveryKeyByRole maps a topic role to its key in the discovery payload.
// Roles missing from the table use "<role>_topic".
var discoveryKeyByRole = map[TopicRole]string{
	RoleState:        "state_topic",
	RoleTitle:        "media_title_topic",
	RoleArtist:       "media_artist_topic",
	RoleAlbum:        "media_album_name_topic",
	RoleDuration:     "media_duration_topic",
	RolePosition:     "media_position_topic",
	RoleVolume:       "volume_level_topic",
	RoleAlbumArt:     "media_image_url_topic",
	RoleAvailability: "availability_topic",
}

// DiscoveryKey returns the discovery payload key for a topic role.
func (r TopicRole) DiscoveryKey() string {
	if key, ok := discoveryKeyByRole[r]; ok {
		return key
	}
	return string(r) + "_topic"
}

var cleanStringRegexp = regexp.MustCompile("[^A-Za-z0-9_-]")

// CleanString lowercases raw and replaces every character outside
// [a-z0-9_-] with a dash. The MQTT discovery convention only allows that
// character set in topic path segments. Idempotent.
func CleanString(raw string) string {
	return strings.ToLower(cleanStringRegexp.ReplaceAllString(raw, "-"))
}

// TopicSet maps topic roles to fully qualified topic strings. Computed once
// at entity construction and never mutated afterwards.
type TopicSet map[TopicRole]string

// Has reports whether a role was derived.
func (t TopicSet) Has(role TopicRole) bool {
	_, ok := t[role]
	return ok
}

// entityBasePath builds "component[/cleanedDeviceName]/cleanedEntityName".
func entityBasePath(component, deviceName, entityName string) string {
	parts := []string{component}
	if deviceName != "" {
		parts = append(parts, CleanString(deviceName))
	}
	parts = append(parts, CleanString(entityName))
	return strings.Join(parts, "/")
}

// deriveTopics computes the full topic set for an entity: every state role
// plus the command roles listed in enabledCommands. Pure function of its
// inputs; identical inputs yield identical sets.
func deriveTopics(statePrefix, component, deviceName, entityName string, enabledCommands []TopicRole) TopicSet {
	base := statePrefix + "/" + entityBasePath(component, deviceName, entityName)
	topics := make(TopicSet, len(stateRoles)+len(enabledCommands))
	for _, role := range stateRoles {
		topics[role] = base + "/" + string(role)
	}
	for _, role := range enabledCommands {
		topics[role] = base + "/" + string(role)
	}
	return topics
}
