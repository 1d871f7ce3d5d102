package gateway

import "encoding/json"

// Event names for frames pushed to clients.
const (
	// EventChannelMetadata carries {channel_id, memberships_count} when a
	// channel's membership count changes.
	EventChannelMetadata = "CHANNEL_METADATA"
	// EventUserStatus carries a user-status patch map.
	EventUserStatus = "USER_STATUS"
)

// Frame is the wire format for every message pushed to a client.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}
