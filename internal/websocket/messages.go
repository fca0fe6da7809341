package websocket

// OutgoingMessage is what the hub queues for a client.
type OutgoingMessage struct {
	Envelope *ServerEnvelope
}

// ClientInMessage is the envelope for messages from client to server.
// Types: "chat" | "command" | "answer" | "sync_state"
type ClientInMessage struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// ServerEnvelope is the envelope for messages from server to client.
// Type: "event" | "state" | "error"
type ServerEnvelope struct {
	Type    string                 `json:"type"`
	Event   string                 `json:"event,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Client message types.
const (
	ClientMessageTypeChat      = "chat"
	ClientMessageTypeCommand   = "command"
	ClientMessageTypeAnswer    = "answer"
	ClientMessageTypeSyncState = "sync_state"
)

// Server event types carried in the "event" field of event envelopes.
const (
	ServerEventChat    = "chat"    // player chat line
	ServerEventGame    = "game"    // rendered engine event
	ServerEventSystem  = "system"  // announcements and replies
	ServerEventConfirm = "confirm" // yes/no prompt, answer with "answer"
	ServerEventRetract = "retract" // retract an earlier ephemeral message by id
	ServerEventState   = "state"   // full public snapshot
)

// Server envelope types.
const (
	ServerTypeEvent = "event"
	ServerTypeState = "state"
	ServerTypeError = "error"
)

// MaxChatMessageLength is the maximum allowed length for a chat message.
const MaxChatMessageLength = 2000

// MaxClientMessageTypeLength limits the "type" field to prevent abuse.
const MaxClientMessageTypeLength = 64

// ValidClientMessageTypes are the only allowed values for ClientInMessage.Type.
var ValidClientMessageTypes = map[string]bool{
	ClientMessageTypeChat:      true,
	ClientMessageTypeCommand:   true,
	ClientMessageTypeAnswer:    true,
	ClientMessageTypeSyncState: true,
}
