package gateway

// clientMessage is the envelope for everything a websocket client sends us.
type clientMessage struct {
	Type string `json:"type"`

	// subscribe
	Channels []string `json:"channels,omitempty"`

	// ack
	EventID string `json:"event_id,omitempty"`
	OK      *bool  `json:"ok,omitempty"`
	Error   string `json:"error,omitempty"`

	// input
	EntityID string   `json:"entity_id,omitempty"`
	Option   *int     `json:"option,omitempty"`
	Text     string   `json:"text,omitempty"`
	Value    *float64 `json:"value,omitempty"`
}

const (
	clientMsgSubscribe = "subscribe"
	clientMsgAck       = "ack"
	clientMsgInput     = "input"
)

// inputResult tells the client whether its submission was accepted.
type inputResult struct {
	Type     string `json:"type"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}
