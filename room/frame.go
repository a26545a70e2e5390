package room

// Wire frames exchanged with the room gateway. Payload bytes are opaque
// to the connection; topics scope delivery within the room.
const (
	frameData              = "data"               // inbound payload on a topic
	frameParticipantJoined = "participant_joined" // presence event
	framePublish           = "publish"            // outbound payload on a topic
	frameAck               = "ack"                // delivery ack for a reliable publish
)

type frame struct {
	Type     string `json:"type"`
	Topic    string `json:"topic,omitempty"`
	Data     []byte `json:"data,omitempty"`
	Identity string `json:"identity,omitempty"`
	Seq      uint64 `json:"seq,omitempty"`
	Reliable bool   `json:"reliable,omitempty"`
}
