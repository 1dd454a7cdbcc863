package net

import "encoding/json"

// Client -> server message types. Unknown types are ignored.
const (
	MsgJoin  = "join"
	MsgClick = "click"
	MsgLeave = "leave"
)

// Envelope wraps all outgoing messages with a type field.
type Envelope struct {
	T    string `json:"t"`
	Data any    `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages — json.RawMessage avoids
// double-unmarshal.
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// JoinMsg is the first message a client sends. Ticket carries a signed join
// ticket from the platform; Name is used for guest joins when no ticket
// secret is configured.
type JoinMsg struct {
	Ticket string `json:"ticket,omitempty"`
	Name   string `json:"name,omitempty"`
}

// ClickMsg is one click on a live instance.
type ClickMsg struct {
	Instance int64 `json:"i"`
}

// Inbound is a parsed client message handed to the game loop.
type Inbound struct {
	Client *Client
	T      string
	D      json.RawMessage
}
