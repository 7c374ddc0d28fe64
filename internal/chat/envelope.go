package chat

import (
	"encoding/json"
	"errors"

	"chatroom-server/internal/models"
)

type EnvelopeType string

const (
	TypeChat      EnvelopeType = "chat"
	TypePrivate   EnvelopeType = "private"
	TypeHistory   EnvelopeType = "history"
	TypeSystem    EnvelopeType = "system"
	TypeUserCount EnvelopeType = "userCount"
	TypeUserList  EnvelopeType = "userList"
	TypeError     EnvelopeType = "error"
)

var (
	ErrMalformedEnvelope   = errors.New("malformed envelope")
	ErrUnknownMessageType  = errors.New("unknown message type")
	ErrDuplicateConnection = errors.New("duplicate connection")
)

// Envelope is the wire unit exchanged with clients. Inbound frames fill
// the top block; the paging fields only matter for history requests and
// the reply fields are only ever set by the server.
type Envelope struct {
	Type     EnvelopeType `json:"type"`
	FromUser string       `json:"fromUser,omitempty"`
	ToUser   string       `json:"toUser,omitempty"`
	Content  string       `json:"content,omitempty"`
	MsgType  string       `json:"msgType,omitempty"`
	FileUrl  string       `json:"fileUrl,omitempty"`
	FileSize int64        `json:"fileSize,omitempty"`
	Time     string       `json:"time,omitempty"`

	Page   int    `json:"page,omitempty"`
	Size   int    `json:"size,omitempty"`
	Filter string `json:"filter,omitempty"`

	Users   []string              `json:"users,omitempty"`
	Records []*models.ChatMessage `json:"records,omitempty"`
	Total   int64                 `json:"total,omitempty"`
}

// ParseEnvelope decodes one inbound frame. Unknown JSON fields are
// ignored; a frame without a type is as useless as one that does not
// decode, so both map to ErrMalformedEnvelope.
func ParseEnvelope(payload []byte) (*Envelope, error) {
	env := &Envelope{}
	if err := json.Unmarshal(payload, env); err != nil {
		return nil, ErrMalformedEnvelope
	}
	if env.Type == "" {
		return nil, ErrMalformedEnvelope
	}
	return env, nil
}

func errorEnvelope(content string) *Envelope {
	return &Envelope{Type: TypeError, Content: content}
}
