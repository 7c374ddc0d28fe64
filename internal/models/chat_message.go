package models

import "time"

// ChatMessage is the persisted projection of a routed chat or private
// envelope. Rows are insert-only; retention flips is_deleted instead of
// removing them.
type ChatMessage struct {
	ID         int64     `json:"id"`
	FromUser   string    `json:"fromUser"`
	ToUser     string    `json:"toUser,omitempty"`
	Content    string    `json:"content"`
	MsgType    string    `json:"msgType,omitempty"`
	FileUrl    string    `json:"fileUrl,omitempty"`
	FileSize   int64     `json:"fileSize,omitempty"`
	CreateTime time.Time `json:"time"`
	Type       string    `json:"type"`
	Deleted    bool      `json:"-"`
	Version    int32     `json:"-"`
}
