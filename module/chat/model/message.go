package model

import "time"

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageAudio MessageType = "audio"
	MessageVideo MessageType = "video"
	MessageGif   MessageType = "gif"
	MessageFile  MessageType = "file"
)

// Message 单聊时 ReceiverID 非空，群聊时 GroupID 非空，两者互斥
type Message struct {
	MessageID          string      `bson:"message_id" json:"messageId"`
	SenderID           string      `bson:"sender_id" json:"senderId"`
	ReceiverID         string      `bson:"receiver_id,omitempty" json:"receiverId,omitempty"`
	GroupID            string      `bson:"group_id,omitempty" json:"groupId,omitempty"`
	Text               string      `bson:"text" json:"text"`
	Type               MessageType `bson:"type" json:"type"`
	IsSeen             bool        `bson:"is_seen" json:"isSeen"`
	RepliedMessage     string      `bson:"replied_message,omitempty" json:"repliedMessage,omitempty"`
	RepliedTo          string      `bson:"replied_to,omitempty" json:"repliedTo,omitempty"`
	RepliedMessageType MessageType `bson:"replied_message_type,omitempty" json:"repliedMessageType,omitempty"`
	TimeSent           time.Time   `bson:"time_sent" json:"timeSent"`
}

func (m *Message) GetTableName() string {
	return "messages"
}

func (m *Message) IsGroup() bool {
	return m.GroupID != ""
}

func (t MessageType) Valid() bool {
	switch t {
	case MessageText, MessageImage, MessageAudio, MessageVideo, MessageGif, MessageFile:
		return true
	}
	return false
}
