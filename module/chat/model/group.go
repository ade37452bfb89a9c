package model

import (
	"time"
)

// Group 群元数据；成员见 GroupMember
type Group struct {
	GroupID     string    `bson:"group_id" json:"groupId"`
	SenderID    string    `bson:"sender_id" json:"senderId"` // 创建者
	Name        string    `bson:"name" json:"name"`
	LastMessage string    `bson:"last_message" json:"lastMessage"` // 列表页展示用的摘要
	GroupPic    string    `bson:"group_pic" json:"groupPic"`
	TimeSent    time.Time `bson:"time_sent" json:"timeSent"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updatedAt"`
}

func (g *Group) GetTableName() string {
	return "groups"
}
