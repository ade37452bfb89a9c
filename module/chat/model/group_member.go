package model

import "time"

// GroupMember 表示群内的单个成员记录。
// 一条记录对应一个群 + 一个用户（唯一键: group_id+user_id）。
type GroupMember struct {
	GroupID  string    `bson:"group_id" json:"groupId"`
	UserID   string    `bson:"user_id" json:"userId"`
	JoinTime time.Time `bson:"join_time" json:"joinTime"`
}

func (g *GroupMember) GetTableName() string {
	return "group_members"
}
