package model

import "time"

// User 用户主档，由 REST 侧维护；网关只读 uid / isBlocked
type User struct {
	UID         string    `bson:"uid" json:"uid"` // 规范化后的手机号，主键
	Name        string    `bson:"name" json:"name"`
	ProfilePic  string    `bson:"profile_pic" json:"profilePic"`
	PhoneNumber string    `bson:"phone_number" json:"phoneNumber"`
	IsOnline    bool      `bson:"is_online" json:"isOnline"` // 展示用，允许轻微不一致
	IsAdmin     bool      `bson:"is_admin" json:"isAdmin"`
	IsBlocked   bool      `bson:"is_blocked" json:"isBlocked"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updatedAt"`
}

func (u *User) GetUserID() string {
	return u.UID
}

func (u *User) GetTableName() string {
	return "users"
}
