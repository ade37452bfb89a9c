package model

import "time"

type CallType string

const (
	CallAudio CallType = "audio"
	CallVideo CallType = "video"
)

// Call 一条通话腿记录；一次通话落两条：主叫腿(hasDialled 取请求值) 与被叫腿(hasDialled=false)
type Call struct {
	CallerID     string    `bson:"caller_id" json:"callerId"`
	CallerName   string    `bson:"caller_name" json:"callerName"`
	CallerPic    string    `bson:"caller_pic" json:"callerPic"`
	ReceiverID   string    `bson:"receiver_id" json:"receiverId"`
	ReceiverName string    `bson:"receiver_name" json:"receiverName"`
	ReceiverPic  string    `bson:"receiver_pic" json:"receiverPic"`
	CallID       string    `bson:"call_id" json:"callId"`
	HasDialled   bool      `bson:"has_dialled" json:"hasDialled"`
	Type         CallType  `bson:"type" json:"type"`
	CreatedAt    time.Time `bson:"created_at" json:"createdAt"`
}

func (c *Call) GetTableName() string {
	return "calls"
}

func (t CallType) Valid() bool {
	return t == CallAudio || t == CallVideo
}
