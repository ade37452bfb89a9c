package store

import (
	"context"
	"errors"
	"time"

	chatmodel "PPRealtime/module/chat/model"
	"PPRealtime/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo 消息 / 群 / 群成员三个集合
type Mongo struct {
	MsgColl    *mongo.Collection // messages
	GroupColl  *mongo.Collection // groups
	MemberColl *mongo.Collection // group_members
}

func NewMongo(db *mongo.Database) *Mongo {
	msg := chatmodel.Message{}
	grp := chatmodel.Group{}
	mem := chatmodel.GroupMember{}
	return &Mongo{
		MsgColl:    db.Collection(msg.GetTableName()),
		GroupColl:  db.Collection(grp.GetTableName()),
		MemberColl: db.Collection(mem.GetTableName()),
	}
}

// EnsureIndexes 启动时调用一次，重复调用无副作用
func (s *Mongo) EnsureIndexes(ctx context.Context) error {
	if _, err := s.MsgColl.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "message_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "time_sent", Value: 1}}},
		{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "receiver_id", Value: 1}, {Key: "time_sent", Value: 1}}},
	}); err != nil {
		return errs.WrapMsg(err, "create message indexes failed")
	}
	if _, err := s.MemberColl.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return errs.WrapMsg(err, "create group member index failed")
	}
	return nil
}

func (s *Mongo) InsertMessage(ctx context.Context, m *chatmodel.Message) error {
	if _, err := s.MsgColl.InsertOne(ctx, m); err != nil {
		return errs.WrapMsg(err, "insert message failed", "messageId", m.MessageID)
	}
	return nil
}

func (s *Mongo) FindMessage(ctx context.Context, messageID string) (*chatmodel.Message, error) {
	var m chatmodel.Message
	err := s.MsgColl.FindOne(ctx, bson.M{"message_id": messageID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrRecordNotFound.WrapMsg("message not found", "messageId", messageID)
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "find message failed", "messageId", messageID)
	}
	return &m, nil
}

func (s *Mongo) MarkMessageSeen(ctx context.Context, messageID string) error {
	_, err := s.MsgColl.UpdateOne(ctx,
		bson.M{"message_id": messageID},
		bson.M{"$set": bson.M{"is_seen": true}},
	)
	return errs.WrapMsg(err, "mark message seen failed", "messageId", messageID)
}

func (s *Mongo) UpdateGroupLastMessage(ctx context.Context, groupID, lastMessage string, at time.Time) error {
	_, err := s.GroupColl.UpdateOne(ctx,
		bson.M{"group_id": groupID},
		bson.M{"$set": bson.M{"last_message": lastMessage, "updated_at": at}},
	)
	return errs.WrapMsg(err, "update group last message failed", "groupId", groupID)
}

// IsMember 供 join-group 校验
func (s *Mongo) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	n, err := s.MemberColl.CountDocuments(ctx,
		bson.M{"group_id": groupID, "user_id": userID},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, errs.WrapMsg(err, "count group member failed", "groupId", groupID)
	}
	return n > 0, nil
}
