package store

import (
	"context"
	"errors"

	callmodel "PPRealtime/module/call/model"
	"PPRealtime/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Mongo struct {
	CallColl *mongo.Collection // calls
}

func NewMongo(db *mongo.Database) *Mongo {
	c := callmodel.Call{}
	return &Mongo{CallColl: db.Collection(c.GetTableName())}
}

func (s *Mongo) InsertCalls(ctx context.Context, legs ...*callmodel.Call) error {
	docs := make([]any, 0, len(legs))
	for _, l := range legs {
		docs = append(docs, l)
	}
	if _, err := s.CallColl.InsertMany(ctx, docs); err != nil {
		return errs.WrapMsg(err, "insert calls failed")
	}
	return nil
}

// LatestByCaller 主叫最近一条记录；没有返回 (nil, nil)
func (s *Mongo) LatestByCaller(ctx context.Context, callerID string) (*callmodel.Call, error) {
	var c callmodel.Call
	err := s.CallColl.FindOne(ctx,
		bson.M{"caller_id": callerID},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "find call failed", "callerId", callerID)
	}
	return &c, nil
}

func (s *Mongo) FindByCallID(ctx context.Context, callID string) (*callmodel.Call, error) {
	var c callmodel.Call
	err := s.CallColl.FindOne(ctx, bson.M{"call_id": callID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "find call failed", "callId", callID)
	}
	return &c, nil
}

// DeleteByParticipants 删除主叫发起的和被叫接到的全部通话腿
func (s *Mongo) DeleteByParticipants(ctx context.Context, callerID, receiverID string) error {
	if _, err := s.CallColl.DeleteMany(ctx, bson.M{"caller_id": callerID}); err != nil {
		return errs.WrapMsg(err, "delete caller calls failed", "callerId", callerID)
	}
	if _, err := s.CallColl.DeleteMany(ctx, bson.M{"receiver_id": receiverID}); err != nil {
		return errs.WrapMsg(err, "delete receiver calls failed", "receiverId", receiverID)
	}
	return nil
}
