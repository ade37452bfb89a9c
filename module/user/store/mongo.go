package store

import (
	"context"
	"errors"

	usermodel "PPRealtime/module/user/model"
	"PPRealtime/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Mongo users 集合的只读视图
type Mongo struct {
	UserColl *mongo.Collection
}

func NewMongo(db *mongo.Database) *Mongo {
	u := usermodel.User{}
	return &Mongo{UserColl: db.Collection(u.GetTableName())}
}

func (s *Mongo) FindUser(ctx context.Context, uid string) (*usermodel.User, error) {
	var u usermodel.User
	err := s.UserColl.FindOne(ctx, bson.M{"uid": uid}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "find user failed", "uid", uid)
	}
	return &u, nil
}
