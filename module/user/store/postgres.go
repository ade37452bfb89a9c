package store

import (
	"context"
	"errors"

	usermodel "PPRealtime/module/user/model"
	"PPRealtime/tools/errs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres 读 REST 侧维护的 users / group_members 表（列名是 camelCase，需要加引号）
type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

// OpenPostgres 建连接池并 ping 一次
func OpenPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errs.WrapMsg(err, "create pgx pool failed")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errs.WrapMsg(err, "ping postgres failed")
	}
	return pool, nil
}

func (r *Postgres) FindUser(ctx context.Context, uid string) (*usermodel.User, error) {
	query := `
		SELECT uid, name, "profilePic", "phoneNumber", "isOnline", "isAdmin", "isBlocked", "createdAt", "updatedAt"
		FROM users
		WHERE uid = $1
	`
	var u usermodel.User
	err := r.db.QueryRow(ctx, query, uid).Scan(
		&u.UID, &u.Name, &u.ProfilePic, &u.PhoneNumber,
		&u.IsOnline, &u.IsAdmin, &u.IsBlocked, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "query user failed", "uid", uid)
	}
	return &u, nil
}

func (r *Postgres) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM group_members WHERE "groupId" = $1 AND "userId" = $2)`,
		groupID, userID,
	).Scan(&ok)
	if err != nil {
		return false, errs.WrapMsg(err, "query group member failed", "groupId", groupID)
	}
	return ok, nil
}

// ===== 在线状态镜像：只维护 users."isOnline" 展示字段 =====

func (r *Postgres) Online(ctx context.Context, userID, _ string) error {
	return r.setOnline(ctx, userID, true)
}

func (r *Postgres) Offline(ctx context.Context, userID string) error {
	return r.setOnline(ctx, userID, false)
}

// Touch 心跳不落库
func (r *Postgres) Touch(context.Context, string, string) error { return nil }

func (r *Postgres) setOnline(ctx context.Context, userID string, online bool) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET "isOnline" = $2, "updatedAt" = now() WHERE uid = $1`,
		userID, online,
	)
	return errs.WrapMsg(err, "update isOnline failed", "uid", userID)
}
