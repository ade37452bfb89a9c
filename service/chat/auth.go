package chat

import (
	"context"
	"time"

	usermodel "PPRealtime/module/user/model"
	"PPRealtime/tools/errs"
	"PPRealtime/tools/security"
)

const DefaultAuthTimeout = 8 * time.Second

// Verifier 握手鉴权：校验 JWT，再向持久化侧确认账号未被封禁。
// 账号不存在视为尚未完成资料填写，照样放行。
type Verifier struct {
	opts    security.Options
	users   UserDirectory // 可为 nil，此时只校验令牌
	timeout time.Duration
}

func NewVerifier(opts security.Options, users UserDirectory, timeout time.Duration) *Verifier {
	if timeout <= 0 {
		timeout = DefaultAuthTimeout
	}
	return &Verifier{opts: opts, users: users, timeout: timeout}
}

type lookupResult struct {
	user *usermodel.User
	err  error
}

// Authenticate 失败时返回 errs.ErrUnauthenticated / errs.ErrForbidden（用 errors.Is 判断）
func (v *Verifier) Authenticate(ctx context.Context, rawCredential string) (string, error) {
	claims, err := security.Verify(v.opts, rawCredential)
	if err != nil {
		return "", err
	}
	uid := claims.Identity()
	if v.users == nil {
		return uid, nil
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	// 目录实现不一定尊重 ctx，这里自己兜住超时
	ch := make(chan lookupResult, 1)
	go func() {
		u, err := v.users.FindUser(ctx, uid)
		ch <- lookupResult{user: u, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", errs.ErrUnauthenticated.WrapMsg("user lookup timed out", "uid", uid)
	case res := <-ch:
		if res.err != nil {
			return "", errs.ErrUnauthenticated.WrapMsg("user lookup failed", "uid", uid, "err", res.err)
		}
		if res.user != nil && res.user.IsBlocked {
			return "", errs.ErrForbidden.WrapMsg("account blocked", "uid", uid)
		}
		return uid, nil
	}
}
