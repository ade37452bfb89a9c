package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"PPRealtime/tools/errs"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const DefaultSecret = "your-secret-key-change-in-production"

// Options 控制签名与TTL等参数。
type Options struct {
	Secret []byte        // HMAC 密钥（生产用ENV/KMS）
	Alg    string        // HS256/HS384/HS512（默认 HS256）
	TTL    time.Duration // 令牌有效期（默认 30d）
	Leeway time.Duration // 校验时允许的时钟偏差
}

// Claims 由认证服务签发：{phoneNumber, uid}，uid 即规范化后的手机号
type Claims struct {
	PhoneNumber string `json:"phoneNumber"`
	UID         string `json:"uid"`
	jwtlib.RegisteredClaims
}

// Identity uid 优先，缺省时回落到规范化后的 phoneNumber
func (c *Claims) Identity() string {
	if uid := strings.TrimSpace(c.UID); uid != "" {
		return uid
	}
	return NormalizePhone(c.PhoneNumber)
}

func DefaultOptions(secret []byte) Options {
	return Options{Secret: secret, Alg: "HS256", TTL: 30 * 24 * time.Hour}
}

// Generate 签发令牌，网关本身只校验；这里给联调工具和测试用
func Generate(opts Options, phoneNumber string) (token string, expireAt time.Time, err error) {
	method, err := signingMethod(opts.Alg)
	if err != nil {
		return "", time.Time{}, err
	}
	if opts.TTL <= 0 {
		opts.TTL = 30 * 24 * time.Hour
	}
	now := time.Now()
	exp := now.Add(opts.TTL)
	phone := NormalizePhone(phoneNumber)

	claims := Claims{
		PhoneNumber: phone,
		UID:         phone,
		RegisteredClaims: jwtlib.RegisteredClaims{
			IssuedAt:  jwtlib.NewNumericDate(now),
			NotBefore: jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(exp),
		},
	}
	signed, err := jwtlib.NewWithClaims(method, claims).SignedString(opts.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify 校验签名与有效期（必须带 exp），错误统一映射为 errs 里的 token 错误码
func Verify(opts Options, token string) (*Claims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errs.ErrTokenNotPresent.Wrap()
	}
	if _, err := signingMethod(opts.Alg); err != nil {
		return nil, err
	}
	claims := &Claims{}
	parsed, err := jwtlib.ParseWithClaims(token, claims, func(t *jwtlib.Token) (interface{}, error) {
		// 仅允许 HMAC 家族
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected alg: %v", t.Header["alg"])
		}
		return opts.Secret, nil
	}, jwtlib.WithLeeway(opts.Leeway), jwtlib.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, errs.ErrTokenExpired.WrapMsg(err.Error())
		}
		return nil, errs.ErrTokenMalformed.WrapMsg(err.Error())
	}
	if !parsed.Valid {
		return nil, errs.ErrTokenMalformed.WrapMsg("invalid token")
	}
	if claims.Identity() == "" {
		return nil, errs.ErrTokenMalformed.WrapMsg("token carries no identity")
	}
	return claims, nil
}

func signingMethod(alg string) (jwtlib.SigningMethod, error) {
	switch strings.ToUpper(strings.TrimSpace(alg)) {
	case "", "HS256":
		return jwtlib.SigningMethodHS256, nil
	case "HS384":
		return jwtlib.SigningMethodHS384, nil
	case "HS512":
		return jwtlib.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("unsupported alg: %s (use HS256/HS384/HS512)", alg)
	}
}
