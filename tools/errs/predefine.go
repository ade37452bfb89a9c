package errs

const (
	ServerInternalError = 500
	UnauthenticatedCode = 401
	ForbiddenCode       = 403

	ArgsError       = 1001
	RecordNotFound  = 1004
	TokenExpired    = 1501
	TokenMalformed  = 1502
	TokenNotPresent = 1503
)

var (
	ErrInternalServer  = NewCodeError(ServerInternalError, "ServerInternalError")
	ErrUnauthenticated = NewCodeError(UnauthenticatedCode, "Unauthenticated")
	ErrForbidden       = NewCodeError(ForbiddenCode, "Forbidden")

	ErrArgs           = NewCodeError(ArgsError, "ArgsError")
	ErrRecordNotFound = NewCodeError(RecordNotFound, "RecordNotFoundError")

	// token 类错误都归到 Unauthenticated 下面
	ErrTokenExpired    = NewCodeError(TokenExpired, "TokenExpiredError")
	ErrTokenMalformed  = NewCodeError(TokenMalformed, "TokenMalformedError")
	ErrTokenNotPresent = NewCodeError(TokenNotPresent, "TokenNotPresentError")
)

func init() {
	_ = DefaultCodeRelation.Add(UnauthenticatedCode, TokenExpired)
	_ = DefaultCodeRelation.Add(UnauthenticatedCode, TokenMalformed)
	_ = DefaultCodeRelation.Add(UnauthenticatedCode, TokenNotPresent)
}
