package security

import (
	"strings"
	"unicode"
)

// NormalizePhone 去掉所有空白和 '+'，与认证服务签发 uid 的规则一致
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if r == '+' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, phone)
}
