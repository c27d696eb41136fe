package domain

import "strings"

// NormalizeID 清理番号两端空白，保留原始大小写（存储用）。
func NormalizeID(s string) string {
	return strings.TrimSpace(s)
}

// SameID 判断两个番号是否指向同一作品。
//
// 约束：只做大小写不敏感的完全相等，不做模糊/前缀匹配；宁可 not found，也不允许错配。
func SameID(a, b string) bool {
	a, b = NormalizeID(a), NormalizeID(b)
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}
