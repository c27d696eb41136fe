package provider

import (
	"fmt"
	"strings"
)

// 以下错误类型对应抓取流程中可被调用方区分处理的失败。
// 统一返回指针类型，调用方用 errors.As 判别；除 PermissionError 会被搜索阶段降级处理外，其余全部原样向上传递。

// CredentialError 表示登录态失效，且所有候选 Cookies 均已尝试完毕。
type CredentialError struct {
	Site  string
	Tried int // 已轮换过的候选数量
}

func (e *CredentialError) Error() string {
	if e == nil {
		return "credential error"
	}
	if e.Tried == 0 {
		return fmt.Sprintf("%s: 需要登录，但未找到可用的浏览器 Cookies", e.Site)
	}
	return fmt.Sprintf("%s: 所有浏览器 Cookies 均已过期（已尝试 %d 个）", e.Site, e.Tried)
}

// PermissionError 表示资源被重定向到付费/VIP 页面。
// URL 是重定向前的原始请求地址。
type PermissionError struct {
	Site string
	URL  string
}

func (e *PermissionError) Error() string {
	if e == nil {
		return "permission denied"
	}
	return fmt.Sprintf("%s: 此资源被限制为仅 VIP 可见: %q", e.Site, e.URL)
}

// BlockCodeGeoIP 是站点拦截页中“按地区屏蔽 IP”的错误码。
const BlockCodeGeoIP = "1020"

// SiteBlockedError 表示请求被站点的反爬虫层拦截（403/503）。
// 产品约束：不尝试绕过，也不自动重试，直接交给调用方。
type SiteBlockedError struct {
	Site       string
	URL        string
	StatusCode int
	Code       string // 拦截页给出的错误码，可能为空
}

func (e *SiteBlockedError) Error() string {
	if e == nil {
		return "blocked"
	}
	code := strings.TrimSpace(e.Code)
	switch {
	case code == BlockCodeGeoIP:
		return fmt.Sprintf("%s: %d 禁止访问: 站点屏蔽了来自日本地区的 IP 地址，请使用其他地区的代理服务器", e.Site, e.StatusCode)
	case code != "":
		return fmt.Sprintf("%s: %d 禁止访问: %s (Error code: %s)", e.Site, e.StatusCode, e.URL, code)
	default:
		return fmt.Sprintf("%s: %d 禁止访问: %s", e.Site, e.StatusCode, e.URL)
	}
}

// WebsiteError 表示站点返回了非预期的 HTTP 状态码。
type WebsiteError struct {
	Site       string
	URL        string
	StatusCode int
}

func (e *WebsiteError) Error() string {
	if e == nil {
		return "website error"
	}
	return fmt.Sprintf("%s: %d 非预期状态码: %s", e.Site, e.StatusCode, e.URL)
}

// MovieNotFoundError 表示搜索结果中没有与番号完全一致的条目。
// Candidates 保存搜索页上提取到的全部番号（用于排查）。
type MovieNotFoundError struct {
	Provider   string
	DVDID      string
	Candidates []string
}

func (e *MovieNotFoundError) Error() string {
	if e == nil {
		return "movie not found"
	}
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("%s: 搜索结果为空: %s", e.Provider, e.DVDID)
	}
	return fmt.Sprintf("%s: 未找到影片 %s（搜索结果：%s）", e.Provider, e.DVDID, strings.Join(e.Candidates, ", "))
}

// MovieDuplicateError 表示搜索结果中有多个条目与番号完全一致，无法唯一确定。
type MovieDuplicateError struct {
	Provider string
	DVDID    string
	Count    int
}

func (e *MovieDuplicateError) Error() string {
	if e == nil {
		return "duplicate movie"
	}
	return fmt.Sprintf("%s: 番号 %s 存在 %d 个完全匹配的搜索结果", e.Provider, e.DVDID, e.Count)
}

// ParseError 表示详情页缺少必填字段（通常意味着页面结构变化）。
type ParseError struct {
	Provider string
	URL      string
	Field    string
}

func (e *ParseError) Error() string {
	if e == nil {
		return "parse error"
	}
	return fmt.Sprintf("%s: 详情页缺少字段 %s: %s", e.Provider, e.Field, e.URL)
}
