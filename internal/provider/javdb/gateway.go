package javdb

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/javdbmeta/internal/provider"
)

const (
	loginMarker   = "/login"
	paywallMarker = "pay"
)

// gateway 负责把一次 GET 变成“可解析的文档”或一个已分类的错误。
//
// 登录跳转时在有界循环中轮换候选 Cookies：每轮至少消耗一个候选，
// 因此循环次数不超过候选数量 + 1。
type gateway struct {
	tr     Transport
	pool   *cookiePool
	log    *slog.Logger
	verify func(ctx context.Context, c CookieCandidate) bool

	// profileURL 构造验证凭据时访问的用户页；为空时使用 https://<site>/users/profile。
	profileURL func(site string) string

	mu      sync.Mutex
	cookies []*http.Cookie
}

func (g *gateway) fetch(ctx context.Context, u string) (*goquery.Document, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for {
		resp, err := g.tr.Get(ctx, u, g.cookies)
		if err != nil {
			return nil, fmt.Errorf("%s 请求失败：%w", siteName, err)
		}

		switch resp.StatusCode {
		case http.StatusOK:
			// 发生重定向可能只是域名跳转，因此还要检查最终 URL 是否落在登录页。
			if resp.Redirected && strings.Contains(resp.URL, loginMarker) {
				if err := g.rotate(ctx); err != nil {
					return nil, err
				}
				continue
			}
			if resp.Redirected && strings.Contains(lastSegment(resp.URL), paywallMarker) {
				return nil, &provider.PermissionError{Site: siteName, URL: u}
			}
			return parseHTML(resp.Body)

		case http.StatusForbidden, http.StatusServiceUnavailable:
			return nil, &provider.SiteBlockedError{
				Site:       siteName,
				URL:        u,
				StatusCode: resp.StatusCode,
				Code:       blockCode(resp.Body),
			}

		default:
			return nil, &provider.WebsiteError{Site: siteName, URL: u, StatusCode: resp.StatusCode}
		}
	}
}

// rotate 取出下一个可用候选并设为当前凭据；候选耗尽时返回 CredentialError。
func (g *gateway) rotate(ctx context.Context) error {
	for {
		cand, ok := g.pool.next(ctx)
		if !ok {
			return &provider.CredentialError{Site: siteName, Tried: g.pool.taken}
		}
		if g.verify != nil && !g.verify(ctx, cand) {
			continue
		}
		// 更换凭据时必须丢弃旧会话，否则 jar 中残留的 Cookies 会与新凭据混用。
		if err := g.tr.ResetSession(); err != nil {
			return fmt.Errorf("重置会话失败：%w", err)
		}
		g.cookies = cand.Cookies
		g.log.Debug("未携带有效 Cookies 而发生重定向，更换 Cookies", "profile", cand.Profile, "site", cand.Site)
		return nil
	}
}

func parseHTML(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("解析 HTML 失败：%w", err)
	}
	return doc, nil
}

// blockCode 从拦截页中提取错误码（例如 CloudFlare 的 1020）；拿不到时返回空串。
func blockCode(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("span.code-label span").First().Text())
}

// lastSegment 返回 URL 最后一段路径（保留查询串）："/plans?from=pay" -> "plans?from=pay"。
func lastSegment(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return path.Base(raw)
	}
	seg := path.Base(u.Path)
	if u.RawQuery != "" {
		seg += "?" + u.RawQuery
	}
	return seg
}
