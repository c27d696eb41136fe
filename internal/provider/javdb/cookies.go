package javdb

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// cookiePool 是候选凭据池：首次需要时才扫描浏览器，之后每个候选最多被取出一次。
type cookiePool struct {
	src CredentialSource
	log *slog.Logger

	built bool
	items []CookieCandidate
	taken int
}

// build 扫描浏览器填充候选池。扫描失败只记日志，按空池继续。
func (p *cookiePool) build(ctx context.Context) {
	if p.built {
		return
	}
	p.built = true
	if p.src == nil {
		return
	}
	items, err := p.src.Scan(ctx)
	if err != nil {
		p.log.Warn("获取 JavDB 的登录凭据时出错，你可能使用的是非官方的 Chrome 系浏览器")
		p.log.Debug("扫描浏览器 Cookies 失败", "err", err)
		items = nil
	}
	p.items = items
	p.log.Debug("已扫描浏览器 Cookies", "candidates", len(items))
}

func (p *cookiePool) next(ctx context.Context) (CookieCandidate, bool) {
	p.build(ctx)
	if len(p.items) == 0 {
		return CookieCandidate{}, false
	}
	last := len(p.items) - 1
	c := p.items[last]
	p.items = p.items[:last]
	p.taken++
	return c, true
}

// verifyCandidate 访问候选所属域名的用户页，确认该域名仍指向 JavDB 且凭据处于登录状态。
//
// 临时域名可能已过期：此时页面里不会出现站点标识，直接跳过该候选。
func (g *gateway) verifyCandidate(ctx context.Context, c CookieCandidate) bool {
	if err := g.tr.ResetSession(); err != nil {
		g.log.Debug("重置会话失败", "err", err)
		return false
	}
	u := "https://" + c.Site + "/users/profile"
	if g.profileURL != nil {
		u = g.profileURL(c.Site)
	}

	resp, err := g.tr.Get(ctx, u, c.Cookies)
	if err != nil {
		g.log.Info("JavDB: 获取用户信息时出错", "site", c.Site)
		g.log.Debug("获取用户信息失败", "site", c.Site, "err", err)
		return false
	}
	if resp.StatusCode != http.StatusOK || !bytes.Contains(resp.Body, []byte(siteName)) {
		g.log.Debug("JavDB: 域名已过期", "site", c.Site, "status", resp.StatusCode)
		return false
	}
	if resp.Redirected && strings.Contains(resp.URL, loginMarker) {
		g.log.Debug("Cookies 无效", "profile", c.Profile, "site", c.Site)
		return false
	}

	doc, err := parseHTML(resp.Body)
	if err != nil {
		return false
	}
	items := doc.Find("div.user-profile ul li")
	if items.Length() < 2 {
		g.log.Debug("Cookies 无效", "profile", c.Profile, "site", c.Site)
		return false
	}
	g.log.Debug("Cookies 有效",
		"profile", c.Profile,
		"site", c.Site,
		"email", textAfterLabel(items.Eq(0)),
		"username", textAfterLabel(items.Eq(1)),
	)
	return true
}

// textAfterLabel 返回 <li><span>标签</span>值</li> 中标签之后的文本。
func textAfterLabel(li *goquery.Selection) string {
	label := li.ChildrenFiltered("span").First().Text()
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(li.Text()), strings.TrimSpace(label)))
}
