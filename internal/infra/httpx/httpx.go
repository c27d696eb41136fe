package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

const (
	defaultTimeout      = 20 * time.Second
	defaultRetryMax     = 2
	defaultMaxRedirects = 10

	// DefaultAcceptLanguage 固定页面语言：绕过 CloudFlare 后若不指定，站点可能返回其他语言的页面，导致按标签文字解析失败。
	DefaultAcceptLanguage = "zh-CN,zh;q=0.9,zh-TW;q=0.8,en-US;q=0.7,en;q=0.6,ja;q=0.5"
)

// Options 控制 Client 的网络策略。零值可用。
type Options struct {
	ProxyURL       string
	Timeout        time.Duration
	RetryMax       int // <0 表示不重试；0 使用默认值
	AcceptLanguage string
}

// Response 是一次 GET 的最小结果：上层需要知道是否发生了重定向以及最终落在哪个 URL。
type Response struct {
	StatusCode int
	URL        string // 跟随重定向后的最终 URL
	Redirected bool
	Body       []byte
}

// Client 封装 resty：非 2xx 不报错（交由上层分类），每次请求可携带临时 Cookies。
//
// 会话状态（服务端 Set-Cookie 写入的 jar）可以通过 ResetSession 整体丢弃，
// 更换登录凭据时必须这样做，否则旧会话残留的 Cookies 会覆盖新凭据。
type Client struct {
	mu   sync.RWMutex
	http *resty.Client
	ua   *uaPool
}

type hopsKey struct{}

// NewClient 构造用于站点页面抓取的 client。
//
// 规则：
// - proxyURL 非空：走代理，且禁用 keep-alive（代理池轮换依赖每请求新连接）
// - 底层 transport 经过 cloudflare-bp 包装（补齐浏览器请求头 + TLS 指纹）
// - 内置 UA 池 + 网络错误有界重试 + 总超时
func NewClient(opts Options) (*Client, error) {
	base := &http.Transport{
		Proxy:                 nil,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
	}
	if p := strings.TrimSpace(opts.ProxyURL); p != "" {
		u, err := url.Parse(p)
		if err != nil {
			return nil, fmt.Errorf("proxy url 无效：%w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("proxy url 无效：%q", p)
		}
		base.Proxy = http.ProxyURL(u)
		base.DisableKeepAlives = true
	}

	retry := opts.RetryMax
	switch {
	case retry == 0:
		retry = defaultRetryMax
	case retry < 0:
		retry = 0
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	lang := strings.TrimSpace(opts.AcceptLanguage)
	if lang == "" {
		lang = DefaultAcceptLanguage
	}

	tr := &Transport{
		Base:     cloudflarebp.AddCloudFlareByPass(base),
		ua:       globalUA,
		RetryMax: retry,
	}

	rc := resty.New()
	rc.SetTransport(tr)
	rc.SetTimeout(timeout)
	rc.SetHeader("Accept-Language", lang)
	rc.SetRedirectPolicy(resty.RedirectPolicyFunc(countHops))

	c := &Client{http: rc, ua: globalUA}
	if err := c.ResetSession(); err != nil {
		return nil, err
	}
	return c, nil
}

// countHops 限制重定向次数，并把跳转次数记到请求 ctx 上（重定向请求沿用原始 ctx）。
func countHops(req *http.Request, via []*http.Request) error {
	if len(via) >= defaultMaxRedirects {
		return fmt.Errorf("stopped after %d redirects", defaultMaxRedirects)
	}
	if n, ok := req.Context().Value(hopsKey{}).(*int); ok {
		*n = len(via)
	}
	return nil
}

// Get 发起 GET 请求。cookies 会附加在本次请求上（不写入 jar）。
func (c *Client) Get(ctx context.Context, u string, cookies []*http.Cookie) (*Response, error) {
	if c == nil || c.http == nil {
		return nil, errors.New("nil http client")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	hops := 0
	ctx = context.WithValue(ctx, hopsKey{}, &hops)

	c.mu.RLock()
	defer c.mu.RUnlock()

	// resty 会在缺省时写入自己的 UA，这里必须逐请求显式设置。
	req := c.http.R().SetContext(ctx).SetHeader("User-Agent", c.ua.random())
	if len(cookies) > 0 {
		req.SetCookies(cookies)
	}

	resp, err := req.Get(u)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", u, err)
	}

	final := u
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		final = raw.Request.URL.String()
	}
	return &Response{
		StatusCode: resp.StatusCode(),
		URL:        final,
		Redirected: hops > 0,
		Body:       resp.Body(),
	}, nil
}

// ResetSession 用一个全新的 cookie jar 替换当前会话状态。
func (c *Client) ResetSession() error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.http.SetCookieJar(jar)
	return nil
}
