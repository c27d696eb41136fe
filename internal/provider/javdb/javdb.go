package javdb

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/John-Robertt/javdbmeta/internal/domain"
	"github.com/John-Robertt/javdbmeta/internal/genre"
	"github.com/John-Robertt/javdbmeta/internal/infra/browsercookie"
	"github.com/John-Robertt/javdbmeta/internal/infra/httpx"
	"github.com/John-Robertt/javdbmeta/internal/provider"
)

const (
	// PermanentURL 是站点的永久域名；记录中的详情页 URL 统一改写到该域名下。
	PermanentURL = "https://javdb.com"

	siteName = "JavDB"
)

// Transport 是外部网络层：非 2xx 不报错；可逐请求携带 Cookies；可整体丢弃会话状态。
type Transport interface {
	Get(ctx context.Context, url string, cookies []*http.Cookie) (*httpx.Response, error)
	ResetSession() error
}

// CookieCandidate 是一组候选登录凭据及其来源（浏览器 profile + 域名）。
type CookieCandidate = browsercookie.Candidate

// CredentialSource 扫描本机浏览器得到候选凭据；失败不致命。
type CredentialSource interface {
	Scan(ctx context.Context) ([]CookieCandidate, error)
}

// GenreMapper 把站点类别 id 映射为规范化类别。
type GenreMapper interface {
	Map(ids []string) []string
}

// Options 配置一个 Scraper 实例。
type Options struct {
	// BaseURL 允许指定可用的镜像域名（例如 https://javdb565.com）；为空时使用 PermanentURL。
	BaseURL string

	Transport   Transport
	Credentials CredentialSource
	Genres      GenreMapper

	// VerifyCookies 为 true 时，候选凭据在启用前先访问用户页确认仍然有效。
	VerifyCookies bool

	Logger *slog.Logger
}

// Scraper 是一条 JavDB 抓取流水线。
//
// 约束：
// - 登录态（当前 Cookies、候选池）属于实例，不同实例之间互不影响
// - 同一实例上的并发调用会在网络层串行执行（凭据轮换不能交错）
// - 不缓存、不重试（凭据轮换除外）、不持久化
type Scraper struct {
	base   string
	gw     *gateway
	genres GenreMapper
	log    *slog.Logger
}

var _ provider.Provider = (*Scraper)(nil)

// New 构造 Scraper。Transport 必填；Genres 为空时使用内置映射表。
func New(opts Options) (*Scraper, error) {
	if opts.Transport == nil {
		return nil, errors.New("transport 不能为空")
	}
	base, err := normalizeBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	genres := opts.Genres
	if genres == nil {
		m, err := genre.Default()
		if err != nil {
			return nil, err
		}
		genres = m
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("provider", "javdb", "session", uuid.NewString())

	gw := &gateway{
		tr:   opts.Transport,
		pool: &cookiePool{src: opts.Credentials, log: log},
		log:  log,
	}
	if opts.VerifyCookies {
		gw.verify = gw.verifyCandidate
	}

	return &Scraper{
		base:   base,
		gw:     gw,
		genres: genres,
		log:    log,
	}, nil
}

func (*Scraper) Name() string { return "javdb" }

// Scrape 搜索番号并把解析结果原地写入 rec。
//
// 详情页被 VIP 限制时，只从搜索结果中提取 url/title/cover/score/publish_date 并正常返回。
func (s *Scraper) Scrape(ctx context.Context, rec *domain.MovieRecord) error {
	if rec == nil {
		return errors.New("rec 不能为空")
	}
	id := domain.NormalizeID(rec.DVDID)
	if id == "" {
		return errors.New("dvdid 不能为空")
	}

	res, err := s.resolve(ctx, id)
	if err != nil {
		return err
	}
	switch res.outcome {
	case outcomeInline:
		s.log.Debug("详情页仅 VIP 可见，使用搜索结果中的信息", "dvdid", id, "url", res.url)
		parseInline(rec, res.row, res.url)
		return nil
	default:
		return parseDetail(rec, res.doc, s.canonicalURL(res.url))
	}
}

// ScrapeAndNormalize 在 Scrape 成功后把类别 id 归一化，并清空 GenreID（表示已完成转换）。
//
// SiteBlockedError 等错误原样返回，由调用方提示用户。
func (s *Scraper) ScrapeAndNormalize(ctx context.Context, rec *domain.MovieRecord) error {
	if err := s.Scrape(ctx, rec); err != nil {
		return err
	}
	normalizeGenres(rec, s.genres)
	return nil
}

func normalizeGenres(rec *domain.MovieRecord, m GenreMapper) {
	if len(rec.GenreID) == 0 {
		return
	}
	if m != nil {
		rec.GenreNorm = m.Map(rec.GenreID)
	}
	rec.GenreID = nil
}

func (s *Scraper) searchURL(id string) string {
	return s.base + "/search?q=" + url.QueryEscape(id) + "&f=all"
}

// canonicalURL 把镜像域名下的 URL 改写为永久域名。
func (s *Scraper) canonicalURL(u string) string {
	if s.base == PermanentURL {
		return u
	}
	if strings.HasPrefix(u, s.base) {
		return PermanentURL + strings.TrimPrefix(u, s.base)
	}
	return u
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return PermanentURL, nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", errors.New("base url 无效：" + raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.New("base url 必须是 http/https：" + raw)
	}
	return raw, nil
}

func resolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	bu, err := url.Parse(base)
	if err != nil {
		return href
	}
	ru, err := url.Parse(href)
	if err != nil {
		return href
	}
	return bu.ResolveReference(ru).String()
}

// absURL 只处理协议相对地址（//host/path -> https://host/path），其余原样返回。
func absURL(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "//") {
		return "https:" + s
	}
	return s
}
