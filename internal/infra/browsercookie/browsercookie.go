package browsercookie

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

// Candidate 是从某个浏览器 profile 中读到的、属于目标站点某个域名的一组 Cookies。
type Candidate struct {
	Cookies []*http.Cookie
	Profile string // profile 目录
	Site    string // cookie 所属域名（去掉前导 '.'）
}

// Scanner 扫描本机已安装浏览器的 cookie 数据库（SQLite）。
//
// 支持：
// - Firefox：<profile>/cookies.sqlite（明文）
// - Chromium 系：<profile>/Cookies 或 <profile>/Network/Cookies（只读取未加密的 value 列）
//
// 约束：只读；数据库可能被浏览器占用，因此总是先复制到临时文件再打开。
type Scanner struct {
	// Roots 是要扫描的浏览器数据根目录；为空时使用 DefaultRoots()。
	Roots []string
	// SiteRE 匹配 cookie 的域名（去掉前导 '.' 后）。
	SiteRE *regexp.Regexp
}

// JavDBSiteRE 匹配 JavDB 主站与数字镜像域名（javdb.com / javdb565.com ...）。
var JavDBSiteRE = regexp.MustCompile(`^javdb\d*\.com$`)

// DefaultRoots 返回当前平台常见浏览器的数据根目录（不检查是否存在）。
func DefaultRoots() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	switch runtime.GOOS {
	case "windows":
		local := os.Getenv("LOCALAPPDATA")
		roaming := os.Getenv("APPDATA")
		return []string{
			filepath.Join(roaming, "Mozilla", "Firefox", "Profiles"),
			filepath.Join(local, "Google", "Chrome", "User Data"),
			filepath.Join(local, "Microsoft", "Edge", "User Data"),
			filepath.Join(local, "Chromium", "User Data"),
		}
	case "darwin":
		support := filepath.Join(home, "Library", "Application Support")
		return []string{
			filepath.Join(support, "Firefox", "Profiles"),
			filepath.Join(support, "Google", "Chrome"),
			filepath.Join(support, "Microsoft Edge"),
			filepath.Join(support, "Chromium"),
		}
	default:
		return []string{
			filepath.Join(home, ".mozilla", "firefox"),
			filepath.Join(home, ".config", "google-chrome"),
			filepath.Join(home, ".config", "chromium"),
			filepath.Join(home, ".config", "microsoft-edge"),
		}
	}
}

type dbKind int

const (
	kindFirefox dbKind = iota
	kindChromium
)

type cookieDB struct {
	path    string
	profile string
	kind    dbKind
}

// Scan 返回所有匹配站点的候选，按 (profile, site) 稳定排序。
//
// 单个数据库读取失败只会被跳过；只有“所有找到的数据库都读取失败”时才返回错误。
func (s Scanner) Scan(ctx context.Context) ([]Candidate, error) {
	siteRE := s.SiteRE
	if siteRE == nil {
		siteRE = JavDBSiteRE
	}
	roots := s.Roots
	if len(roots) == 0 {
		roots = DefaultRoots()
	}

	dbs := findCookieDBs(roots)
	var (
		out    []Candidate
		errs   []error
		readOK int
	)
	for _, db := range dbs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cands, err := readCookieDB(ctx, db, siteRE)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", db.path, err))
			continue
		}
		readOK++
		out = append(out, cands...)
	}
	if readOK == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Profile != out[j].Profile {
			return out[i].Profile < out[j].Profile
		}
		return out[i].Site < out[j].Site
	})
	return out, nil
}

func findCookieDBs(roots []string) []cookieDB {
	var dbs []cookieDB
	seen := map[string]struct{}{}
	add := func(path string, kind dbKind) {
		path = filepath.Clean(path)
		if _, ok := seen[path]; ok {
			return
		}
		fi, err := os.Stat(path)
		if err != nil || !fi.Mode().IsRegular() {
			return
		}
		seen[path] = struct{}{}
		profile := filepath.Dir(path)
		if filepath.Base(profile) == "Network" {
			profile = filepath.Dir(profile)
		}
		dbs = append(dbs, cookieDB{path: path, profile: profile, kind: kind})
	}

	for _, root := range roots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		// root 本身可能就是一个 profile 目录，也可能是包含多个 profile 的上级目录。
		for _, dir := range append([]string{root}, subdirs(root)...) {
			add(filepath.Join(dir, "cookies.sqlite"), kindFirefox)
			add(filepath.Join(dir, "Network", "Cookies"), kindChromium)
			add(filepath.Join(dir, "Cookies"), kindChromium)
		}
	}
	return dbs
}

func subdirs(root string) []string {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, filepath.Join(root, e.Name()))
		}
	}
	return out
}

func readCookieDB(ctx context.Context, db cookieDB, siteRE *regexp.Regexp) ([]Candidate, error) {
	tmp, err := copyToTemp(db.path)
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp)
	defer os.Remove(tmp + "-shm")
	// 浏览器运行时最近的写入还在 WAL 中。
	if err := copyFile(db.path+"-wal", tmp+"-wal"); err == nil {
		defer os.Remove(tmp + "-wal")
	}

	conn, err := sql.Open("sqlite", tmp)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	query := `SELECT COALESCE(host, ''), COALESCE(name, ''), COALESCE(value, ''), COALESCE(path, '') FROM moz_cookies`
	if db.kind == kindChromium {
		query = `SELECT COALESCE(host_key, ''), COALESCE(name, ''), COALESCE(value, ''), COALESCE(path, '') FROM cookies`
	}
	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bySite := map[string][]*http.Cookie{}
	for rows.Next() {
		var host, name, value, path string
		if err := rows.Scan(&host, &name, &value, &path); err != nil {
			return nil, err
		}
		site := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(host)), ".")
		if !siteRE.MatchString(site) {
			continue
		}
		// Chromium 新版本把 value 加密存放在 encrypted_value 中，此时 value 为空：跳过（不做解密）。
		if value == "" {
			continue
		}
		bySite[site] = append(bySite[site], &http.Cookie{Name: name, Value: value, Path: path, Domain: site})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(bySite))
	for site, cookies := range bySite {
		out = append(out, Candidate{Cookies: cookies, Profile: db.profile, Site: site})
	}
	return out, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func copyToTemp(src string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.CreateTemp("", "cookies-*.sqlite")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", err
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return "", err
	}
	return out.Name(), nil
}
