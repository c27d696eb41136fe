package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/titanous/json5"

	"github.com/John-Robertt/javdbmeta/internal/logging"
)

const (
	// ErrCodeNotFound 表示通过 --config 显式指定的配置文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	// FileName 是默认配置文件名；同目录下的 javdbmeta.local.json 会覆盖其中的字段。
	FileName = "javdbmeta.json"

	// DefaultTimeout 是单个 HTTP 请求的超时（当配置未指定时）。
	DefaultTimeout = 30 * time.Second
)

// CLIArgs 是 CLI 暴露的配置入口。字符串字段为空表示未指定；
// 布尔字段带 *Set 以区分“未指定”与“显式 false”。
type CLIArgs struct {
	ConfigPath string

	BaseURL  string
	ProxyURL string

	Verbose bool

	VerifyCookies    bool
	VerifyCookiesSet bool
}

// FileConfig 对应 javdbmeta.json 的解析结构（JSON5：允许注释与尾逗号）。
type FileConfig struct {
	BaseURL         string       `json:"base_url"`
	Proxy           *ProxyConfig `json:"proxy"`
	GenreMap        string       `json:"genre_map"`
	BrowserProfiles []string     `json:"browser_profiles"`
	VerifyCookies   *bool        `json:"verify_cookies"`
	LogLevel        string       `json:"log_level"`
	LogFormat       string       `json:"log_format"`
	TimeoutSec      int          `json:"timeout_sec"`
}

type ProxyConfig struct {
	URL string `json:"url"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置。
type EffectiveConfig struct {
	// Source 是实际读取的配置文件；未读取任何文件时为空。
	Source string

	BaseURL  string
	ProxyURL string

	// GenreMap 是类别映射表 CSV 的绝对路径；为空时使用内置表。
	GenreMap string

	// BrowserProfiles 覆盖默认的浏览器数据目录（绝对路径）。
	BrowserProfiles []string
	VerifyCookies   bool

	LogLevel  string
	LogFormat string
	Timeout   time.Duration
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 --config：读取该文件（必选）及其 .local 覆盖文件
// 2) 未提供：尝试读取 <cwd>/javdbmeta.json（可选），都不存在时使用内置默认值
//
// 覆盖优先级（固定）：CLI > <name>.local.json > <name>.json > 默认值。
// 相对路径（genre_map / browser_profiles）以配置文件所在目录为基准。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	cfgPath := filepath.Join(cwdAbs, FileName)
	explicit := strings.TrimSpace(cli.ConfigPath) != ""
	if explicit {
		cfgPath = absCleanFrom(cwdAbs, cli.ConfigPath)
	}

	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if explicit && !exists {
		return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
	}

	eff, err := merge(filepath.Dir(cfgPath), cli, fc)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if exists {
		eff.Source = cfgPath
	}
	return eff, nil
}

func merge(baseDir string, cli CLIArgs, fc FileConfig) (EffectiveConfig, error) {
	baseURL := strings.TrimSpace(fc.BaseURL)
	if s := strings.TrimSpace(cli.BaseURL); s != "" {
		baseURL = s
	}
	if baseURL != "" {
		if err := validateHTTPURL("base_url", baseURL); err != nil {
			return EffectiveConfig{}, err
		}
	}

	proxyURL := ""
	if fc.Proxy != nil {
		proxyURL = strings.TrimSpace(fc.Proxy.URL)
	}
	if s := strings.TrimSpace(cli.ProxyURL); s != "" {
		proxyURL = s
	}
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return EffectiveConfig{}, fmt.Errorf("proxy.url 无效：%w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return EffectiveConfig{}, fmt.Errorf("proxy.url 必须包含 scheme 与 host：%q", proxyURL)
		}
	}

	verify := false
	if cli.VerifyCookiesSet {
		verify = cli.VerifyCookies
	} else if fc.VerifyCookies != nil {
		verify = *fc.VerifyCookies
	}

	level := strings.TrimSpace(fc.LogLevel)
	if cli.Verbose {
		level = "debug"
	}
	if _, err := logging.ParseLevel(level); err != nil {
		return EffectiveConfig{}, fmt.Errorf("log_level 无效：%w", err)
	}
	if level == "" {
		level = "info"
	}

	format := strings.ToLower(strings.TrimSpace(fc.LogFormat))
	switch format {
	case "":
		format = logging.FormatText
	case logging.FormatText, logging.FormatJSON:
	default:
		return EffectiveConfig{}, fmt.Errorf("log_format 只能是 text 或 json，实际是 %q", fc.LogFormat)
	}

	if fc.TimeoutSec < 0 {
		return EffectiveConfig{}, fmt.Errorf("timeout_sec 不能为负数：%d", fc.TimeoutSec)
	}
	timeout := DefaultTimeout
	if fc.TimeoutSec > 0 {
		timeout = time.Duration(fc.TimeoutSec) * time.Second
	}

	genreMap := ""
	if strings.TrimSpace(fc.GenreMap) != "" {
		genreMap = absCleanFrom(baseDir, fc.GenreMap)
	}
	var profiles []string
	for _, p := range fc.BrowserProfiles {
		if strings.TrimSpace(p) == "" {
			continue
		}
		profiles = append(profiles, absCleanFrom(baseDir, p))
	}

	return EffectiveConfig{
		BaseURL:         baseURL,
		ProxyURL:        proxyURL,
		GenreMap:        genreMap,
		BrowserProfiles: profiles,
		VerifyCookies:   verify,
		LogLevel:        level,
		LogFormat:       format,
		Timeout:         timeout,
	}, nil
}

func validateHTTPURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s 无效：%q", field, raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s 必须是 http/https：%q", field, raw)
	}
	return nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径：Join(base, p) 后 Clean
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// localPath 返回 path 对应的覆盖文件：a/javdbmeta.json -> a/javdbmeta.local.json。
func localPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}

// readFileConfig 读取 path 与其 .local 覆盖文件并合并。
// 返回值 exists 表示两者中至少有一个存在（都不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	base, baseExists, err := readOne(path)
	if err != nil {
		return FileConfig{}, false, err
	}
	local, localExists, err := readOne(localPath(path))
	if err != nil {
		return FileConfig{}, false, err
	}
	if localExists {
		if err := mergo.Merge(&base, local, mergo.WithOverride); err != nil {
			return FileConfig{}, false, fmt.Errorf("合并 %s 失败：%w", filepath.Base(localPath(path)), err)
		}
		// mergo 不会用零值覆盖：显式的 "verify_cookies": false 需要单独处理。
		if local.VerifyCookies != nil {
			v := *local.VerifyCookies
			base.VerifyCookies = &v
		}
	}
	return base, baseExists || localExists, nil
}

func readOne(path string) (FileConfig, bool, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return FileConfig{}, true, nil
	}
	if err := json5.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return fc, true, nil
}
