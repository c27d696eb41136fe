package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadEffective_NoFileUsesDefaults(t *testing.T) {
	cwd := t.TempDir()

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Source != "" {
		t.Fatalf("期望 Source 为空，实际=%q", eff.Source)
	}
	if eff.Timeout != DefaultTimeout || eff.LogLevel != "info" || eff.LogFormat != "text" {
		t.Fatalf("默认值不符：%+v", eff)
	}
	if eff.VerifyCookies {
		t.Fatalf("verify_cookies 默认应为 false")
	}
}

func TestLoadEffective_ExplicitConfigNotFound(t *testing.T) {
	cwd := t.TempDir()

	_, err := LoadEffective(cwd, CLIArgs{ConfigPath: "missing.json"})
	if Code(err) != ErrCodeNotFound {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeNotFound, err, Code(err))
	}
}

func TestLoadEffective_JSON5WithComments(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{
  // 镜像域名
  base_url: "https://javdb565.com",
  proxy: {url: "http://127.0.0.1:7890"},
  genre_map: "data/genre.csv",
  browser_profiles: ["profiles/firefox"],
  timeout_sec: 10,
  log_format: "json",
}`))

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Source != filepath.Join(cwd, FileName) {
		t.Fatalf("期望 Source=%q，实际=%q", filepath.Join(cwd, FileName), eff.Source)
	}
	if eff.BaseURL != "https://javdb565.com" {
		t.Fatalf("期望 base_url=https://javdb565.com，实际=%q", eff.BaseURL)
	}
	if eff.ProxyURL != "http://127.0.0.1:7890" {
		t.Fatalf("期望 proxy=http://127.0.0.1:7890，实际=%q", eff.ProxyURL)
	}
	if want := filepath.Join(cwd, "data", "genre.csv"); eff.GenreMap != want {
		t.Fatalf("期望 genre_map=%q，实际=%q", want, eff.GenreMap)
	}
	if len(eff.BrowserProfiles) != 1 || eff.BrowserProfiles[0] != filepath.Join(cwd, "profiles", "firefox") {
		t.Fatalf("browser_profiles 不符：%v", eff.BrowserProfiles)
	}
	if eff.Timeout != 10*time.Second {
		t.Fatalf("期望 timeout=10s，实际=%v", eff.Timeout)
	}
	if eff.LogFormat != "json" {
		t.Fatalf("期望 log_format=json，实际=%q", eff.LogFormat)
	}
}

func TestLoadEffective_LocalOverrides(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{"base_url":"https://javdb.com","verify_cookies":true,"log_level":"warn"}`))
	writeFile(t, filepath.Join(cwd, "javdbmeta.local.json"), []byte(`{"base_url":"https://javdb565.com","verify_cookies":false}`))

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.BaseURL != "https://javdb565.com" {
		t.Fatalf("local 应覆盖 base_url，实际=%q", eff.BaseURL)
	}
	if eff.VerifyCookies {
		t.Fatalf("local 中显式的 verify_cookies=false 应生效")
	}
	if eff.LogLevel != "warn" {
		t.Fatalf("local 未指定的字段应保留，实际 log_level=%q", eff.LogLevel)
	}
}

func TestLoadEffective_CLIOverridesFile(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "custom.json"), []byte(`{"base_url":"https://javdb.com","proxy":{"url":"http://a:1"},"verify_cookies":true}`))

	eff, err := LoadEffective(cwd, CLIArgs{
		ConfigPath:       "custom.json",
		BaseURL:          "https://javdb30.com",
		ProxyURL:         "socks5://127.0.0.1:1080",
		Verbose:          true,
		VerifyCookies:    false,
		VerifyCookiesSet: true,
	})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.BaseURL != "https://javdb30.com" || eff.ProxyURL != "socks5://127.0.0.1:1080" {
		t.Fatalf("CLI 应覆盖配置文件：%+v", eff)
	}
	if eff.VerifyCookies {
		t.Fatalf("--verify-cookies=false 应覆盖配置文件")
	}
	if eff.LogLevel != "debug" {
		t.Fatalf("-v 应把日志级别设为 debug，实际=%q", eff.LogLevel)
	}
}

func TestLoadEffective_InvalidFields(t *testing.T) {
	cases := map[string]string{
		"语法错误":              `{`,
		"base_url 无 scheme": `{"base_url":"javdb.com"}`,
		"base_url 非 http":   `{"base_url":"ftp://javdb.com"}`,
		"proxy 无 host":      `{"proxy":{"url":"127.0.0.1"}}`,
		"proxy 解析失败":        `{"proxy":{"url":"http://[::1"}}`,
		"未知日志级别":            `{"log_level":"loud"}`,
		"未知日志格式":            `{"log_format":"xml"}`,
		"超时为负":              `{"timeout_sec":-1}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			cwd := t.TempDir()
			writeFile(t, filepath.Join(cwd, FileName), []byte(body))

			_, err := LoadEffective(cwd, CLIArgs{})
			if Code(err) != ErrCodeInvalid {
				t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
			}
		})
	}
}

func TestLoadEffective_InvalidCLIBaseURL(t *testing.T) {
	_, err := LoadEffective(t.TempDir(), CLIArgs{BaseURL: "not a url"})
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
	}
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("写入文件失败 %q：%v", path, err)
	}
}
