package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/javdbmeta/internal/config"
	"github.com/John-Robertt/javdbmeta/internal/domain"
	"github.com/John-Robertt/javdbmeta/internal/genre"
	"github.com/John-Robertt/javdbmeta/internal/infra/browsercookie"
	"github.com/John-Robertt/javdbmeta/internal/infra/fsx"
	"github.com/John-Robertt/javdbmeta/internal/infra/httpx"
	"github.com/John-Robertt/javdbmeta/internal/logging"
	"github.com/John-Robertt/javdbmeta/internal/provider"
	"github.com/John-Robertt/javdbmeta/internal/provider/javdb"
)

const antiBotHint = "JavDB: 可能触发了反爬虫机制，请稍后再试"

type getFlags struct {
	baseURL       string
	proxy         string
	format        string
	output        string
	force         bool
	verifyCookies bool
	raw           bool
}

func newGetCommand(root *rootFlags) *cobra.Command {
	var flags getFlags

	cmd := &cobra.Command{
		Use:   "get <dvdid>",
		Short: "搜索番号并输出影片元数据",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
				return usageErrorf("需要且只需要一个番号")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, root, flags, args[0])
		},
	}

	cmd.Flags().StringVar(&flags.baseURL, "base-url", "", "JavDB 镜像域名（例如 https://javdb565.com）")
	cmd.Flags().StringVar(&flags.proxy, "proxy", "", "HTTP/SOCKS5 代理地址")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "输出格式：json|table|nfo（默认：终端为 table，否则为 json）")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "写入文件而不是 stdout")
	cmd.Flags().BoolVar(&flags.force, "force", false, "--output 已存在时覆盖")
	cmd.Flags().BoolVar(&flags.verifyCookies, "verify-cookies", false, "启用浏览器 Cookies 前先访问用户页确认其有效")
	cmd.Flags().BoolVar(&flags.raw, "raw", false, "不做类别归一化，保留站点原始类别 id")
	return cmd
}

func runGet(cmd *cobra.Command, root *rootFlags, flags getFlags, dvdid string) error {
	stdout := cmd.OutOrStdout()

	format := strings.ToLower(strings.TrimSpace(flags.format))
	if format == "" {
		format = formatJSON
		if flags.output == "" {
			format = defaultFormat(stdout)
		}
	}
	if !validFormat(format) {
		return usageErrorf("--format 只能是 json、table 或 nfo，实际是 %q", flags.format)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("读取当前目录失败：%w", err)
	}
	eff, err := config.LoadEffective(cwd, config.CLIArgs{
		ConfigPath:       root.config,
		BaseURL:          flags.baseURL,
		ProxyURL:         flags.proxy,
		Verbose:          root.verbose,
		VerifyCookies:    flags.verifyCookies,
		VerifyCookiesSet: cmd.Flags().Changed("verify-cookies"),
	})
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(eff.LogLevel)
	if err != nil {
		return err
	}
	log := logging.New(cmd.ErrOrStderr(), level, eff.LogFormat)
	if eff.Source != "" {
		log.Debug("已读取配置文件", "path", eff.Source)
	}

	scraper, err := newScraper(eff, log)
	if err != nil {
		return err
	}

	rec := domain.NewMovieRecord(dvdid)
	if flags.raw {
		err = scraper.Scrape(cmd.Context(), rec)
	} else {
		err = scraper.ScrapeAndNormalize(cmd.Context(), rec)
	}
	if err != nil {
		var blocked *provider.SiteBlockedError
		if errors.As(err, &blocked) {
			log.Error(antiBotHint)
		}
		return err
	}

	out, err := renderRecord(format, rec)
	if err != nil {
		return err
	}
	if flags.output != "" {
		if err := fsx.WriteFileAtomic(flags.output, out, flags.force); err != nil {
			return err
		}
		log.Info("已写入", "dvdid", rec.DVDID, "path", flags.output)
		return nil
	}
	_, err = stdout.Write(out)
	return err
}

func newScraper(eff config.EffectiveConfig, log *slog.Logger) (*javdb.Scraper, error) {
	genres, err := genre.Load(eff.GenreMap)
	if err != nil {
		return nil, fmt.Errorf("加载类别映射表失败：%w", err)
	}
	client, err := httpx.NewClient(httpx.Options{
		ProxyURL: eff.ProxyURL,
		Timeout:  eff.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return javdb.New(javdb.Options{
		BaseURL:       eff.BaseURL,
		Transport:     client,
		Credentials:   browsercookie.Scanner{Roots: eff.BrowserProfiles},
		Genres:        genres,
		VerifyCookies: eff.VerifyCookies,
		Logger:        log,
	})
}
