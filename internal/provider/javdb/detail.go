package javdb

import (
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/width"

	"github.com/John-Robertt/javdbmeta/internal/domain"
	"github.com/John-Robertt/javdbmeta/internal/provider"
)

const (
	femaleMarker = "♀"
	magnetSuffix = "[javdb.com]"
)

// parseDetail 解析详情页并写入 rec。番号/标题/发行日期/时长缺失时返回 ParseError。
func parseDetail(rec *domain.MovieRecord, doc *goquery.Document, pageURL string) error {
	missing := func(field string) error {
		return &provider.ParseError{Provider: "javdb", URL: pageURL, Field: field}
	}

	container := doc.Find("div.video-detail").First()
	if container.Length() == 0 {
		return missing("video-detail")
	}
	info := container.Find("nav.movie-panel-info").First()

	dvdid := strings.TrimSpace(info.Find("div.panel-block > span").First().Text())
	if dvdid == "" {
		return missing("dvdid")
	}
	title := strings.TrimSpace(container.Find("h2 strong.current-title").First().Text())
	title = strings.TrimSpace(strings.ReplaceAll(title, dvdid, ""))
	if title == "" {
		return missing("title")
	}

	rows := labeledRows(info)
	publishDate := textOf(rows["日期"])
	if publishDate == "" {
		return missing("publish_date")
	}
	duration := parseDuration(textOf(rows["時長"]))
	if duration == "" {
		return missing("duration")
	}

	rec.DVDID = dvdid
	rec.URL = pageURL
	rec.Title = title
	rec.PublishDate = publishDate
	rec.Duration = duration

	if src, ok := container.Find("img.video-cover").First().Attr("src"); ok {
		rec.Cover = absURL(src)
	}
	var pics []string
	container.Find("a.tile-item[data-fancybox='gallery']").Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok && strings.TrimSpace(href) != "" {
			pics = append(pics, absURL(href))
		}
	})
	rec.PreviewPics = pics
	if src, ok := container.Find("video#preview-video source").First().Attr("src"); ok && strings.TrimSpace(src) != "" {
		rec.PreviewVideo = absURL(src)
	}

	if v := textOf(rows["導演"]); v != "" {
		rec.Director = v
	}
	if v := textOf(rows["片商"]); v != "" {
		rec.Producer = v
	}
	if v := textOf(rows["發行"]); v != "" {
		rec.Publisher = v
	}
	if v := textOf(rows["系列"]); v != "" {
		rec.Serial = v
	}
	if stars := info.Find("span.score-stars").First(); stars.Length() > 0 {
		if score, ok := rescaleScore(stars.Parent().Text()); ok {
			rec.Score = score
		}
	}

	parseGenres(rec, rows["類別"])
	rec.Actress = actresses(rows["演員"])

	var magnets []string
	container.Find("div.magnet-name a").Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok {
			magnets = append(magnets, strings.ReplaceAll(href, magnetSuffix, ""))
		}
	})
	rec.Magnet = magnets
	return nil
}

// labeledRows 把 `<div class="panel-block"><strong>標籤:</strong><span>值</span></div>` 收集为 标签 -> 值节点。
//
// 标签做全角/半角折叠，因此 "日期：" 与 "日期:" 视为同一个标签。
func labeledRows(info *goquery.Selection) map[string]*goquery.Selection {
	out := map[string]*goquery.Selection{}
	info.Find(".panel-block").Each(func(_ int, block *goquery.Selection) {
		strong := block.ChildrenFiltered("strong").First()
		if strong.Length() == 0 {
			return
		}
		label := normLabel(strong.Text())
		if label == "" {
			return
		}
		if _, ok := out[label]; ok {
			return
		}
		out[label] = strong.Next()
	})
	return out
}

func normLabel(s string) string {
	s = width.Narrow.String(strings.Join(strings.Fields(s), " "))
	return strings.TrimSpace(strings.TrimSuffix(s, ":"))
}

// textOf 对缺失的行返回空串。
func textOf(sel *goquery.Selection) string {
	if sel == nil {
		return ""
	}
	return strings.TrimSpace(sel.Text())
}

// parseDuration 去掉时长中的单位（"120 分鍾" -> "120"）。
func parseDuration(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "分鍾", ""))
}

// parseGenres 写入类别名称与 id，并根据 id 的子站前缀判定有码/无码。
func parseGenres(rec *domain.MovieRecord, value *goquery.Selection) {
	if value == nil {
		return
	}
	var names, ids []string
	value.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		id := genreID(href)
		names = append(names, strings.TrimSpace(a.Text()))
		ids = append(ids, id)

		sub, _, _ := strings.Cut(id, "?")
		switch sub {
		case "uncensored":
			v := true
			rec.Uncensored = &v
		case "tags":
			v := false
			rec.Uncensored = &v
		}
	})
	rec.Genre = names
	rec.GenreID = ids
}

// genreID 取 href 的最后一段（保留查询串）："/tags?c5=18" -> "tags?c5=18"。
func genreID(href string) string {
	href = strings.TrimSpace(href)
	u, err := url.Parse(href)
	if err != nil || u.Path == "" {
		return path.Base(href)
	}
	id := path.Base(u.Path)
	if u.RawQuery != "" {
		id += "?" + u.RawQuery
	}
	return id
}

// actresses 只保留紧跟 ♀ 性别标记的演员。
func actresses(value *goquery.Selection) []string {
	if value == nil {
		return nil
	}
	var out []string
	value.ChildrenFiltered("a").Each(func(_ int, a *goquery.Selection) {
		marker := a.Next()
		if !marker.Is("strong") || strings.TrimSpace(marker.Text()) != femaleMarker {
			return
		}
		out = append(out, strings.TrimSpace(a.Text()))
	})
	return out
}
