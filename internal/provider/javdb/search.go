package javdb

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/javdbmeta/internal/domain"
	"github.com/John-Robertt/javdbmeta/internal/provider"
)

type outcome int

const (
	outcomeDetail outcome = iota
	// outcomeInline 表示详情页仅 VIP 可见，只能退回到搜索结果中的字段。
	outcomeInline
)

type resolution struct {
	outcome outcome
	doc     *goquery.Document  // outcomeDetail
	row     *goquery.Selection // outcomeInline
	url     string
}

type searchRow struct {
	id   string
	href string
	box  *goquery.Selection
}

// resolve 在搜索结果中精确匹配番号（忽略大小写），并取回唯一命中的详情页。
func (s *Scraper) resolve(ctx context.Context, id string) (resolution, error) {
	doc, err := s.gw.fetch(ctx, s.searchURL(id))
	if err != nil {
		return resolution{}, err
	}

	rows := searchRows(doc)
	var (
		hit     *searchRow
		matches int
	)
	for i := range rows {
		if domain.SameID(rows[i].id, id) {
			matches++
			if hit == nil {
				hit = &rows[i]
			}
		}
	}

	switch {
	case matches == 0:
		ids := make([]string, 0, len(rows))
		for _, r := range rows {
			ids = append(ids, r.id)
		}
		return resolution{}, &provider.MovieNotFoundError{Provider: s.Name(), DVDID: id, Candidates: ids}
	case matches > 1:
		return resolution{}, &provider.MovieDuplicateError{Provider: s.Name(), DVDID: id, Count: matches}
	}

	detailURL := resolveURL(s.base+"/", hit.href)
	detail, err := s.gw.fetch(ctx, detailURL)
	if err != nil {
		var perm *provider.PermissionError
		if errors.As(err, &perm) {
			return resolution{outcome: outcomeInline, row: hit.box, url: perm.URL}, nil
		}
		return resolution{}, err
	}
	return resolution{outcome: outcomeDetail, doc: detail, url: detailURL}, nil
}

func searchRows(doc *goquery.Document) []searchRow {
	var rows []searchRow
	doc.Find("a.box").Each(func(_ int, box *goquery.Selection) {
		href, _ := box.Attr("href")
		rows = append(rows, searchRow{
			id:   strings.TrimSpace(box.Find("div.video-title strong").First().Text()),
			href: strings.TrimSpace(href),
			box:  box,
		})
	})
	return rows
}

// parseInline 只写入搜索结果能提供的 5 个字段。
func parseInline(rec *domain.MovieRecord, box *goquery.Selection, pageURL string) {
	rec.URL = pageURL
	if title, ok := box.Attr("title"); ok {
		rec.Title = strings.TrimSpace(title)
	}
	if src, ok := box.Find("div img").First().Attr("src"); ok {
		rec.Cover = absURL(src)
	}
	if score, ok := rescaleScore(box.Find("div.score").First().Text()); ok {
		rec.Score = score
	}
	rec.PublishDate = strings.TrimSpace(box.Find("div.meta").First().Text())
}

var scoreRE = regexp.MustCompile(`([\d.]+)分`)

// rescaleScore 把站点的 5 分制评分换算为 10 分制，保留两位小数（"4.5分" -> "9.00"）。
func rescaleScore(s string) (string, bool) {
	m := scoreRE.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return "", false
	}
	return strconv.FormatFloat(f*2, 'f', 2, 64), true
}
