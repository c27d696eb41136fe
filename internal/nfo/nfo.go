package nfo

import (
	"encoding/xml"
	"strconv"
	"strings"
	"time"

	"github.com/John-Robertt/javdbmeta/internal/domain"
)

const (
	// DefaultCountry / DefaultMPAA 不对外暴露配置。
	DefaultCountry = "JP"
	DefaultMPAA    = "R18+"
)

type movie struct {
	XMLName xml.Name `xml:"movie"`

	Title     string `xml:"title"`
	SortTitle string `xml:"sorttitle"`
	Num       string `xml:"num"`

	Director string `xml:"director,omitempty"`
	Studio   string `xml:"studio,omitempty"`
	Label    string `xml:"label,omitempty"`
	Set      string `xml:"set,omitempty"`

	Premiered string `xml:"premiered,omitempty"`
	Year      int    `xml:"year,omitempty"`
	Runtime   int    `xml:"runtime,omitempty"`

	MPAA    string `xml:"mpaa,omitempty"`
	Country string `xml:"country,omitempty"`

	Rating string `xml:"rating,omitempty"`

	Thumbs  []thumb `xml:"thumb,omitempty"`
	Fanart  *fanart `xml:"fanart,omitempty"`
	Trailer string  `xml:"trailer,omitempty"`

	Actors []actor  `xml:"actor,omitempty"`
	Genres []string `xml:"genre,omitempty"`
	Tags   []string `xml:"tag,omitempty"`

	Website string `xml:"website,omitempty"`
}

type thumb struct {
	Aspect string `xml:"aspect,attr,omitempty"`
	URL    string `xml:",chardata"`
}

type fanart struct {
	Thumbs []thumb `xml:"thumb"`
}

type actor struct {
	Name string `xml:"name"`
	Role string `xml:"role,omitempty"`
}

// Encode 把 MovieRecord 转成 Kodi/Jellyfin/Emby 可读取的 NFO（XML）。
//
// 规则：
// - 字段缺失允许为空；列表去空白、去重、保持输入顺序
// - title 为空时回退到番号
// - 类别优先使用归一化后的 GenreNorm，未归一化时回退到站点原始类别
func Encode(rec *domain.MovieRecord) ([]byte, error) {
	if rec == nil {
		rec = &domain.MovieRecord{}
	}
	code := strings.TrimSpace(rec.DVDID)
	title := strings.TrimSpace(rec.Title)
	if title == "" {
		title = code
	} else if code != "" && !strings.HasPrefix(title, code) {
		title = code + " " + title
	}

	genres := rec.GenreNorm
	if len(genres) == 0 {
		genres = rec.Genre
	}
	genres = normList(genres)

	var tags []string
	switch rec.CensorLabel() {
	case "uncensored":
		tags = append(tags, "无码")
	case "censored":
		tags = append(tags, "有码")
	}

	m := movie{
		Title:     title,
		SortTitle: code,
		Num:       code,

		Director: strings.TrimSpace(rec.Director),
		Studio:   strings.TrimSpace(rec.Producer),
		Label:    strings.TrimSpace(rec.Publisher),
		Set:      strings.TrimSpace(rec.Serial),

		Premiered: strings.TrimSpace(rec.PublishDate),
		Year:      yearOf(rec.PublishDate),
		Runtime:   atoi(rec.Duration),

		MPAA:    DefaultMPAA,
		Country: DefaultCountry,

		Rating:  strings.TrimSpace(rec.Score),
		Trailer: strings.TrimSpace(rec.PreviewVideo),

		Genres: genres,
		Tags:   normList(append(tags, genres...)),

		Website: strings.TrimSpace(rec.URL),
	}

	if cover := strings.TrimSpace(rec.Cover); cover != "" {
		m.Thumbs = []thumb{{Aspect: "poster", URL: cover}}
	}
	if pics := normList(rec.PreviewPics); len(pics) > 0 {
		m.Fanart = &fanart{}
		for _, p := range pics {
			m.Fanart.Thumbs = append(m.Fanart.Thumbs, thumb{URL: p})
		}
	}

	for _, a := range normList(rec.Actress) {
		m.Actors = append(m.Actors, actor{Name: a, Role: a})
	}

	b, err := xml.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	const header = `<?xml version="1.0" encoding="UTF-8" standalone="yes" ?>` + "\n"
	return append([]byte(header), b...), nil
}

func yearOf(date string) int {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(date))
	if err != nil {
		return 0
	}
	return t.Year()
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func normList(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	m := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := m[s]; ok {
			continue
		}
		m[s] = struct{}{}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
