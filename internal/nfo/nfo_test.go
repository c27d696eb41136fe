package nfo

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/John-Robertt/javdbmeta/internal/domain"
)

type thumbOut struct {
	Aspect string `xml:"aspect,attr"`
	URL    string `xml:",chardata"`
}

type movieOut struct {
	Title     string     `xml:"title"`
	SortTitle string     `xml:"sorttitle"`
	Num       string     `xml:"num"`
	Director  string     `xml:"director"`
	Studio    string     `xml:"studio"`
	Label     string     `xml:"label"`
	Set       string     `xml:"set"`
	Premiered string     `xml:"premiered"`
	Year      int        `xml:"year"`
	Runtime   int        `xml:"runtime"`
	MPAA      string     `xml:"mpaa"`
	Country   string     `xml:"country"`
	Rating    string     `xml:"rating"`
	Thumbs    []thumbOut `xml:"thumb"`
	Fanart    []thumbOut `xml:"fanart>thumb"`
	Trailer   string     `xml:"trailer"`
	Website   string     `xml:"website"`
	Tags      []string   `xml:"tag"`
	Genres    []string   `xml:"genre"`
	Actors    []struct {
		Name string `xml:"name"`
		Role string `xml:"role"`
	} `xml:"actor"`
}

func decode(t *testing.T, b []byte) movieOut {
	t.Helper()
	var out movieOut
	if err := xml.Unmarshal(b, &out); err != nil {
		t.Fatalf("xml.Unmarshal 失败：%v", err)
	}
	return out
}

func TestEncode_FullRecord(t *testing.T) {
	censored := false
	rec := &domain.MovieRecord{
		DVDID:        "SNOS-052",
		URL:          "https://javdb.com/v/ve39eW",
		Title:        "Title",
		Cover:        "https://img.test/cover.jpg",
		PreviewPics:  []string{"https://img.test/1.jpg", "https://img.test/1.jpg", "https://img.test/2.jpg"},
		PreviewVideo: "https://img.test/trailer.mp4",
		PublishDate:  "2024-01-05",
		Duration:     "120",
		Director:     "Director",
		Producer:     "Maker",
		Publisher:    "Label",
		Serial:       "Series",
		Score:        "8.94",
		Genre:        []string{"角色扮演", "單體作品"},
		GenreNorm:    []string{"角色扮演", "单体作品", "角色扮演"},
		Actress:      []string{"b", "a", "a", " "},
		Uncensored:   &censored,
	}

	b, err := Encode(rec)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !strings.HasPrefix(string(b), `<?xml version="1.0" encoding="UTF-8" standalone="yes" ?>`) {
		t.Fatalf("缺少 XML 头")
	}
	out := decode(t, b)

	if out.Title != "SNOS-052 Title" || out.SortTitle != "SNOS-052" || out.Num != "SNOS-052" {
		t.Fatalf("title/sorttitle/num 不一致：%q %q %q", out.Title, out.SortTitle, out.Num)
	}
	if out.Director != "Director" || out.Studio != "Maker" || out.Label != "Label" || out.Set != "Series" {
		t.Fatalf("director/studio/label/set 不一致：%+v", out)
	}
	if out.Premiered != "2024-01-05" || out.Year != 2024 || out.Runtime != 120 {
		t.Fatalf("premiered/year/runtime 不一致：%q %d %d", out.Premiered, out.Year, out.Runtime)
	}
	if out.Country != DefaultCountry || out.MPAA != DefaultMPAA {
		t.Fatalf("country/mpaa 不一致：%q %q", out.Country, out.MPAA)
	}
	if out.Rating != "8.94" {
		t.Fatalf("rating 不一致：%q", out.Rating)
	}
	if len(out.Thumbs) != 1 || out.Thumbs[0].Aspect != "poster" || out.Thumbs[0].URL != rec.Cover {
		t.Fatalf("thumb 不一致：%v", out.Thumbs)
	}
	if len(out.Fanart) != 2 || out.Fanart[1].URL != "https://img.test/2.jpg" {
		t.Fatalf("fanart 未去重：%v", out.Fanart)
	}
	if out.Trailer != rec.PreviewVideo || out.Website != rec.URL {
		t.Fatalf("trailer/website 不一致：%q %q", out.Trailer, out.Website)
	}
	if strings.Join(out.Genres, "|") != "角色扮演|单体作品" {
		t.Fatalf("genre 应优先使用 GenreNorm 并去重：%v", out.Genres)
	}
	if strings.Join(out.Tags, "|") != "有码|角色扮演|单体作品" {
		t.Fatalf("tag 不一致：%v", out.Tags)
	}
	if len(out.Actors) != 2 || out.Actors[0].Name != "b" || out.Actors[1].Name != "a" || out.Actors[1].Role != "a" {
		t.Fatalf("actor 未去重且 role 应与 name 相同：%v", out.Actors)
	}
}

func TestEncode_FallbacksForSparseRecord(t *testing.T) {
	b, err := Encode(&domain.MovieRecord{DVDID: "FC2-3189680", Genre: []string{"中出"}, Duration: "unknown"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	out := decode(t, b)
	if out.Title != "FC2-3189680" {
		t.Fatalf("期望 title 回退到番号，实际=%q", out.Title)
	}
	if strings.Join(out.Genres, "|") != "中出" {
		t.Fatalf("未归一化时应回退到原始类别：%v", out.Genres)
	}
	if strings.Join(out.Tags, "|") != "中出" {
		t.Fatalf("有码/无码未知时不应输出标记：%v", out.Tags)
	}
	if out.Runtime != 0 || out.Year != 0 || out.Rating != "" || len(out.Thumbs) != 0 || len(out.Fanart) != 0 {
		t.Fatalf("缺失字段应为空：%+v", out)
	}
}
