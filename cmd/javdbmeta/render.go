package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/John-Robertt/javdbmeta/internal/domain"
	"github.com/John-Robertt/javdbmeta/internal/nfo"
)

const (
	formatJSON  = "json"
	formatTable = "table"
	formatNFO   = "nfo"
)

func validFormat(f string) bool {
	switch f {
	case formatJSON, formatTable, formatNFO:
		return true
	default:
		return false
	}
}

// defaultFormat 在交互终端中输出表格，否则输出 JSON（便于管道消费）。
func defaultFormat(w io.Writer) string {
	if isTerminal(w) {
		return formatTable
	}
	return formatJSON
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func renderRecord(format string, rec *domain.MovieRecord) ([]byte, error) {
	switch format {
	case formatJSON:
		b, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	case formatNFO:
		b, err := nfo.Encode(rec)
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	case formatTable:
		return []byte(renderTable(rec) + "\n"), nil
	default:
		return nil, fmt.Errorf("未知输出格式：%q", format)
	}
}

// renderTable 以“字段 | 值”两列展示记录；空字段不显示，列表字段逐行展开。
func renderTable(rec *domain.MovieRecord) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"字段", "值"})

	add := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		tw.AppendRow(table.Row{name, value})
	}
	addList := func(name string, values []string) {
		add(name, strings.Join(values, "\n"))
	}

	add("番号", rec.DVDID)
	add("标题", rec.Title)
	add("发行日期", rec.PublishDate)
	add("时长(分钟)", rec.Duration)
	add("导演", rec.Director)
	add("片商", rec.Producer)
	add("发行商", rec.Publisher)
	add("系列", rec.Serial)
	add("评分", rec.Score)
	add("有码/无码", rec.CensorLabel())
	addList("演员", rec.Actress)
	genres := rec.GenreNorm
	if len(genres) == 0 {
		genres = rec.Genre
	}
	add("类别", strings.Join(genres, ", "))
	add("封面", rec.Cover)
	add("预告片", rec.PreviewVideo)
	if n := len(rec.PreviewPics); n > 0 {
		add("预览图", fmt.Sprintf("%d 张", n))
	}
	if n := len(rec.Magnet); n > 0 {
		add("磁力链接", fmt.Sprintf("%d 条", n))
	}
	add("URL", rec.URL)

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft, WidthMax: 80},
	})
	return tw.Render()
}
