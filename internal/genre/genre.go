package genre

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed genre_javdb.csv
var defaultTable []byte

// Map 是 “站点类别 id -> 规范化类别名” 的映射表。
//
// 约定（CSV，必须包含 id 与 translate 两列，其余列忽略）：
// - translate 为空：该类别应被丢弃（例如画质、站点功能标签）
// - 表中不存在的 id：原样保留
type Map struct {
	byID map[string]string
}

// Default 返回内置映射表。
func Default() (*Map, error) {
	return Parse(bytes.NewReader(defaultTable))
}

// Load 读取 path 指定的 CSV；path 为空时使用内置表。
func Load(path string) (*Map, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("genre map %q: %w", path, err)
	}
	return m, nil
}

// Parse 从 CSV 读取映射表（允许 UTF-8 BOM）。
func Parse(r io.Reader) (*Map, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("缺少表头")
		}
		return nil, err
	}
	idCol, trCol := -1, -1
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		switch h {
		case "id":
			idCol = i
		case "translate":
			trCol = i
		}
	}
	if idCol < 0 || trCol < 0 {
		return nil, fmt.Errorf("表头必须包含 id 与 translate 列，实际=%v", header)
	}

	byID := map[string]string{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if idCol >= len(rec) {
			continue
		}
		id := strings.TrimSpace(rec[idCol])
		if id == "" {
			continue
		}
		tr := ""
		if trCol < len(rec) {
			tr = strings.TrimSpace(rec[trCol])
		}
		byID[id] = tr
	}
	return &Map{byID: byID}, nil
}

// Len 返回表中条目数。
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.byID)
}

// Map 把一组站点类别 id 映射为规范化类别名：保持输入顺序、去重、丢弃空译名。
func (m *Map) Map(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		name := id
		if m != nil {
			if tr, ok := m.byID[id]; ok {
				name = tr
			}
		}
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
