package domain

// MovieRecord 是一次抓取的结构化结果。
//
// 约束：
// - 调用方只设置 DVDID 后传入指针；流水线原地填充，不会替换该对象
// - 字段缺失以空值表示（string 为空、slice 为 nil、Uncensored 为 nil）
// - GenreID 是过渡字段：归一化完成后必须为 nil，下游只认 GenreNorm
type MovieRecord struct {
	DVDID string `json:"dvdid"`
	URL   string `json:"url,omitempty"`
	Title string `json:"title,omitempty"`

	Cover        string   `json:"cover,omitempty"`
	PreviewPics  []string `json:"preview_pics,omitempty"`
	PreviewVideo string   `json:"preview_video,omitempty"`

	PublishDate string `json:"publish_date,omitempty"`
	Duration    string `json:"duration,omitempty"` // 分钟数，如 "120"

	Director  string `json:"director,omitempty"`
	Producer  string `json:"producer,omitempty"`
	Publisher string `json:"publisher,omitempty"`
	Serial    string `json:"serial,omitempty"`

	// Score 固定两位小数（站点 5 分制 ×2 换算为 10 分制），如 "9.00"。
	Score string `json:"score,omitempty"`

	Genre     []string `json:"genre,omitempty"`
	GenreID   []string `json:"genre_id,omitempty"`
	GenreNorm []string `json:"genre_norm,omitempty"`

	Actress []string `json:"actress,omitempty"`

	// Uncensored 三态：nil 表示无法判定。
	Uncensored *bool `json:"uncensored,omitempty"`

	Magnet []string `json:"magnet,omitempty"`
}

// NewMovieRecord 构造只带番号的待抓取记录。
func NewMovieRecord(dvdid string) *MovieRecord {
	return &MovieRecord{DVDID: NormalizeID(dvdid)}
}

// CensorLabel 把三态 Uncensored 转成展示用文本。
func (m *MovieRecord) CensorLabel() string {
	switch {
	case m == nil || m.Uncensored == nil:
		return "unknown"
	case *m.Uncensored:
		return "uncensored"
	default:
		return "censored"
	}
}
