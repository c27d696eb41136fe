package provider

import (
	"context"

	"github.com/John-Robertt/javdbmeta/internal/domain"
)

// Provider 把“站点变化”限制在 provider 包内部；调用方只依赖统一接口与稳定的 MovieRecord。
//
// 约束：
// - Scrape 原地填充 rec，不缓存、不持久化任何状态
// - 失败时返回本包定义的错误类型之一（或包装后的网络错误），rec 可能只被部分填充
type Provider interface {
	Name() string
	Scrape(ctx context.Context, rec *domain.MovieRecord) error
}
