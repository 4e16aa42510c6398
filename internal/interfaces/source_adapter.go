package interfaces

import (
	"context"

	"github.com/haxtag/FCpalestina/internal/model"
)

// SourceAdapter 相册站点必须实现的核心接口
type SourceAdapter interface {
	GetName() string                                                               // 站点名称
	ListAlbums(ctx context.Context, maxPages int) ([]model.AlbumRef, error)        // 遍历分类页收集相册
	FetchAlbum(ctx context.Context, ref model.AlbumRef) (*model.RawListing, error) // 抓取单个相册页
}
