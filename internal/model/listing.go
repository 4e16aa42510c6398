package model

// RawListing 爬虫交给流水线的原始相册数据（不落库）
type RawListing struct {
	RawTitle           string   `json:"raw_title"`                      // 相册原始标题（中文+尺码+赛季+球队混排）
	SourceURL          string   `json:"source_url"`                     // 相册地址
	ImageCandidates    []string `json:"image_candidates"`               // 页面上发现的候选图片（按发现顺序）
	CoverCandidate     string   `json:"cover_candidate,omitempty"`      // 页面顶部的展示封面（若存在）
	DeclaredImageCount *int     `json:"declared_image_count,omitempty"` // 页面声明的图片数量
}

// AlbumRef 分类页上发现的相册链接
type AlbumRef struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"` // 链接 title 属性，可能为空
}
