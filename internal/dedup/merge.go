package dedup

import (
	"time"

	"github.com/haxtag/FCpalestina/internal/model"
)

// MergeRecords 把 incoming 并入 existing 的副本：id、标题与创建时间保留，
// 图片、标签、来源地址取并集（existing 在前），缩略图仅在原来缺失时采用新的
func MergeRecords(existing, incoming *model.CatalogRecord, now time.Time) *model.CatalogRecord {
	out := existing.Clone()
	if incoming == nil {
		return out
	}

	out.Images = unionImages(out.Images, incoming.Images)
	out.Tags = union(out.Tags, incoming.Tags)
	out.SourceURLs = union(out.SourceURLs, incoming.SourceURLs)

	if (out.Thumbnail == "" || out.Thumbnail == model.NoImage) && incoming.Thumbnail != "" {
		out.Thumbnail = incoming.Thumbnail
	}
	if out.Thumbnail == "" {
		out.Thumbnail = model.NoImage
	}
	if out.Thumbnail != model.NoImage && !contains(out.Images, out.Thumbnail) {
		out.Images = append([]string{out.Thumbnail}, out.Images...)
	}

	if out.Size == "" {
		out.Size = incoming.Size
	}
	if incoming.ExpectedImageCount > out.ExpectedImageCount {
		out.ExpectedImageCount = incoming.ExpectedImageCount
	}
	out.UpdatedAt = now
	return out
}

func union(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, v := range list {
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// 占位图不进图库
func unionImages(a, b []string) []string {
	out := union(a, b)
	kept := out[:0]
	for _, v := range out {
		if v != model.NoImage {
			kept = append(kept, v)
		}
	}
	return kept
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
