package dedup

import (
	"github.com/haxtag/FCpalestina/internal/model"
)

// CatalogView 解析器判重时需要的只读视图
type CatalogView interface {
	BySignature(sig string) (*model.CatalogRecord, bool)
	Records() []*model.CatalogRecord
}

// Index 签名索引 + 按插入顺序保存的记录，非并发安全，由目录 actor 独占
type Index struct {
	bySig map[string]string
	byID  map[string]*model.CatalogRecord
	order []string
}

// NewIndex 由已有记录重建索引；缺签名的旧记录按标题重新计算
func NewIndex(records []*model.CatalogRecord) *Index {
	idx := &Index{
		bySig: make(map[string]string, len(records)),
		byID:  make(map[string]*model.CatalogRecord, len(records)),
	}
	for _, r := range records {
		idx.Put(r)
	}
	return idx
}

// Put 插入或替换记录；同一签名已被其他记录占用时保留先到者
func (idx *Index) Put(r *model.CatalogRecord) {
	if r == nil || r.ID == "" {
		return
	}
	if r.NormalizedTitle == "" {
		r.NormalizedTitle = NormalizeTitle(r.Title)
	}
	if r.Signature == "" {
		r.Signature = Signature(r.NormalizedTitle, string(r.Category), r.Season)
	}
	if _, ok := idx.byID[r.ID]; !ok {
		idx.order = append(idx.order, r.ID)
	}
	idx.byID[r.ID] = r
	if _, taken := idx.bySig[r.Signature]; !taken {
		idx.bySig[r.Signature] = r.ID
	}
}

// Alias 把模糊合并时来稿的签名指向已有记录，同一写法再来时直接精确命中
func (idx *Index) Alias(sig, id string) {
	if sig == "" {
		return
	}
	if _, ok := idx.byID[id]; !ok {
		return
	}
	if _, taken := idx.bySig[sig]; !taken {
		idx.bySig[sig] = id
	}
}

func (idx *Index) BySignature(sig string) (*model.CatalogRecord, bool) {
	id, ok := idx.bySig[sig]
	if !ok {
		return nil, false
	}
	r, ok := idx.byID[id]
	return r, ok
}

func (idx *Index) Get(id string) (*model.CatalogRecord, bool) {
	r, ok := idx.byID[id]
	return r, ok
}

// Records 按插入顺序返回
func (idx *Index) Records() []*model.CatalogRecord {
	out := make([]*model.CatalogRecord, 0, len(idx.order))
	for _, id := range idx.order {
		out = append(out, idx.byID[id])
	}
	return out
}

func (idx *Index) Len() int { return len(idx.order) }
