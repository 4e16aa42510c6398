// Package yupoo 又拍相册站点适配器：遍历分类页收集相册链接，解析相册页的标题、封面与图片
package yupoo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/haxtag/FCpalestina/internal/adapter"
	"github.com/haxtag/FCpalestina/internal/config"
	"github.com/haxtag/FCpalestina/internal/interfaces"
	"github.com/haxtag/FCpalestina/internal/model"
	"github.com/haxtag/FCpalestina/internal/utils/httpclient"
)

const (
	Kind          = "yupoo"
	fallbackTitle = "Maillot FC Palestina"
)

func init() {
	adapter.Register(Kind, NewAdapter)
}

var reAlbumPath = regexp.MustCompile(`^/albums/\d+`)

// 相册页顶部的展示封面
var coverSelectors = []string{
	".showalbumheader__gallerycover img",
	".showalbumheader__gallerycover .autocover",
	".album__cover img",
	".showalbum__cover img",
	".album-cover img",
}

var titleSelectors = []string{"h1", ".showalbumheader__gallerytitle", ".album-title", ".photo-title", ".title", "title"}

type Adapter struct {
	cfg        *config.SourceConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewAdapter(cfg *config.SourceConfig, logger *logrus.Logger) interfaces.SourceAdapter {
	return &Adapter{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(cfg, logger),
		logger:     logger,
	}
}

// GetName ========== 实现SourceAdapter接口 ==========
func (a *Adapter) GetName() string {
	return "Yupoo"
}

// ListAlbums 从 /categories/?page=N 逐页收集相册，某页没有新相册或达到 maxPages 时停止
func (a *Adapter) ListAlbums(ctx context.Context, maxPages int) ([]model.AlbumRef, error) {
	base, err := url.Parse(strings.TrimRight(a.cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("解析站点地址失败: %w", err)
	}
	if maxPages <= 0 {
		maxPages = 1
	}

	var albums []model.AlbumRef
	seen := make(map[string]struct{})
	for page := 1; page <= maxPages; page++ {
		pageURL := fmt.Sprintf("%s/categories/?page=%d", base.String(), page)
		doc, err := a.fetchDocument(ctx, pageURL)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			a.logger.WithError(err).WithField("page", page).Warn("分类页抓取失败，停止翻页")
			break
		}

		found := 0
		for _, ref := range extractAlbumLinks(doc, base) {
			if _, dup := seen[ref.URL]; dup {
				continue
			}
			seen[ref.URL] = struct{}{}
			albums = append(albums, ref)
			found++
		}
		a.logger.WithFields(logrus.Fields{"page": page, "albums": found}).Info("分类页解析完成")
		if found == 0 {
			break
		}
		if page < maxPages {
			if err := sleepCtx(ctx, a.cfg.Delay); err != nil {
				return albums, err
			}
		}
	}
	return albums, nil
}

// FetchAlbum 抓取相册页；ref.Title 为空时从页面标题元素取
func (a *Adapter) FetchAlbum(ctx context.Context, ref model.AlbumRef) (*model.RawListing, error) {
	pageURL, err := url.Parse(ref.URL)
	if err != nil {
		return nil, fmt.Errorf("解析相册地址失败: %w", err)
	}
	doc, err := a.fetchDocument(ctx, ref.URL)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(ref.Title)
	if title == "" {
		title = extractTitle(doc)
	}
	listing := &model.RawListing{
		RawTitle:        title,
		SourceURL:       ref.URL,
		ImageCandidates: extractImages(doc, pageURL),
		CoverCandidate:  extractCover(doc, pageURL),
	}
	if listing.CoverCandidate == "" {
		a.logger.WithField("album", ref.URL).Debug("未找到展示封面，使用图库第一张")
	}
	return listing, nil
}

func (a *Adapter) fetchDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求%s失败: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("请求%s返回状态码%d", rawURL, resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("解析页面%s失败: %w", rawURL, err)
	}
	return doc, nil
}

// extractAlbumLinks 只要带 title 属性、路径形如 /albums/<id> 的链接
func extractAlbumLinks(doc *goquery.Document, base *url.URL) []model.AlbumRef {
	var refs []model.AlbumRef
	doc.Find(`a[href*="/albums/"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		title, _ := s.Attr("title")
		title = strings.TrimSpace(title)
		if href == "" || title == "" {
			return
		}
		target, err := base.Parse(strings.TrimSpace(href))
		if err != nil || !reAlbumPath.MatchString(target.Path) {
			return
		}
		target.Fragment = ""
		refs = append(refs, model.AlbumRef{URL: target.String(), Title: title})
	})
	return refs
}

func extractTitle(doc *goquery.Document) string {
	for _, sel := range titleSelectors {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return fallbackTitle
}

// extractCover 展示封面；small/square 换成 medium 以便能打开
func extractCover(doc *goquery.Document, pageURL *url.URL) string {
	for _, sel := range coverSelectors {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		src := imageAttr(s)
		if src == "" || !strings.Contains(strings.ToLower(src), "photo") {
			continue
		}
		abs := absoluteURL(pageURL, src)
		if abs == "" {
			continue
		}
		abs = strings.Replace(abs, "/small.jpg", "/medium.jpg", 1)
		abs = strings.Replace(abs, "/square.jpg", "/medium.jpg", 1)
		return abs
	}
	return ""
}

// extractImages 按文档顺序收集路径含 photo 的图片，去重
func extractImages(doc *goquery.Document, pageURL *url.URL) []string {
	var images []string
	seen := make(map[string]struct{})
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src := imageAttr(s)
		if src == "" || strings.HasPrefix(strings.ToLower(src), "data:") {
			return
		}
		abs := absoluteURL(pageURL, src)
		if abs == "" || !strings.Contains(strings.ToLower(abs), "photo") {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		images = append(images, abs)
	})
	return images
}

// 懒加载图片的真实地址在 data-src / data-original
func imageAttr(s *goquery.Selection) string {
	for _, attr := range []string{"data-src", "src", "data-original"} {
		if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func absoluteURL(base *url.URL, ref string) string {
	if strings.HasPrefix(ref, "//") {
		return "https:" + ref
	}
	target, err := base.Parse(ref)
	if err != nil {
		return ""
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return ""
	}
	target.Fragment = ""
	return target.String()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
