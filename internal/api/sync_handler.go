package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/haxtag/FCpalestina/internal/model"
	"github.com/haxtag/FCpalestina/internal/repository"
)

// Ingester 由 service.IngestService 实现
type Ingester interface {
	Ingest(ctx context.Context, source string, listings []*model.RawListing) (*model.IngestRun, error)
}

// Crawler 由 service.CrawlService 实现
type Crawler interface {
	Crawl(ctx context.Context, urls []string, limit int) (*model.IngestRun, error)
}

type SyncHandler struct {
	ingest Ingester
	crawl  Crawler
	runs   repository.RunRepository
	logger *logrus.Logger
}

// NewSyncHandler crawl 为 nil 时 /sync/albums 返回 503
func NewSyncHandler(ingest Ingester, crawl Crawler, runs repository.RunRepository, logger *logrus.Logger) *SyncHandler {
	return &SyncHandler{ingest: ingest, crawl: crawl, runs: runs, logger: logger}
}

// crawlRequest /sync/albums 请求体
type crawlRequest struct {
	URLs  []string `json:"urls"`
	Limit int      `json:"limit"`
}

// SyncListingsHandler 直接提交原始 listing
// @Summary 导入原始相册数据
// @Param body body []model.RawListing true "listing 列表"
// @Success 200 {object} model.IngestRun
// @Failure 400 {object} map[string]string
// @Router /sync/listings [post]
func (h *SyncHandler) SyncListingsHandler(c *gin.Context) {
	var listings []*model.RawListing
	if err := c.ShouldBindJSON(&listings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(listings) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "listings is empty"})
		return
	}

	run, err := h.ingest.Ingest(c.Request.Context(), "listings", listings)
	if err != nil {
		h.logger.Errorf("导入listing失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, run)
}

// SyncAlbumsHandler 抓取相册后导入；urls 为空时遍历分类页
// @Summary 抓取相册
// @Param body body crawlRequest false "相册地址与数量上限"
// @Success 200 {object} model.IngestRun
// @Router /sync/albums [post]
func (h *SyncHandler) SyncAlbumsHandler(c *gin.Context) {
	if h.crawl == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no source adapter configured"})
		return
	}
	var req crawlRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	run, err := h.crawl.Crawl(c.Request.Context(), req.URLs, req.Limit)
	if err != nil {
		h.logger.Errorf("抓取相册失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, run)
}

// GetRunHandler 批次详情与明细
// GET /sync/runs/:run_id?limit=100
func (h *SyncHandler) GetRunHandler(c *gin.Context) {
	runID := c.Param("run_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	run, err := h.runs.GetRun(c.Request.Context(), runID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("GetRun failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	items, err := h.runs.ListItems(c.Request.Context(), runID, limit)
	if err != nil {
		h.logger.WithError(err).Error("ListItems failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run, "items": items})
}
