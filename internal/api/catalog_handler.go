package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/haxtag/FCpalestina/internal/model"
)

// CatalogReader 由 catalog.Catalog 实现，返回的记录都是副本
type CatalogReader interface {
	Snapshot(ctx context.Context) ([]*model.CatalogRecord, error)
}

// CatalogHandler 提供给前端的目录查询接口
type CatalogHandler struct {
	catalog CatalogReader
	logger  *logrus.Logger
}

func NewCatalogHandler(catalog CatalogReader, logger *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// CatalogPage 列表分页结果
type CatalogPage struct {
	Total    int                    `json:"total"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"page_size"`
	Items    []*model.CatalogRecord `json:"items"`
}

// ListCatalog 目录列表
// GET /api/jerseys?category=home&team=Palestine&season=2024-2025&page=1&page_size=20
func (h *CatalogHandler) ListCatalog(c *gin.Context) {
	category := model.Category(c.Query("category"))
	team := c.Query("team")
	season := c.Query("season")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 20
	}

	records, err := h.catalog.Snapshot(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("ListCatalog failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	filtered := records[:0]
	for _, r := range records {
		if category != "" && r.Category != category {
			continue
		}
		if team != "" && !strings.EqualFold(r.Team, team) {
			continue
		}
		if season != "" && r.Season != season {
			continue
		}
		filtered = append(filtered, r)
	}

	result := CatalogPage{Total: len(filtered), Page: page, PageSize: pageSize, Items: []*model.CatalogRecord{}}
	if start := (page - 1) * pageSize; start < len(filtered) {
		end := start + pageSize
		if end > len(filtered) {
			end = len(filtered)
		}
		result.Items = filtered[start:end]
	}
	c.JSON(http.StatusOK, result)
}

// GetRecord 单条记录
// GET /api/jerseys/:id
func (h *CatalogHandler) GetRecord(c *gin.Context) {
	id := c.Param("id")
	records, err := h.catalog.Snapshot(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("GetRecord failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	for _, r := range records {
		if r.ID == id {
			c.JSON(http.StatusOK, r)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
}
