package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/haxtag/FCpalestina/internal/adapter"
	_ "github.com/haxtag/FCpalestina/internal/adapter/yupoo"
	"github.com/haxtag/FCpalestina/internal/api"
	"github.com/haxtag/FCpalestina/internal/catalog"
	"github.com/haxtag/FCpalestina/internal/config"
	"github.com/haxtag/FCpalestina/internal/database"
	"github.com/haxtag/FCpalestina/internal/dedup"
	"github.com/haxtag/FCpalestina/internal/repository"
	"github.com/haxtag/FCpalestina/internal/service"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// 1. 加载配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("加载配置文件失败: %v", err)
	}

	// 2. 初始化日志
	logrusLogger := logrus.New()
	logrusLogger.SetLevel(logrus.InfoLevel)
	logrusLogger.Info("配置文件加载成功")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. 连接 PostgreSQL 并迁移表结构
	db, err := database.Open(&cfg.Postgres, logrusLogger)
	if err != nil {
		logrusLogger.Fatalf("初始化PostgreSQL失败: %v", err)
	}

	// 4. 启动目录：从库中重建索引，定期写 JSON 快照
	cat := catalog.New(
		repository.NewCatalogRepository(db),
		dedup.NewResolver(service.ResolverOptions(cfg.Pipeline)),
		logrusLogger,
		catalog.Options{
			Checkpointer:    repository.NewSnapshotWriter(cfg.Snapshot.Path, cfg.Snapshot.BackupDir, logrusLogger),
			CheckpointEvery: cfg.Snapshot.Every,
		},
	)
	// 目录在 HTTP 关闭后由 Close 停止，不跟随信号 ctx
	if err := cat.Start(context.Background()); err != nil {
		logrusLogger.Fatalf("加载目录失败: %v", err)
	}
	defer cat.Close()

	runs := repository.NewRunRepository(db)
	ingestService := service.NewIngestService(cat, runs, cfg, logrusLogger)

	// 5. 数据源适配器，未注册的 kind 只关闭抓取接口
	var crawler api.Crawler
	source, err := adapter.New(&cfg.Source, logrusLogger)
	if err != nil {
		logrusLogger.Warnf("数据源不可用，抓取接口关闭: %v", err)
	} else {
		crawler = service.NewCrawlService(source, ingestService, &cfg.Source, logrusLogger)
	}

	// 6. 配置Gin运行模式（从配置读取：debug/release）
	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()

	// 注册ppof 方便调试和监测性能问题
	pprof.Register(r)
	logrusLogger.Infof("Gin运行模式: %s", cfg.Server.Mode)

	// 7. 注册API路由
	syncHandler := api.NewSyncHandler(ingestService, crawler, runs, logrusLogger)
	r.POST("/sync/listings", syncHandler.SyncListingsHandler)
	r.POST("/sync/albums", syncHandler.SyncAlbumsHandler)
	r.GET("/sync/runs/:run_id", syncHandler.GetRunHandler)

	// 目录查询接口（给前端页面用）
	catalogHandler := api.NewCatalogHandler(cat, logrusLogger)
	r.GET("/api/jerseys", catalogHandler.ListCatalog)
	r.GET("/api/jerseys/:id", catalogHandler.GetRecord)

	// 8. 启动服务（从配置读取端口），收到退出信号后先停 HTTP 再关目录
	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.Port), Handler: r}
	logrusLogger.Infof("服务启动成功，端口：%d", cfg.Server.Port)
	if err := serve(ctx, srv, logrusLogger); err != nil {
		logrusLogger.Errorf("启动服务失败: %v", err)
	}
}

// serve 阻塞直到服务出错或 ctx 结束；ctx 结束时优雅关闭，正常关闭返回 nil
func serve(ctx context.Context, srv *http.Server, logger *logrus.Logger) error {
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("收到退出信号，正在关闭服务")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("关闭HTTP服务失败: %w", err)
		}
		return nil
	}
}
