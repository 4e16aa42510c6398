// Command import 离线导入：从 JSON 文件或数据源抓取 listing，写入数据库或 JSON 快照
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/haxtag/FCpalestina/internal/adapter"
	_ "github.com/haxtag/FCpalestina/internal/adapter/yupoo"
	"github.com/haxtag/FCpalestina/internal/catalog"
	"github.com/haxtag/FCpalestina/internal/config"
	"github.com/haxtag/FCpalestina/internal/database"
	"github.com/haxtag/FCpalestina/internal/dedup"
	"github.com/haxtag/FCpalestina/internal/model"
	"github.com/haxtag/FCpalestina/internal/repository"
	"github.com/haxtag/FCpalestina/internal/service"
)

const (
	storeFile     = "file"
	storePostgres = "postgres"
)

type options struct {
	configDir string
	file      string
	crawl     bool
	urls      string
	limit     int
	store     string
	verbose   bool
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.StringVar(&opts.configDir, "config", "./config", "配置目录（包含 config.yaml）")
	fs.StringVar(&opts.file, "file", "", "listing JSON 文件（RawListing 数组）")
	fs.BoolVar(&opts.crawl, "crawl", false, "从配置的数据源抓取相册")
	fs.StringVar(&opts.urls, "urls", "", "只抓取这些相册地址，逗号分隔（隐含 -crawl）")
	fs.IntVar(&opts.limit, "limit", 0, "最多抓取的相册数，0 表示使用配置")
	fs.StringVar(&opts.store, "store", storeFile, "目录存储：file 或 postgres")
	fs.BoolVar(&opts.verbose, "v", false, "输出 debug 日志")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if opts.urls != "" {
		opts.crawl = true
	}
	if (opts.file == "") == !opts.crawl {
		return nil, errors.New("必须且只能指定 -file 或 -crawl 之一")
	}
	if opts.store != storeFile && opts.store != storePostgres {
		return nil, fmt.Errorf("未知的 -store: %s", opts.store)
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "import: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "import: %v\n", err)
		os.Exit(1)
	}
}

func run(opts *options) error {
	cfg, err := config.Load(opts.configDir)
	if err != nil {
		return fmt.Errorf("加载配置文件失败: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.InfoLevel)
	if opts.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		store catalog.Store
		runs  repository.RunRepository
	)
	switch opts.store {
	case storePostgres:
		db, err := database.Open(&cfg.Postgres, logger)
		if err != nil {
			return fmt.Errorf("初始化PostgreSQL失败: %w", err)
		}
		store = repository.NewCatalogRepository(db)
		runs = repository.NewRunRepository(db)
	default:
		store = repository.NewFileStore(cfg.Snapshot.Path)
		runs = repository.NewMemoryRunRepository()
	}

	cat := catalog.New(
		store,
		dedup.NewResolver(service.ResolverOptions(cfg.Pipeline)),
		logger,
		catalog.Options{
			Checkpointer:    repository.NewSnapshotWriter(cfg.Snapshot.Path, cfg.Snapshot.BackupDir, logger),
			CheckpointEvery: cfg.Snapshot.Every,
		},
	)
	if err := cat.Start(ctx); err != nil {
		return fmt.Errorf("加载目录失败: %w", err)
	}
	// Close 时写最后一次快照
	defer cat.Close()

	ingest := service.NewIngestService(cat, runs, cfg, logger)

	var result *model.IngestRun
	if opts.crawl {
		source, err := adapter.New(&cfg.Source, logger)
		if err != nil {
			return err
		}
		result, err = service.NewCrawlService(source, ingest, &cfg.Source, logger).Crawl(ctx, splitURLs(opts.urls), opts.limit)
		if err != nil {
			return err
		}
	} else {
		listings, err := readListings(opts.file)
		if err != nil {
			return err
		}
		result, err = ingest.Ingest(ctx, "file", listings)
		if err != nil {
			return err
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func readListings(path string) ([]*model.RawListing, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取listing文件失败: %w", err)
	}
	var listings []*model.RawListing
	if err := json.Unmarshal(raw, &listings); err != nil {
		return nil, fmt.Errorf("解析listing文件失败: %w", err)
	}
	return listings, nil
}

func splitURLs(s string) []string {
	var out []string
	for _, u := range strings.Split(s, ",") {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}
