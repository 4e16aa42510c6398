package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`   // 服务器配置
	Postgres PostgresConfig `mapstructure:"postgres"` // PostgreSQL配置
	Pipeline PipelineConfig `mapstructure:"pipeline"` // 解析/判重配置
	Images   ImagesConfig   `mapstructure:"images"`   // 图片筛选配置
	Source   SourceConfig   `mapstructure:"source"`   // 相册站点配置
	Snapshot SnapshotConfig `mapstructure:"snapshot"` // 目录快照配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// PostgresConfig PostgreSQL数据库配置
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`               // 连接DSN（URL 形式）
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
	LogSQL          bool          `mapstructure:"log_sql"`           // 是否打印SQL
}

// PipelineConfig 标题解析与判重
type PipelineConfig struct {
	FuzzyThreshold float64  `mapstructure:"fuzzy_threshold"` // Jaccard 阈值
	DefaultTeam    string   `mapstructure:"default_team"`    // 未识别球队时的默认值
	Placeholder    string   `mapstructure:"placeholder"`     // 通用占位标题
	ExcludedTeams  []string `mapstructure:"excluded_teams"`  // 命中即拒绝入库的球队
	BaseTags       []string `mapstructure:"base_tags"`       // 每条记录都有的标签
	TagWhitelist   []string `mapstructure:"tag_whitelist"`   // 允许出现的标签
	Workers        int      `mapstructure:"workers"`         // 解析/选图并发数
}

// ImagesConfig 图片筛选
type ImagesConfig struct {
	NoiseKeywords []string       `mapstructure:"noise_keywords"` // 站点元素关键字
	Extensions    []string       `mapstructure:"extensions"`     // 允许的扩展名
	KeepUnmarked  bool           `mapstructure:"keep_unmarked"`  // 无分辨率标记的图片是否保留
	MarkerTiers   map[string]int `mapstructure:"marker_tiers"`   // 分辨率标记→档位（0 small … 4 raw）
}

// SourceConfig 相册站点
type SourceConfig struct {
	Kind        string        `mapstructure:"kind"`        // 适配器类型，目前只有 yupoo
	BaseURL     string        `mapstructure:"base_url"`    // 相册站点根地址
	Timeout     int           `mapstructure:"timeout"`     // 请求超时（秒）
	Proxy       string        `mapstructure:"proxy"`       // 代理地址
	UserAgent   string        `mapstructure:"user_agent"`  // 请求 UA
	Delay       time.Duration `mapstructure:"delay"`       // 两次请求之间的间隔
	Concurrency int           `mapstructure:"concurrency"` // 同时抓取的相册数
	MaxPages    int           `mapstructure:"max_pages"`   // 分类页最多翻页数
	AlbumLimit  int           `mapstructure:"album_limit"` // 单次最多抓取相册数，0 不限
}

// SnapshotConfig 目录快照
type SnapshotConfig struct {
	Path      string `mapstructure:"path"`       // 快照文件
	BackupDir string `mapstructure:"backup_dir"` // 备份目录，空则不备份
	Every     int    `mapstructure:"every"`      // 每提交 N 条保存一次
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("postgres.max_open_conns", 20)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime", time.Hour)
	v.SetDefault("pipeline.fuzzy_threshold", 0.8)
	v.SetDefault("pipeline.default_team", "Palestine")
	v.SetDefault("pipeline.placeholder", "Maillot Palestine")
	v.SetDefault("pipeline.base_tags", []string{"fcpalestina"})
	v.SetDefault("pipeline.tag_whitelist", []string{"fcpalestina", "new", "popular", "classic", "home", "away", "keeper"})
	v.SetDefault("pipeline.workers", 4)
	v.SetDefault("images.keep_unmarked", false)
	v.SetDefault("source.kind", "yupoo")
	v.SetDefault("source.timeout", 20)
	v.SetDefault("source.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")
	v.SetDefault("source.delay", 2*time.Second)
	v.SetDefault("source.concurrency", 3)
	v.SetDefault("source.max_pages", 10)
	v.SetDefault("snapshot.path", "data/jerseys.json")
	v.SetDefault("snapshot.backup_dir", "data/backups")
	v.SetDefault("snapshot.every", 10)
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	return Load("./config")
}

// Load 从指定目录读取 config.yaml
func Load(dir string) (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	v.SetTypeByDefaultValue(true)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("YUPOO_BASE_URL"); v != "" {
		cfg.Source.BaseURL = v
	}
	if v := os.Getenv("YUPOO_PROXY"); v != "" {
		cfg.Source.Proxy = v
	}
}

// Validate 校验取值范围
func (c *Config) Validate() error {
	if c.Pipeline.FuzzyThreshold <= 0 || c.Pipeline.FuzzyThreshold > 1 {
		return fmt.Errorf("pipeline.fuzzy_threshold 必须在 (0,1] 之间: %v", c.Pipeline.FuzzyThreshold)
	}
	if c.Pipeline.Workers <= 0 {
		return fmt.Errorf("pipeline.workers 必须大于 0: %d", c.Pipeline.Workers)
	}
	if c.Source.Concurrency <= 0 {
		return fmt.Errorf("source.concurrency 必须大于 0: %d", c.Source.Concurrency)
	}
	if c.Source.BaseURL != "" && !strings.HasPrefix(c.Source.BaseURL, "http") {
		return fmt.Errorf("source.base_url 必须是 http(s) 地址: %s", c.Source.BaseURL)
	}
	return nil
}

// GetGORMConfig 获取GORM配置
func (p *PostgresConfig) GetGORMConfig() *gorm.Config {
	level := logger.Warn
	if p.LogSQL {
		level = logger.Info
	}
	return &gorm.Config{Logger: logger.Default.LogMode(level)}
}
