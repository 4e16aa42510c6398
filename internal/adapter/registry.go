package adapter

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/haxtag/FCpalestina/internal/config"
	"github.com/haxtag/FCpalestina/internal/interfaces"
)

// Factory 站点适配器工厂函数签名
type Factory func(cfg *config.SourceConfig, logger *logrus.Logger) interfaces.SourceAdapter

// 全局工厂函数注册表，由各站点包的 init 注册
var factoryRegistry = make(map[string]Factory)

// Register 供适配器init函数调用，注册工厂函数
func Register(kind string, factory Factory) {
	if factory == nil {
		panic(fmt.Sprintf("站点%s的工厂函数不能为nil", kind))
	}
	if _, exists := factoryRegistry[kind]; exists {
		logrus.Warnf("站点%s的适配器已注册，将覆盖原有实现", kind)
	}
	factoryRegistry[kind] = factory
}

// ListFactories 列出所有已注册的站点
func ListFactories() []string {
	kinds := make([]string, 0, len(factoryRegistry))
	for k := range factoryRegistry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// New 按配置中的 kind 创建适配器实例
func New(cfg *config.SourceConfig, logger *logrus.Logger) (interfaces.SourceAdapter, error) {
	factory, ok := factoryRegistry[cfg.Kind]
	if !ok {
		return nil, fmt.Errorf("站点%s未注册适配器（已注册：%v）", cfg.Kind, ListFactories())
	}
	a := factory(cfg, logger)
	if a == nil {
		return nil, fmt.Errorf("站点%s的工厂函数返回nil", cfg.Kind)
	}
	logger.WithField("source", a.GetName()).Info("相册站点适配器初始化成功")
	return a, nil
}
