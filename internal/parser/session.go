package parser

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/haxtag/FCpalestina/internal/model"
)

// Session 一次抓取会话的解析器，记录已生成的标题用于去重编号，可并发使用
type Session struct {
	opts   Options
	logger *logrus.Logger

	mu       sync.Mutex
	produced map[string]struct{}
}

func NewSession(logger *logrus.Logger, opts Options) *Session {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Session{
		opts:     opts.withDefaults(),
		logger:   logger,
		produced: make(map[string]struct{}),
	}
}

// Parse 解析标题；与本会话已生成的标题冲突时追加 " #n"
func (s *Session) Parse(raw string) model.ParsedAttributes {
	attrs, remainder := extract(raw, s.opts)
	if remainder != "" {
		s.logger.WithFields(logrus.Fields{
			"raw_title": raw,
			"remainder": remainder,
		}).Debug("标题中未识别的片段已丢弃")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	title := attrs.TranslatedTitle
	for n := len(s.produced) + 1; ; n++ {
		if _, dup := s.produced[title]; !dup {
			break
		}
		title = fmt.Sprintf("%s #%d", attrs.TranslatedTitle, n)
	}
	s.produced[title] = struct{}{}
	attrs.TranslatedTitle = title
	return attrs
}

// Reset 清空已生成标题，新的运行开始前调用
func (s *Session) Reset() {
	s.mu.Lock()
	s.produced = make(map[string]struct{})
	s.mu.Unlock()
}

func (s *Session) Produced() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.produced)
}
