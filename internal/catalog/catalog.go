// Package catalog 目录 actor：唯一持有目录索引的协程，判重、落库、更新索引在同一个命令内串行完成
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/haxtag/FCpalestina/internal/dedup"
	"github.com/haxtag/FCpalestina/internal/model"
)

var (
	ErrClosed     = errors.New("catalog closed")
	ErrNotStarted = errors.New("catalog not started")
)

// Store 目录持久化
type Store interface {
	LoadAll(ctx context.Context) ([]*model.CatalogRecord, error)
	Insert(ctx context.Context, record *model.CatalogRecord) error
	Update(ctx context.Context, record *model.CatalogRecord) error
}

// Checkpointer 定期保存目录快照（可选）
type Checkpointer interface {
	Checkpoint(ctx context.Context, records []*model.CatalogRecord) error
}

type Options struct {
	Checkpointer    Checkpointer
	CheckpointEvery int // 每提交 N 条做一次快照，<=0 只在关闭时做
}

// Outcome Submit 的结果，Record 为副本
type Outcome struct {
	Kind       dedup.DecisionKind
	ExistingID string
	Similarity float64
	Record     *model.CatalogRecord
}

type command struct {
	ctx       context.Context
	candidate *dedup.Candidate
	reply     chan reply
}

type reply struct {
	outcome Outcome
	records []*model.CatalogRecord
	err     error
}

type Catalog struct {
	store    Store
	resolver *dedup.Resolver
	logger   *logrus.Logger
	opts     Options

	cmds      chan command
	quit      chan struct{}
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
	started   chan struct{}

	// 以下只在 run 协程中访问
	index   *dedup.Index
	commits int
}

func New(store Store, resolver *dedup.Resolver, logger *logrus.Logger, opts Options) *Catalog {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Catalog{
		store:    store,
		resolver: resolver,
		logger:   logger,
		opts:     opts,
		cmds:     make(chan command),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		started:  make(chan struct{}),
	}
}

// Start 加载已有记录重建索引，然后启动 actor 协程；ctx 取消时 actor 退出
func (c *Catalog) Start(ctx context.Context) error {
	var err error
	c.startOnce.Do(func() {
		var records []*model.CatalogRecord
		records, err = c.store.LoadAll(ctx)
		if err != nil {
			err = fmt.Errorf("load catalog: %w", err)
			close(c.done)
			return
		}
		c.index = dedup.NewIndex(records)
		c.logger.WithField("records", c.index.Len()).Info("目录索引已重建")
		close(c.started)
		go c.run(ctx)
	})
	return err
}

// Submit 提交一条候选，返回插入或合并的结果
func (c *Catalog) Submit(ctx context.Context, cand dedup.Candidate) (Outcome, error) {
	r, err := c.call(ctx, command{ctx: ctx, candidate: &cand})
	return r.outcome, err
}

// Snapshot 返回当前目录所有记录的副本（插入顺序）
func (c *Catalog) Snapshot(ctx context.Context) ([]*model.CatalogRecord, error) {
	r, err := c.call(ctx, command{ctx: ctx})
	return r.records, err
}

// Close 停止 actor，退出前做一次快照
func (c *Catalog) Close() {
	c.closeOnce.Do(func() { close(c.quit) })
	select {
	case <-c.started:
		<-c.done
	default:
	}
}

func (c *Catalog) call(ctx context.Context, cmd command) (reply, error) {
	select {
	case <-c.started:
	default:
		return reply{}, ErrNotStarted
	}
	cmd.reply = make(chan reply, 1)
	select {
	case c.cmds <- cmd:
	case <-c.done:
		return reply{}, ErrClosed
	case <-ctx.Done():
		return reply{}, ctx.Err()
	}
	select {
	case r := <-cmd.reply:
		return r, r.err
	case <-ctx.Done():
		return reply{}, ctx.Err()
	}
}

func (c *Catalog) run(ctx context.Context) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			c.checkpoint(context.Background())
			return
		case <-c.quit:
			c.checkpoint(context.Background())
			return
		case cmd := <-c.cmds:
			if cmd.candidate == nil {
				cmd.reply <- reply{records: c.snapshot()}
				continue
			}
			out, err := c.commit(cmd.ctx, *cmd.candidate)
			cmd.reply <- reply{outcome: out, err: err}
		}
	}
}

// commit 判重 + 落库 + 更新索引；落库失败时索引不变
func (c *Catalog) commit(ctx context.Context, cand dedup.Candidate) (Outcome, error) {
	d := c.resolver.Resolve(cand, c.index)

	var err error
	switch d.Kind {
	case dedup.MergeInto:
		err = c.store.Update(ctx, d.Record)
	default:
		err = c.store.Insert(ctx, d.Record)
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("persist %s %s: %w", d.Kind, d.Record.ID, err)
	}
	c.index.Put(d.Record)
	if d.Kind == dedup.MergeInto {
		c.index.Alias(d.Signature, d.Record.ID)
	}

	c.logger.WithFields(logrus.Fields{
		"decision":   d.Kind,
		"record_id":  d.Record.ID,
		"title":      d.Record.Title,
		"similarity": d.Similarity,
	}).Debug("目录已提交")

	c.commits++
	if every := c.opts.CheckpointEvery; every > 0 && c.commits%every == 0 {
		c.checkpoint(ctx)
	}

	return Outcome{
		Kind:       d.Kind,
		ExistingID: d.ExistingID,
		Similarity: d.Similarity,
		Record:     d.Record.Clone(),
	}, nil
}

func (c *Catalog) checkpoint(ctx context.Context) {
	if c.opts.Checkpointer == nil || c.index == nil {
		return
	}
	records := c.snapshot()
	if err := c.opts.Checkpointer.Checkpoint(ctx, records); err != nil {
		c.logger.WithError(err).WithField("records", len(records)).Warn("目录快照保存失败")
		return
	}
	c.logger.WithField("records", len(records)).Info("目录快照已保存")
}

func (c *Catalog) snapshot() []*model.CatalogRecord {
	records := c.index.Records()
	out := make([]*model.CatalogRecord, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
