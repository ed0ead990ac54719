package service

import (
	"sync"
	"time"

	"github.com/bitfantasy/scorecard/internal/config"
	"github.com/bitfantasy/scorecard/internal/scorecard/entity"
	"github.com/bitfantasy/scorecard/internal/scorecard/repository"
	"go.uber.org/zap"
)

// Option 服务可选项
type Option func(*Env)

// WithClock 替换时钟（测试用）
func WithClock(now func() time.Time) Option {
	return func(e *Env) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLocation 指定报表时区
func WithLocation(loc *time.Location) Option {
	return func(e *Env) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithArchiver 配置报表归档存储
func WithArchiver(a Archiver) Option {
	return func(e *Env) {
		e.archiver = a
	}
}

// Env 服务共享依赖
type Env struct {
	repos  *repository.Repositories
	cfg    config.ScorecardConfig
	logger *zap.Logger
	now    func() time.Time
	loc    *time.Location
	locks  *keyedMutex

	archiver Archiver
}

// NewEnv 创建服务共享依赖
func NewEnv(repos *repository.Repositories, cfg config.ScorecardConfig, logger *zap.Logger, opts ...Option) *Env {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultFunction == "" || !entity.ValidFunction(cfg.DefaultFunction) {
		cfg.DefaultFunction = entity.FunctionEngineering
	}
	e := &Env{
		repos:  repos,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		loc:    time.Local,
		locks:  newKeyedMutex(),
	}
	if loc, err := cfg.Location(); err == nil {
		e.loc = loc
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// today 报表时区下的当前日期
func (e *Env) today() string {
	return entity.FormatDate(e.now().In(e.loc))
}

// Services 计分卡服务集合
type Services struct {
	Project     *ProjectService
	Deliverable *DeliverableService
	Rate        *RateService
	MasterData  *MasterDataService
	Summary     *SummaryService
	ChangeOrder *ChangeOrderService
	Commitment  *CommitmentService
	Timesheet   *TimesheetService
	Manning     *ManningService
	Reconcile   *ReconcileService
	Snapshot    *SnapshotService
	Commentary  *CommentaryService
	Report      *ReportService
}

// New 创建全部服务
func New(repos *repository.Repositories, cfg config.ScorecardConfig, logger *zap.Logger, opts ...Option) *Services {
	env := NewEnv(repos, cfg, logger, opts...)
	rate := NewRateService(env)
	summary := NewSummaryService(env)
	reconcile := NewReconcileService(env)
	return &Services{
		Project:     NewProjectService(env),
		Deliverable: NewDeliverableService(env),
		Rate:        rate,
		MasterData:  NewMasterDataService(env),
		Summary:     summary,
		ChangeOrder: NewChangeOrderService(env),
		Commitment:  NewCommitmentService(env),
		Timesheet:   NewTimesheetService(env, rate),
		Manning:     NewManningService(env, rate),
		Reconcile:   reconcile,
		Snapshot:    NewSnapshotService(env),
		Commentary:  NewCommentaryService(env),
		Report:      NewReportService(env, summary, reconcile),
	}
}

// keyedMutex 按聚合根加锁，串行化同一对象上的读改写
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedEntry)}
}

// Lock 锁定 key，返回解锁函数
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
