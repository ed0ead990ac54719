package service

import (
	"testing"

	"github.com/bitfantasy/scorecard/internal/config"
	"github.com/bitfantasy/scorecard/internal/scorecard/repository"
	"github.com/bitfantasy/scorecard/internal/scorecard/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// setupServices 创建绑定到独立测试库的服务集合，时钟固定在 today
func setupServices(t *testing.T, today string, opts ...Option) (*gorm.DB, *Services) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	cfg := config.Default().Scorecard
	cfg.Timezone = "UTC"
	opts = append([]Option{WithClock(testutil.FixedClock(today))}, opts...)
	return db, New(repository.NewRepositories(db), cfg, zap.NewNop(), opts...)
}

// withLogger 替换服务日志
func withLogger(l *zap.Logger) Option {
	return func(e *Env) {
		e.logger = l
	}
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return n
}
