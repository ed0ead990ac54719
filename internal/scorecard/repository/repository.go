package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories 计分卡仓库集合
type Repositories struct {
	db          *gorm.DB
	Project     *ProjectRepository
	Deliverable *DeliverableRepository
	ChangeOrder *ChangeOrderRepository
	PO          *PORepository
	Timesheet   *TimesheetRepository
	Manning     *ManningRepository
	MasterData  *MasterDataRepository
	Snapshot    *SnapshotRepository
	Commentary  *CommentaryRepository
	ActivityLog *ActivityLogRepository
}

// NewRepositories 创建计分卡仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:          db,
		Project:     NewProjectRepository(db),
		Deliverable: NewDeliverableRepository(db),
		ChangeOrder: NewChangeOrderRepository(db),
		PO:          NewPORepository(db),
		Timesheet:   NewTimesheetRepository(db),
		Manning:     NewManningRepository(db),
		MasterData:  NewMasterDataRepository(db),
		Snapshot:    NewSnapshotRepository(db),
		Commentary:  NewCommentaryRepository(db),
		ActivityLog: NewActivityLogRepository(db),
	}
}

// Transaction 在单个事务内执行 fn，fn 收到绑定到该事务的仓库集合
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
