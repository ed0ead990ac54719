package repository

import (
	"context"

	"github.com/bitfantasy/scorecard/internal/scorecard/entity"
	"gorm.io/gorm"
)

// MasterDataRepository 人员、费率与专业字典仓库
type MasterDataRepository struct {
	db *gorm.DB
}

func NewMasterDataRepository(db *gorm.DB) *MasterDataRepository {
	return &MasterDataRepository{db: db}
}

// === 人员 ===

// FindStaffByName 根据姓名查找人员
func (r *MasterDataRepository) FindStaffByName(ctx context.Context, name string) (*entity.Staff, error) {
	var s entity.Staff
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&s).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// FindStaffByID 根据ID查找人员
func (r *MasterDataRepository) FindStaffByID(ctx context.Context, id string) (*entity.Staff, error) {
	var s entity.Staff
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// FindStaff 查询人员，activeOnly 时只返回在职人员
func (r *MasterDataRepository) FindStaff(ctx context.Context, activeOnly bool) ([]entity.Staff, error) {
	var items []entity.Staff
	query := r.db.WithContext(ctx).Model(&entity.Staff{})
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	err := query.Order("name ASC").Find(&items).Error
	return items, err
}

// CreateStaff 创建人员
func (r *MasterDataRepository) CreateStaff(ctx context.Context, s *entity.Staff) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// UpdateStaff 更新人员
func (r *MasterDataRepository) UpdateStaff(ctx context.Context, s *entity.Staff) error {
	return r.db.WithContext(ctx).Save(s).Error
}

// === 费率 ===

// CreateRate 新增费率行
func (r *MasterDataRepository) CreateRate(ctx context.Context, rate *entity.RateSchedule) error {
	return r.db.WithContext(ctx).Create(rate).Error
}

// FindEffectiveRate 查找岗位在 asOf 当日生效的费率。
// 生效日相同的多行按 created_at、id 倒序取第一行。
func (r *MasterDataRepository) FindEffectiveRate(ctx context.Context, position, asOf string) (*entity.RateSchedule, error) {
	var rate entity.RateSchedule
	err := r.db.WithContext(ctx).
		Where("position = ? AND effective_date <= ?", position, asOf).
		Where("end_date IS NULL OR end_date > ?", asOf).
		Order("effective_date DESC").
		Order("created_at DESC").
		Order("id DESC").
		First(&rate).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &rate, nil
}

// FindRates 查询岗位的全部费率历史
func (r *MasterDataRepository) FindRates(ctx context.Context, position string) ([]entity.RateSchedule, error) {
	var items []entity.RateSchedule
	query := r.db.WithContext(ctx).Model(&entity.RateSchedule{})
	if position != "" {
		query = query.Where("position = ?", position)
	}
	err := query.Order("position ASC").Order("effective_date ASC").Find(&items).Error
	return items, err
}

// FindDisciplines 查询专业字典
func (r *MasterDataRepository) FindDisciplines(ctx context.Context) ([]entity.Discipline, error) {
	var items []entity.Discipline
	err := r.db.WithContext(ctx).Where("active = ?", true).Order("code ASC").Find(&items).Error
	return items, err
}
