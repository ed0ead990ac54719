package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bitfantasy/scorecard/internal/scorecard/entity"
	"github.com/bitfantasy/scorecard/internal/scorecard/repository"
	"gorm.io/gorm"
)

// MasterDataService 人员与专业主数据服务
type MasterDataService struct {
	env *Env
}

func NewMasterDataService(env *Env) *MasterDataService {
	return &MasterDataService{env: env}
}

// CreateStaffRequest 创建人员请求
type CreateStaffRequest struct {
	Name       string  `json:"name"`
	Function   string  `json:"function"`
	Discipline string  `json:"discipline"`
	Position   string  `json:"position"`
	StartDate  *string `json:"start_date"`
}

// UpdateStaffRequest 更新人员请求
type UpdateStaffRequest struct {
	Function   *string `json:"function"`
	Discipline *string `json:"discipline"`
	Position   *string `json:"position"`
	Active     *bool   `json:"active"`
	StartDate  *string `json:"start_date"`
	EndDate    *string `json:"end_date"`
}

// CreateStaff 创建人员
func (s *MasterDataService) CreateStaff(ctx context.Context, req *CreateStaffRequest) (*entity.Staff, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationError("name", "不能为空")
	}
	if !entity.ValidFunction(req.Function) {
		return nil, validationError("function", "无效的职能 %q", req.Function)
	}
	if strings.TrimSpace(req.Discipline) == "" {
		return nil, validationError("discipline", "不能为空")
	}
	if strings.TrimSpace(req.Position) == "" {
		return nil, validationError("position", "不能为空")
	}
	staff := &entity.Staff{
		ID:         entity.NewID(),
		Name:       name,
		Function:   req.Function,
		Discipline: req.Discipline,
		Position:   strings.TrimSpace(req.Position),
		Active:     true,
		StartDate:  req.StartDate,
	}
	if err := s.env.repos.MasterData.CreateStaff(ctx, staff); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrStaffExists
		}
		return nil, err
	}
	return staff, nil
}

// UpdateStaff 更新人员
func (s *MasterDataService) UpdateStaff(ctx context.Context, id string, req *UpdateStaffRequest) (*entity.Staff, error) {
	staff, err := s.env.repos.MasterData.FindStaffByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Function != nil {
		if !entity.ValidFunction(*req.Function) {
			return nil, validationError("function", "无效的职能 %q", *req.Function)
		}
		staff.Function = *req.Function
	}
	if req.Discipline != nil {
		staff.Discipline = *req.Discipline
	}
	if req.Position != nil {
		if strings.TrimSpace(*req.Position) == "" {
			return nil, validationError("position", "不能为空")
		}
		staff.Position = strings.TrimSpace(*req.Position)
	}
	if req.Active != nil {
		staff.Active = *req.Active
	}
	if req.StartDate != nil {
		staff.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		staff.EndDate = req.EndDate
	}
	if err := s.env.repos.MasterData.UpdateStaff(ctx, staff); err != nil {
		return nil, err
	}
	return staff, nil
}

// ListStaff 查询人员
func (s *MasterDataService) ListStaff(ctx context.Context, activeOnly bool) ([]entity.Staff, error) {
	return s.env.repos.MasterData.FindStaff(ctx, activeOnly)
}

// GetStaffByName 按姓名查找人员
func (s *MasterDataService) GetStaffByName(ctx context.Context, name string) (*entity.Staff, error) {
	return s.env.repos.MasterData.FindStaffByName(ctx, name)
}

// ListDisciplines 查询专业字典
func (s *MasterDataService) ListDisciplines(ctx context.Context) ([]entity.Discipline, error) {
	return s.env.repos.MasterData.FindDisciplines(ctx)
}

// lookupStaff 查找人员，找不到时返回 nil 而不是错误
func lookupStaff(ctx context.Context, md *repository.MasterDataRepository, name string) (*entity.Staff, error) {
	staff, err := md.FindStaffByName(ctx, name)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return staff, err
}
