package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bitfantasy/scorecard/internal/scorecard/entity"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProjectService 项目服务
type ProjectService struct {
	env *Env
}

func NewProjectService(env *Env) *ProjectService {
	return &ProjectService{env: env}
}

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Code           string   `json:"project_code"`
	Name           string   `json:"name"`
	Client         string   `json:"client"`
	ProjectType    string   `json:"project_type"`
	StartDate      *string  `json:"start_date"`
	EndDate        *string  `json:"end_date"`
	ReportDate     string   `json:"report_date"`
	ContractValue  float64  `json:"contract_value"`
	ContingencyPct *float64 `json:"contingency_pct"`
	Notes          string   `json:"notes"`
}

// UpdateProjectRequest 更新项目请求
type UpdateProjectRequest struct {
	Name           *string  `json:"name"`
	Client         *string  `json:"client"`
	ProjectType    *string  `json:"project_type"`
	StartDate      *string  `json:"start_date"`
	EndDate        *string  `json:"end_date"`
	ReportDate     *string  `json:"report_date"`
	ContractValue  *float64 `json:"contract_value"`
	ContingencyPct *float64 `json:"contingency_pct"`
	Status         *string  `json:"status"`
	Notes          *string  `json:"notes"`
}

// Create 创建项目
func (s *ProjectService) Create(ctx context.Context, userID string, req *CreateProjectRequest) (*entity.Project, error) {
	code := strings.TrimSpace(req.Code)
	name := strings.TrimSpace(req.Name)
	client := strings.TrimSpace(req.Client)
	if code == "" {
		return nil, validationError("project_code", "不能为空")
	}
	if name == "" {
		return nil, validationError("name", "不能为空")
	}
	if client == "" {
		return nil, validationError("client", "不能为空")
	}
	if err := validateOptionalDate("start_date", req.StartDate); err != nil {
		return nil, err
	}
	if err := validateOptionalDate("end_date", req.EndDate); err != nil {
		return nil, err
	}
	if req.StartDate != nil && req.EndDate != nil && *req.EndDate < *req.StartDate {
		return nil, validationError("end_date", "不能早于开始日期")
	}

	project := &entity.Project{
		ID:             entity.NewID(),
		Code:           code,
		Name:           name,
		Client:         client,
		ProjectType:    "EPCM",
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		ReportDate:     req.ReportDate,
		ContractValue:  req.ContractValue,
		ContingencyPct: 10.0,
		Status:         entity.ProjectStatusActive,
		CreatedBy:      userID,
		Notes:          req.Notes,
	}
	if req.ProjectType != "" {
		project.ProjectType = req.ProjectType
	}
	if req.ContingencyPct != nil {
		project.ContingencyPct = *req.ContingencyPct
	}
	if project.ReportDate == "" {
		project.ReportDate = s.env.today()
	}

	if err := s.env.repos.Project.Create(ctx, project); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrProjectCodeExists
		}
		return nil, err
	}
	s.env.logger.Info("Project created", zap.String("code", project.Code), zap.String("id", project.ID))
	return project, nil
}

// Get 获取项目
func (s *ProjectService) Get(ctx context.Context, id string) (*entity.Project, error) {
	return s.env.repos.Project.FindByID(ctx, id)
}

// GetByCode 按项目编码获取项目
func (s *ProjectService) GetByCode(ctx context.Context, code string) (*entity.Project, error) {
	return s.env.repos.Project.FindByCode(ctx, code)
}

// List 按状态查询项目，status 为空时返回全部
func (s *ProjectService) List(ctx context.Context, status string) ([]entity.Project, error) {
	if status != "" && !entity.ValidProjectStatus(status) {
		return nil, validationError("status", "无效的项目状态 %q", status)
	}
	return s.env.repos.Project.FindAll(ctx, status)
}

// ActivityLog 查询项目审计日志，action 为空时返回全部
func (s *ProjectService) ActivityLog(ctx context.Context, projectID, action string) ([]entity.ActivityLog, error) {
	return s.env.repos.ActivityLog.FindByProject(ctx, projectID, action)
}

// Update 更新项目
func (s *ProjectService) Update(ctx context.Context, id string, req *UpdateProjectRequest) (*entity.Project, error) {
	project, err := s.env.repos.Project.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, validationError("name", "不能为空")
		}
		project.Name = strings.TrimSpace(*req.Name)
	}
	if req.Client != nil {
		if strings.TrimSpace(*req.Client) == "" {
			return nil, validationError("client", "不能为空")
		}
		project.Client = strings.TrimSpace(*req.Client)
	}
	if req.ProjectType != nil {
		project.ProjectType = *req.ProjectType
	}
	if req.StartDate != nil {
		if err := validateOptionalDate("start_date", req.StartDate); err != nil {
			return nil, err
		}
		project.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		if err := validateOptionalDate("end_date", req.EndDate); err != nil {
			return nil, err
		}
		project.EndDate = req.EndDate
	}
	if req.ReportDate != nil {
		project.ReportDate = *req.ReportDate
	}
	if req.ContractValue != nil {
		project.ContractValue = *req.ContractValue
	}
	if req.ContingencyPct != nil {
		project.ContingencyPct = *req.ContingencyPct
	}
	if req.Status != nil {
		if !entity.ValidProjectStatus(*req.Status) {
			return nil, validationError("status", "无效的项目状态 %q", *req.Status)
		}
		project.Status = *req.Status
	}
	if req.Notes != nil {
		project.Notes = *req.Notes
	}

	if err := s.env.repos.Project.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Delete 删除项目及其全部子记录
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	return s.env.repos.Project.Delete(ctx, id)
}

func validateOptionalDate(field string, v *string) error {
	if v == nil || *v == "" {
		return nil
	}
	if _, err := entity.ParseDate(*v); err != nil {
		return validationError(field, "无效的日期 %q", *v)
	}
	return nil
}
