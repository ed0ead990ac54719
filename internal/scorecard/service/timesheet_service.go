package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bitfantasy/scorecard/internal/scorecard/entity"
	"github.com/bitfantasy/scorecard/internal/scorecard/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TimesheetService 工时导入与查询服务
type TimesheetService struct {
	env   *Env
	rates *RateService
}

func NewTimesheetService(env *Env, rates *RateService) *TimesheetService {
	return &TimesheetService{env: env, rates: rates}
}

// ImportResult 导入结果
type ImportResult struct {
	BatchID    string    `json:"batch_id"`
	Imported   int       `json:"imported"`
	TotalHours float64   `json:"total_hours"`
	TotalCost  float64   `json:"total_cost"`
	Warnings   []Warning `json:"warnings"`
}

// List 查询项目工时，startDate/endDate 为空时不限
func (s *TimesheetService) List(ctx context.Context, projectID, startDate, endDate string) ([]entity.TimesheetEntry, error) {
	return s.env.repos.Timesheet.FindByProject(ctx, projectID, startDate, endDate)
}

// ImportFile 按扩展名读取 CSV 或 xlsx 文件并导入
func (s *TimesheetService) ImportFile(ctx context.Context, projectID, path, encoding string) (*ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []TimesheetRow
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = ReadTimesheetXLSX(f)
	case ".csv", ".txt":
		rows, err = ReadTimesheetCSV(f, encoding)
	default:
		return nil, fmt.Errorf("%w: 不支持的文件类型 %s", ErrValidation, filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	return s.Import(ctx, projectID, rows)
}

// Import 导入工时行。全部成功才提交；任一行失败时返回 *RowError 并回滚整批。
func (s *TimesheetService) Import(ctx context.Context, projectID string, rows []TimesheetRow) (*ImportResult, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: 没有可导入的行", ErrValidation)
	}
	if _, err := s.env.repos.Project.FindByID(ctx, projectID); err != nil {
		return nil, err
	}

	now := s.env.now()
	result := &ImportResult{
		BatchID: fmt.Sprintf("%s-%s", now.Format("20060102-150405"), uuid.New().String()[:8]),
	}
	warned := make(map[string]bool)
	warn := func(w Warning) {
		key := w.Code + "|" + w.Subject
		if warned[key] {
			return
		}
		warned[key] = true
		result.Warnings = append(result.Warnings, w)
	}

	err := s.env.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		staffCache := make(map[string]*entity.Staff)
		rateCache := make(map[string]*RateResolution)
		entries := make([]entity.TimesheetEntry, 0, len(rows))

		for i, row := range rows {
			rowNo := i + 1
			date, err := ParseImportDate(row.Date)
			if err != nil {
				return &RowError{Row: rowNo, Field: "date", Err: fmt.Errorf("%w: %v", ErrValidation, err)}
			}
			name := strings.TrimSpace(row.StaffName)
			if name == "" {
				return &RowError{Row: rowNo, Field: "staff_name", Err: fmt.Errorf("%w: 不能为空", ErrValidation)}
			}

			staff, cached := staffCache[name]
			if !cached {
				staff, err = lookupStaff(ctx, tx.MasterData, name)
				if err != nil {
					return &RowError{Row: rowNo, Field: "staff_name", Err: err}
				}
				staffCache[name] = staff
			}

			function, matched := MapFunction(row.TaskName)
			if !matched {
				function = s.env.cfg.DefaultFunction
				warn(Warning{
					Code:    WarnFunctionFallback,
					Subject: name,
					Message: fmt.Sprintf("empty task name, classified as %s", function),
				})
			}

			dateStr := entity.FormatDate(date)
			entry := entity.TimesheetEntry{
				ID:            entity.NewID(),
				ProjectID:     projectID,
				Date:          dateStr,
				StaffName:     name,
				TaskName:      strings.TrimSpace(row.TaskName),
				Hours:         ParseDuration(row.Time),
				Function:      function,
				WeekEnding:    entity.FormatDate(WeekEnding(date)),
				ImportBatchID: result.BatchID,
				ImportDate:    now,
			}

			if staff == nil {
				entry.Rate = s.env.cfg.DefaultRate
				warn(Warning{
					Code:    WarnStaffFallback,
					Subject: name,
					Message: fmt.Sprintf("staff %q not registered, using default rate %.2f", name, s.env.cfg.DefaultRate),
				})
			} else {
				entry.Discipline = staff.Discipline
				entry.Position = staff.Position
				key := staff.Position + "|" + dateStr
				res, ok := rateCache[key]
				if !ok {
					res, err = s.rates.resolve(ctx, tx.MasterData, staff.Position, dateStr)
					if err != nil {
						return &RowError{Row: rowNo, Field: "rate", Err: err}
					}
					rateCache[key] = res
				}
				if res.Warning != nil {
					warn(*res.Warning)
				}
				entry.Rate = res.Rate
			}
			entry.Cost = entry.Hours * entry.Rate

			result.TotalHours += entry.Hours
			result.TotalCost += entry.Cost
			entries = append(entries, entry)
		}

		if err := tx.Timesheet.CreateBatch(ctx, entries); err != nil {
			return err
		}
		result.Imported = len(entries)

		if err := auditFallbacks(ctx, tx.ActivityLog, projectID, "timesheet_batch", result.BatchID, result.Warnings); err != nil {
			return err
		}
		return tx.ActivityLog.LogActivity(ctx, projectID, "timesheet_batch", result.BatchID, entity.ActionImport, "", "",
			fmt.Sprintf("导入工时 %d 行", len(entries)),
			map[string]interface{}{
				"rows":        len(entries),
				"total_hours": result.TotalHours,
				"total_cost":  result.TotalCost,
				"warnings":    len(result.Warnings),
			})
	})
	if err != nil {
		return nil, err
	}

	// 回滚的批次不输出警告
	for _, w := range result.Warnings {
		emitWarning(s.env.logger, projectID, w)
	}
	s.env.logger.Info("Timesheets imported",
		zap.String("project_id", projectID),
		zap.String("batch_id", result.BatchID),
		zap.Int("rows", result.Imported),
		zap.Int("warnings", len(result.Warnings)),
	)
	return result, nil
}

// DeleteBatch 按导入批次删除工时
func (s *TimesheetService) DeleteBatch(ctx context.Context, projectID, batchID string) (int64, error) {
	var deleted int64
	err := s.env.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		var err error
		deleted, err = tx.Timesheet.DeleteBatch(ctx, projectID, batchID)
		if err != nil {
			return err
		}
		if deleted == 0 {
			return ErrBatchNotFound
		}
		return tx.ActivityLog.LogActivity(ctx, projectID, "timesheet_batch", batchID, entity.ActionDeleteBatch, "", "",
			fmt.Sprintf("删除导入批次，共 %d 行", deleted), nil)
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
