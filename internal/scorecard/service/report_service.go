package service

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/bitfantasy/scorecard/internal/scorecard/entity"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Archiver 报表归档存储
type Archiver interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// 报表工作表名称
const (
	SheetSummary        = "Summary"
	SheetDeliverables   = "Deliverables"
	SheetTimesheets     = "Timesheets"
	SheetChangeOrders   = "Change Orders"
	SheetPurchaseOrders = "Purchase Orders"
)

// ReportService 报表导出服务
type ReportService struct {
	env       *Env
	summary   *SummaryService
	reconcile *ReconcileService
}

func NewReportService(env *Env, summary *SummaryService, reconcile *ReconcileService) *ReportService {
	return &ReportService{env: env, summary: summary, reconcile: reconcile}
}

// Table 一张表格
type Table struct {
	Name   string          `json:"name"`
	Header []string        `json:"header"`
	Rows   [][]interface{} `json:"rows"`
}

// Report 项目周报的表格快照
type Report struct {
	Filename string  `json:"filename"`
	Tables   []Table `json:"tables"`
}

// ExportResult 导出结果；ArchiveKey 仅在配置了归档存储时有值
type ExportResult struct {
	Filename   string `json:"filename"`
	Size       int    `json:"size"`
	ArchiveKey string `json:"archive_key,omitempty"`
}

// Build 生成报表表格（Summary/Deliverables/Timesheets/Change Orders/Purchase Orders）
func (s *ReportService) Build(ctx context.Context, projectID, weekEnding string) (*Report, error) {
	if _, err := entity.ParseDate(weekEnding); err != nil {
		return nil, validationError("week_ending", "无效的日期 %q", weekEnding)
	}
	dash, err := s.summary.Dashboard(ctx, projectID)
	if err != nil {
		return nil, err
	}
	recon, err := s.reconcile.Reconcile(ctx, projectID)
	if err != nil {
		return nil, err
	}
	repos := s.env.repos
	deliverables, err := repos.Deliverable.FindByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	timesheets, err := repos.Timesheet.FindByProject(ctx, projectID, "", "")
	if err != nil {
		return nil, err
	}
	cos, err := repos.ChangeOrder.FindByProject(ctx, projectID, "")
	if err != nil {
		return nil, err
	}
	pos, err := repos.PO.FindByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	project := dash.Project
	t := dash.Totals
	summary := Table{
		Name:   SheetSummary,
		Header: []string{"Metric", "Value"},
		Rows: [][]interface{}{
			{"Project", project.Name},
			{"Project Code", project.Code},
			{"Client", project.Client},
			{"Report Date", weekEnding},
			{"Budget Hours", t.BudgetHours},
			{"Actual Hours", t.ActualHours},
			{"Actual Cost", t.ActualCost},
			{"Earned Hours", t.EarnedHours},
			{"Forecast To Complete", t.ForecastToComplete},
			{"Forecast At Completion", t.ForecastAtCompletion},
			{"Performance Factor", dash.PerformanceFactor},
			{"Deliverable FTC", recon.DeliverableFTC},
			{"Manning FTC", recon.ManningFTC},
			{"Forecast Variance", recon.Variance},
			{"Reconciliation", recon.Status},
		},
	}

	deliverableTable := Table{
		Name: SheetDeliverables,
		Header: []string{"WBS Code", "Deliverable", "Discipline", "Function", "Budget Hours", "Status",
			"Progress %", "Manual Override", "Earned Hours", "Forecast To Complete", "Planned Complete"},
	}
	for _, d := range deliverables {
		deliverableTable.Rows = append(deliverableTable.Rows, []interface{}{
			d.WBSCode, d.Name, d.Discipline, d.Function, d.BudgetHours, d.Status,
			d.PhysicalProgress, d.ManualProgressOverride, EffectiveEarned(d), d.ForecastToComplete, deref(d.PlannedComplete),
		})
	}

	timesheetTable := Table{
		Name: SheetTimesheets,
		Header: []string{"Date", "Week Ending", "Staff", "Task", "Function", "Discipline", "Position",
			"Hours", "Rate", "Cost", "Import Batch"},
	}
	for _, e := range timesheets {
		timesheetTable.Rows = append(timesheetTable.Rows, []interface{}{
			e.Date, e.WeekEnding, e.StaffName, e.TaskName, e.Function, e.Discipline, e.Position,
			e.Hours, e.Rate, e.Cost, e.ImportBatchID,
		})
	}

	coTable := Table{
		Name: SheetChangeOrders,
		Header: []string{"CO Number", "Description", "Change Type", "Client Billable", "Status",
			"Hours Mgmt", "Hours Eng", "Hours Draft", "Total Hours", "Estimated Cost", "Approved Cost",
			"Submitted", "Approved", "Incorporated"},
	}
	for _, co := range cos {
		coTable.Rows = append(coTable.Rows, []interface{}{
			co.CONumber, co.Description, co.ChangeType, co.ClientBillable, co.Status,
			co.HoursMgmt, co.HoursEng, co.HoursDraft, co.TotalHours, co.EstimatedCost, co.ApprovedCost,
			deref(co.SubmittedDate), deref(co.ApprovalDate), deref(co.IncorporatedDate),
		})
	}

	poTable := Table{
		Name: SheetPurchaseOrders,
		Header: []string{"PO Number", "Supplier", "Description", "Category", "Commitment Value",
			"Invoiced To Date", "Accrued Work Done", "Remaining Commitment", "Status", "Issue Date"},
	}
	for _, po := range pos {
		poTable.Rows = append(poTable.Rows, []interface{}{
			po.PONumber, po.Supplier, po.Description, po.Category, po.CommitmentValue,
			po.InvoicedToDate, po.AccruedWorkDone, po.RemainingCommitment, po.Status, po.IssueDate,
		})
	}

	return &Report{
		Filename: fmt.Sprintf("Report_%s_%s.xlsx", project.Code, weekEnding),
		Tables:   []Table{summary, deliverableTable, timesheetTable, coTable, poTable},
	}, nil
}

// Workbook 将报表渲染为 xlsx
func (s *ReportService) Workbook(report *Report) (*excelize.File, error) {
	f := excelize.NewFile()

	// 表头样式: 加粗
	boldStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, err
	}

	for i, table := range report.Tables {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", table.Name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(table.Name); err != nil {
			return nil, err
		}

		for col, h := range table.Header {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			f.SetCellValue(table.Name, cell, h)
			f.SetCellStyle(table.Name, cell, cell, boldStyle)
		}
		for r, row := range table.Rows {
			cell, _ := excelize.CoordinatesToCellName(1, r+2)
			if err := f.SetSheetRow(table.Name, cell, &row); err != nil {
				return nil, err
			}
		}
		if len(table.Header) > 0 {
			last, _ := excelize.ColumnNumberToName(len(table.Header))
			f.SetColWidth(table.Name, "A", last, 16)
		}
	}
	return f, nil
}

// Export 生成报表并写入 w；配置了归档存储时同时上传
func (s *ReportService) Export(ctx context.Context, projectID, weekEnding string, w io.Writer) (*ExportResult, error) {
	report, err := s.Build(ctx, projectID, weekEnding)
	if err != nil {
		return nil, err
	}
	f, err := s.Workbook(report)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	data := buf.Bytes()
	if _, err := w.Write(data); err != nil {
		return nil, err
	}

	result := &ExportResult{Filename: report.Filename, Size: len(data)}
	if s.env.archiver != nil {
		key, err := s.env.archiver.Upload(ctx, projectID+"/"+report.Filename, data, xlsxContentType)
		if err != nil {
			// 归档失败不影响本地导出
			s.env.logger.Warn("Report archive failed", zap.String("project_id", projectID), zap.Error(err))
		} else {
			result.ArchiveKey = key
		}
	}
	return result, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
