package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bitfantasy/scorecard/internal/scorecard/entity"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// TimesheetRow 外部工时源的一行原始数据
type TimesheetRow struct {
	Date      string `json:"date"`
	StaffName string `json:"staff_name"`
	TaskName  string `json:"task_name"`
	Time      string `json:"time"` // 小数小时或 HH:MM:SS / HH:MM
}

// 表头别名：Workflow Max 导出列与通用列名
var timesheetHeaders = map[string]string{
	"[time] date":     "date",
	"[staff] name":    "staff_name",
	"[job task] name": "task_name",
	"[time] time":     "time",
	"date":            "date",
	"staff_name":      "staff_name",
	"staff":           "staff_name",
	"task_name":       "task_name",
	"task":            "task_name",
	"time":            "time",
	"hours":           "time",
}

// ParseDuration 将工时文本转换为小数小时：H + M/60 + S/3600。空值或无法解析时返回0。
func ParseDuration(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 1:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return v
	case 2, 3:
		var nums [3]int
		for i, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return 0
			}
			nums[i] = n
		}
		return float64(nums[0]) + float64(nums[1])/60.0 + float64(nums[2])/3600.0
	default:
		return 0
	}
}

// WeekEnding 返回严格晚于 t 的下一个周六；周六本身归入下一周
func WeekEnding(t time.Time) time.Time {
	days := (int(time.Saturday) - int(t.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return t.AddDate(0, 0, days)
}

// MapFunction 按任务名称关键字判定职能；matched 为 false 表示任务名为空
func MapFunction(taskName string) (function string, matched bool) {
	task := strings.ToUpper(strings.TrimSpace(taskName))
	if task == "" {
		return entity.FunctionEngineering, false
	}
	switch {
	case strings.Contains(task, "PM") || strings.Contains(task, "MANAGEMENT"):
		return entity.FunctionManagement, true
	case strings.Contains(task, "DF") || strings.Contains(task, "DRAFT") || strings.Contains(task, "3D"):
		return entity.FunctionDrafting, true
	}
	return entity.FunctionEngineering, true
}

var importDateLayouts = []string{
	entity.DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006/01/02",
	"1/2/2006",
	"01/02/2006",
	"2-Jan-2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"Jan 2, 2006",
}

// ParseImportDate 解析导入行日期
func ParseImportDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range importDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("无效的日期 %q", s)
}

// ReadTimesheetCSV 读取 CSV 工时导出。encoding 为 windows-1252 时按该编码解码，否则按 UTF-8（可带BOM）。
func ReadTimesheetCSV(r io.Reader, encoding string) ([]TimesheetRow, error) {
	var decoded io.Reader
	switch strings.ToLower(encoding) {
	case "windows-1252", "cp1252", "latin1":
		decoded = transform.NewReader(r, charmap.Windows1252.NewDecoder())
	default:
		decoded = transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	}

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return mapTimesheetRecords(records)
}

// ReadTimesheetXLSX 读取 xlsx 工时导出（第一个工作表，首行为表头）
func ReadTimesheetXLSX(r io.Reader) ([]TimesheetRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open excel: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("read excel: %w", err)
	}
	return mapTimesheetRecords(rows)
}

func mapTimesheetRecords(records [][]string) ([]TimesheetRow, error) {
	if len(records) == 0 {
		return nil, nil
	}
	index := make(map[string]int)
	for i, h := range records[0] {
		if field, ok := timesheetHeaders[strings.ToLower(strings.TrimSpace(h))]; ok {
			if _, dup := index[field]; !dup {
				index[field] = i
			}
		}
	}
	for _, required := range []string{"date", "staff_name", "time"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("%w: 缺少列 %s", ErrValidation, required)
		}
	}

	cell := func(rec []string, field string) string {
		i, ok := index[field]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []TimesheetRow
	for _, rec := range records[1:] {
		if isBlankRecord(rec) {
			continue
		}
		rows = append(rows, TimesheetRow{
			Date:      cell(rec, "date"),
			StaffName: cell(rec, "staff_name"),
			TaskName:  cell(rec, "task_name"),
			Time:      cell(rec, "time"),
		})
	}
	return rows, nil
}

func isBlankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
