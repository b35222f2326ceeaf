package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Sellamuthu2007/project-demo-backend/internal/model"
	"github.com/Sellamuthu2007/project-demo-backend/internal/repository"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = errors.New("生成 Excel 文件失败")

const attendanceSheet = "Attendance"

var attendanceHeaders = []string{
	"Hall", "Department", "Assigned staff", "Mobile",
	"Reported staff", "Check-in", "Submission", "Status",
}

// 出勤状态列取值
const (
	StatusPending   = "Pending"
	StatusReported  = "Reported"
	StatusProxy     = "Proxy"
	StatusSubmitted = "Submitted"
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportToday 导出当日监考出勤表
	ExportToday(ctx context.Context) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo     *repository.Repository
	calendar *DutyCalendar
	logger   *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, calendar *DutyCalendar, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, calendar: calendar, logger: logger}
}

// ExportToday 输出格式：
//   - Sheet "Attendance"
//   - 第 1 行标题，第 2 行表头，其后每条记录一行（按考场排序）
//
// 当日无记录时仍返回只含表头的工作簿
func (s *exportService) ExportToday(ctx context.Context) (*bytes.Buffer, string, error) {
	date := s.calendar.Date()
	recs, err := s.repo.Duty.ListByDate(ctx, date)
	if err != nil {
		s.logger.Error("查询出勤数据失败", zap.Stringer("duty_date", date), zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", attendanceSheet); err != nil {
		s.logger.Error("创建 Sheet 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	// 列宽
	f.SetColWidth(attendanceSheet, "A", "B", 16)
	f.SetColWidth(attendanceSheet, "C", "C", 24)
	f.SetColWidth(attendanceSheet, "D", "D", 16)
	f.SetColWidth(attendanceSheet, "E", "E", 24)
	f.SetColWidth(attendanceSheet, "F", "H", 12)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	lastCol := colName(len(attendanceHeaders) - 1)
	f.SetCellValue(attendanceSheet, "A1", fmt.Sprintf("Invigilation attendance %s", date))
	f.MergeCell(attendanceSheet, "A1", cell(lastCol, 1))
	f.SetCellStyle(attendanceSheet, "A1", "A1", headerStyle)

	// 表头
	for i, h := range attendanceHeaders {
		f.SetCellValue(attendanceSheet, cell(colName(i), 2), h)
	}
	f.SetCellStyle(attendanceSheet, "A2", cell(lastCol, 2), headerStyle)

	// 数据行
	for i := range recs {
		if err := f.SetSheetRow(attendanceSheet, cell("A", 3+i), attendanceRow(&recs[i])); err != nil {
			s.logger.Error("写入出勤行失败", zap.Int64("id", recs[i].ID), zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	s.logger.Info("导出出勤表", zap.Stringer("duty_date", date), zap.Int("rows", len(recs)))
	return buf, fmt.Sprintf("invigilation_%s.xlsx", date), nil
}

// AttendanceStatus 出勤状态：交卷优先，其次区分本人签到与代理签到
func AttendanceStatus(rec *model.DutyRecord) string {
	switch {
	case rec.IsSubmitted():
		return StatusSubmitted
	case rec.IsProxied():
		return StatusProxy
	case rec.IsReported():
		return StatusReported
	default:
		return StatusPending
	}
}

// ── 辅助函数 ──

func attendanceRow(rec *model.DutyRecord) *[]interface{} {
	row := []interface{}{
		rec.Hall,
		rec.Department,
		rec.AssignedStaffName,
		rec.MobileNumber,
		deref(rec.ReportedStaffName),
		timeText(rec.CheckinTime),
		timeText(rec.SubmissionTime),
		AttendanceStatus(rec),
	}
	return &row
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func timeText(t *model.TimeOfDay) string {
	if t == nil {
		return ""
	}
	return string(*t)
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
