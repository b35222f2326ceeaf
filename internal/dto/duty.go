package dto

import "github.com/Sellamuthu2007/project-demo-backend/internal/model"

// ── 值班模块请求 ──

// MobileRequest 签到 / 交卷请求
type MobileRequest struct {
	MobileNumber string `json:"mobile_number" binding:"required,mobile"`
}

// ProxyRequest 代理签到请求
// emergency_reason 仅记录日志，不落库
type ProxyRequest struct {
	AbsentStaffName   string `json:"absent_staff_name"   binding:"required,max=100"`
	AbsentDepartment  string `json:"absent_department"   binding:"omitempty,max=100"`
	AbsentHall        string `json:"absent_hall"         binding:"required,max=50"`
	ProxyStaffName    string `json:"proxy_staff_name"    binding:"required,max=100"`
	ProxyMobileNumber string `json:"proxy_mobile_number" binding:"required,mobile"`
	EmergencyReason   string `json:"emergency_reason"    binding:"omitempty,max=500"`
}

// ── 值班模块响应 ──

// MobileCheckResult 手机号存在性检查结果
type MobileCheckResult struct {
	Exists           bool
	AlreadySubmitted bool
	Duty             *model.DutyRecord
}

// StaffInfoResponse 按手机号核验身份的投影
type StaffInfoResponse struct {
	Name       string     `json:"name"`
	Department string     `json:"department"`
	MobileNo   string     `json:"mobile_no"`
	Hall       string     `json:"hall"`
	DutyDate   model.Date `json:"duty_date"`
}

// MatchList 搜索命中列表
type MatchList struct {
	Count int                `json:"count"`
	Data  []model.DutyRecord `json:"data"`
}

// StaffSearchResponse 姓名精确 + 模糊双通道搜索结果
type StaffSearchResponse struct {
	SearchName   string     `json:"search_name"`
	Date         model.Date `json:"date"`
	ExactMatch   MatchList  `json:"exact_match"`
	PartialMatch MatchList  `json:"partial_match"`
}

// DutyListResponse 值班记录列表
type DutyListResponse struct {
	Date  *model.Date        `json:"date,omitempty"`
	Count int                `json:"count"`
	List  []model.DutyRecord `json:"list"`
}

// DutySummaryResponse 当日签到统计
type DutySummaryResponse struct {
	Date      model.Date `json:"date"`
	Total     int64      `json:"total"`
	Reported  int64      `json:"reported"`
	Submitted int64      `json:"submitted"`
	Proxied   int64      `json:"proxied"`
	Pending   int64      `json:"pending"`
}

// MobileParam 路径参数 :mobile_number
type MobileParam struct {
	MobileNumber string `uri:"mobile_number" binding:"required,mobile"`
}

// NameParam 路径参数 :name
type NameParam struct {
	Name string `uri:"name" binding:"required,max=100"`
}
