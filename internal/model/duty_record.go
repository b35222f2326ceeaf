package model

// 值班记录派生状态
const (
	DutyStateAssigned  = "assigned"
	DutyStateCheckedIn = "checked_in"
	DutyStateSubmitted = "submitted"
)

// DutyRecord 监考值班记录表，对应 invigilation_duty
// 由外部排班导入创建；本服务只做签到、交卷、代理签到三类更新，从不删除
type DutyRecord struct {
	ID                int64      `gorm:"primaryKey;autoIncrement"                                                   json:"id"`
	DutyDate          Date       `gorm:"type:date;not null;uniqueIndex:uk_invigilation_duty_date_hall_staff,priority:1;uniqueIndex:uk_invigilation_duty_date_mobile,priority:1" json:"duty_date"`
	Hall              string     `gorm:"type:varchar(50);not null;uniqueIndex:uk_invigilation_duty_date_hall_staff,priority:2"                                              json:"hall"`
	Department        string     `gorm:"type:varchar(100);not null;default:''"                                      json:"department"`
	AssignedStaffName string     `gorm:"type:varchar(100);not null;uniqueIndex:uk_invigilation_duty_date_hall_staff,priority:3"                                             json:"assigned_staff_name"` // 原定监考人，永不覆盖
	MobileNumber      string     `gorm:"type:varchar(20);not null;uniqueIndex:uk_invigilation_duty_date_mobile,priority:2"                                                  json:"mobile_number"`       // 代理签到会改写
	ReportedStaffName *string    `gorm:"type:varchar(100)"                                                          json:"reported_staff_name"`
	CheckinTime       *TimeOfDay `gorm:"type:time"                                                                  json:"checkin_time"`
	SubmissionTime    *TimeOfDay `gorm:"type:time"                                                                  json:"submission_time"`
	BaseModel
}

// TableName 指定表名
func (DutyRecord) TableName() string { return "invigilation_duty" }

// IsReported 是否已签到
func (d *DutyRecord) IsReported() bool { return d.CheckinTime != nil }

// IsSubmitted 是否已交卷
func (d *DutyRecord) IsSubmitted() bool { return d.SubmissionTime != nil }

// IsProxied 实际到岗人与原定监考人不同
func (d *DutyRecord) IsProxied() bool {
	return d.ReportedStaffName != nil && *d.ReportedStaffName != d.AssignedStaffName
}

// State 派生生命周期状态
func (d *DutyRecord) State() string {
	switch {
	case d.IsSubmitted():
		return DutyStateSubmitted
	case d.IsReported():
		return DutyStateCheckedIn
	default:
		return DutyStateAssigned
	}
}
