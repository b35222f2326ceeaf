package handler

import "github.com/Sellamuthu2007/project-demo-backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Duty  *DutyHandler
	Staff *StaffHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, calendar *service.DutyCalendar) *Handler {
	return &Handler{
		Duty:  NewDutyHandler(svc.Duty, svc.Query, svc.Export),
		Staff: NewStaffHandler(svc.Query, calendar),
	}
}
