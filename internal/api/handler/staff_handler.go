package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Sellamuthu2007/project-demo-backend/internal/dto"
	"github.com/Sellamuthu2007/project-demo-backend/internal/service"
	"github.com/Sellamuthu2007/project-demo-backend/pkg/response"
)

// StaffHandler 监考人员核验与搜索
type StaffHandler struct {
	querySvc service.QueryService
	calendar *service.DutyCalendar
}

// NewStaffHandler 创建 StaffHandler
func NewStaffHandler(querySvc service.QueryService, calendar *service.DutyCalendar) *StaffHandler {
	return &StaffHandler{querySvc: querySvc, calendar: calendar}
}

// ByMobile 按手机号核验身份
// GET /staff/by-mobile/:mobile_number
func (h *StaffHandler) ByMobile(c *gin.Context) {
	var p dto.MobileParam
	if err := c.ShouldBindUri(&p); err != nil {
		response.BadRequest(c, codeDutyValidation, "A valid mobile_number is required")
		return
	}

	info, err := h.querySvc.StaffByMobile(c.Request.Context(), p.MobileNumber)
	if err != nil {
		handleDutyError(c, err, "Staff not found for "+h.calendar.Date().String())
		return
	}

	response.OK(c, "Staff found", info)
}

// Search 按姓名精确 + 模糊搜索
// GET /staff/search/:name
func (h *StaffHandler) Search(c *gin.Context) {
	var p dto.NameParam
	if err := c.ShouldBindUri(&p); err != nil {
		response.BadRequest(c, codeDutyValidation, "A staff name is required")
		return
	}

	result, err := h.querySvc.SearchStaff(c.Request.Context(), p.Name)
	if err != nil {
		handleDutyError(c, err, "")
		return
	}

	response.OK(c, "Staff search results", result)
}
