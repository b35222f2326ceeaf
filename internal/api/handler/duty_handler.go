package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/Sellamuthu2007/project-demo-backend/internal/dto"
	"github.com/Sellamuthu2007/project-demo-backend/internal/service"
	"github.com/Sellamuthu2007/project-demo-backend/pkg/response"
)

// 值班模块业务码
const (
	codeDutyValidation       = 20001
	codeDutyNotFound         = 20101
	codeDutyAlreadyReported  = 20102
	codeDutyAlreadySubmitted = 20103
	codeDutyNotReported      = 20104
	codeDutyMobileInUse      = 20105
	codeDutyIntegrity        = 20500
	codeDutyExportFail       = 20501
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DutyHandler 值班模块 HTTP 处理器
type DutyHandler struct {
	dutySvc   service.DutyService
	querySvc  service.QueryService
	exportSvc service.ExportService
}

// NewDutyHandler 创建 DutyHandler
func NewDutyHandler(dutySvc service.DutyService, querySvc service.QueryService, exportSvc service.ExportService) *DutyHandler {
	return &DutyHandler{dutySvc: dutySvc, querySvc: querySvc, exportSvc: exportSvc}
}

// Today 当日值班列表
// GET /duty/today
func (h *DutyHandler) Today(c *gin.Context) {
	result, err := h.querySvc.Today(c.Request.Context())
	if err != nil {
		response.InternalError(c, "Error fetching duty data")
		return
	}

	response.OK(c, "Duty data for "+result.Date.String(), result)
}

// All 全部值班记录
// GET /duty/all
func (h *DutyHandler) All(c *gin.Context) {
	result, err := h.querySvc.All(c.Request.Context())
	if err != nil {
		response.InternalError(c, "Error fetching all duty data")
		return
	}

	response.OK(c, "All duty data", result)
}

// CheckMobile 手机号是否有当日值班，以及是否已交卷
// GET /duty/check-mobile/:mobile_number
func (h *DutyHandler) CheckMobile(c *gin.Context) {
	var p dto.MobileParam
	if err := c.ShouldBindUri(&p); err != nil {
		response.BadRequest(c, codeDutyValidation, "A valid mobile_number is required")
		return
	}

	result, err := h.querySvc.CheckMobile(c.Request.Context(), p.MobileNumber)
	if err != nil {
		handleDutyError(c, err, "")
		return
	}

	if !result.Exists {
		response.JSON(c, http.StatusOK, response.Response{
			Message: "Mobile number not on duty",
			Exists:  response.Bool(false),
		})
		return
	}
	response.JSON(c, http.StatusOK, response.Response{
		Message:          "Mobile number on duty",
		Exists:           response.Bool(true),
		AlreadySubmitted: response.Bool(result.AlreadySubmitted),
		Duty:             result.Duty,
	})
}

// Report 签到
// POST /duty/report
func (h *DutyHandler) Report(c *gin.Context) {
	var req dto.MobileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeDutyValidation, "A valid mobile_number is required")
		return
	}

	rec, err := h.dutySvc.Report(c.Request.Context(), req.MobileNumber)
	if err != nil {
		handleDutyError(c, err, "Duty assignment not found for this mobile number")
		return
	}

	response.OKDuty(c, "Successfully reported for duty", rec)
}

// Submit 交卷
// POST /duty/submit
func (h *DutyHandler) Submit(c *gin.Context) {
	var req dto.MobileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeDutyValidation, "A valid mobile_number is required")
		return
	}

	rec, err := h.dutySvc.Submit(c.Request.Context(), req.MobileNumber)
	if err != nil {
		handleDutyError(c, err, "Duty record not found for this mobile number")
		return
	}

	response.OKDuty(c, "Successfully submitted papers", rec)
}

// Proxy 代理签到
// POST /duty/proxy
func (h *DutyHandler) Proxy(c *gin.Context) {
	var req dto.ProxyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeDutyValidation,
			"absent_staff_name, absent_hall, proxy_staff_name and a valid proxy_mobile_number are required")
		return
	}

	rec, err := h.dutySvc.Proxy(c.Request.Context(), &req)
	if err != nil {
		handleDutyError(c, err, "Duty assignment not found for absent staff")
		return
	}

	response.OKDuty(c, "Successfully processed proxy check-in", rec)
}

// Summary 当日签到统计
// GET /duty/summary
func (h *DutyHandler) Summary(c *gin.Context) {
	result, err := h.querySvc.Summary(c.Request.Context())
	if err != nil {
		response.InternalError(c, "Error fetching duty summary")
		return
	}

	response.OK(c, "Duty summary for "+result.Date.String(), result)
}

// Export 导出当日出勤表
// GET /duty/export
func (h *DutyHandler) Export(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportToday(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrExportGenerateFail) {
			response.Error(c, http.StatusInternalServerError, codeDutyExportFail, response.KindStoreFault, "Error generating attendance sheet")
			return
		}
		response.InternalError(c, "Error fetching duty data")
		return
	}

	// 设置下载响应头
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// handleDutyError 将 Service 层错误映射为 HTTP 状态码与业务码
// notFound 为各接口自己的未命中提示
func handleDutyError(c *gin.Context, err error, notFound string) {
	var stateErr *service.DutyStateError
	if errors.As(err, &stateErr) {
		resp := response.Response{
			Duty:             stateErr.Record,
			AlreadySubmitted: response.Bool(stateErr.Record.IsSubmitted()),
		}
		switch {
		case errors.Is(err, service.ErrAlreadyReported):
			resp.Code, resp.Message = codeDutyAlreadyReported, "Mobile number already reported"
			resp.Error = &response.ErrorBody{Kind: response.KindAlreadyReported}
		case errors.Is(err, service.ErrAlreadySubmitted):
			resp.Code, resp.Message = codeDutyAlreadySubmitted, "Papers already submitted"
			resp.Error = &response.ErrorBody{Kind: response.KindAlreadySubmitted}
		default:
			resp.Code, resp.Message = codeDutyNotReported, "Not reported for duty yet"
			resp.Error = &response.ErrorBody{Kind: response.KindNotReported}
		}
		response.JSON(c, http.StatusBadRequest, resp)
		return
	}

	switch {
	case errors.Is(err, service.ErrDutyNotFound):
		response.NotFound(c, codeDutyNotFound, notFound, "")
	case errors.Is(err, service.ErrMobileInUse):
		response.Error(c, http.StatusConflict, codeDutyMobileInUse, response.KindMobileInUse,
			"Proxy mobile number is already assigned to another duty")
	case errors.Is(err, service.ErrInvalidInput):
		response.BadRequest(c, codeDutyValidation, "Invalid request")
	case errors.Is(err, service.ErrDataIntegrity):
		response.Error(c, http.StatusInternalServerError, codeDutyIntegrity, response.KindStoreFault, "Server error")
	default:
		response.InternalError(c, "")
	}
}
