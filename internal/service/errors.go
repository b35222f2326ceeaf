package service

import (
	"errors"

	"github.com/Sellamuthu2007/project-demo-backend/internal/model"
)

// ── 值班模块业务错误 ──

var (
	ErrDutyNotFound     = errors.New("值班记录不存在")
	ErrAlreadyReported  = errors.New("该手机号已签到")
	ErrAlreadySubmitted = errors.New("试卷已提交")
	ErrNotReported      = errors.New("尚未签到，不能交卷")
	ErrMobileInUse      = errors.New("代理手机号已绑定其他值班记录")
	ErrDataIntegrity    = errors.New("唯一条件命中多条值班记录")
	ErrInvalidInput     = errors.New("请求参数无效")
)

// DutyStateError 前置条件不满足，同时携带记录当前状态
// 客户端据此直接渲染界面，无需再次查询
type DutyStateError struct {
	Err    error
	Record *model.DutyRecord
}

func (e *DutyStateError) Error() string { return e.Err.Error() }

func (e *DutyStateError) Unwrap() error { return e.Err }

func stateError(err error, rec *model.DutyRecord) error {
	return &DutyStateError{Err: err, Record: rec}
}
