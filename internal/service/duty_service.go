package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Sellamuthu2007/project-demo-backend/config"
	"github.com/Sellamuthu2007/project-demo-backend/internal/dto"
	"github.com/Sellamuthu2007/project-demo-backend/internal/model"
	"github.com/Sellamuthu2007/project-demo-backend/internal/repository"
	pkgerrors "github.com/Sellamuthu2007/project-demo-backend/pkg/errors"
	"github.com/Sellamuthu2007/project-demo-backend/pkg/metrics"
)

// 状态迁移操作名（日志与指标标签）
const (
	opReport = "report"
	opSubmit = "submit"
	opProxy  = "proxy"
)

// DutyService 值班记录生命周期：签到、交卷、代理签到
//
// 状态：Assigned → CheckedIn → Submitted。
// 每次迁移都是“读取校验 + 数据库条件更新”，并发的重复请求只有一个能生效，
// 其余请求得到 ErrAlreadyReported / ErrAlreadySubmitted 及记录最新状态。
type DutyService interface {
	Report(ctx context.Context, mobile string) (*model.DutyRecord, error)
	Submit(ctx context.Context, mobile string) (*model.DutyRecord, error)
	Proxy(ctx context.Context, req *dto.ProxyRequest) (*model.DutyRecord, error)
}

type dutyService struct {
	cfg      *config.DutyConfig
	repo     *repository.Repository
	lookup   LookupService
	calendar *DutyCalendar
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewDutyService 创建 DutyService 实例
func NewDutyService(
	cfg *config.DutyConfig,
	repo *repository.Repository,
	lookup LookupService,
	calendar *DutyCalendar,
	m *metrics.Metrics,
	logger *zap.Logger,
) DutyService {
	return &dutyService{
		cfg:      cfg,
		repo:     repo,
		lookup:   lookup,
		calendar: calendar,
		metrics:  m,
		logger:   logger,
	}
}

// ────────────────────── Report ──────────────────────

func (s *dutyService) Report(ctx context.Context, mobile string) (rec *model.DutyRecord, err error) {
	defer s.observe(opReport, time.Now(), &err)

	existing, err := s.lookup.FindByMobile(ctx, mobile)
	if err != nil {
		return nil, err
	}
	if existing.IsReported() {
		return nil, stateError(ErrAlreadyReported, existing)
	}

	at := s.calendar.ClockTime()
	s.logger.Info("值班签到",
		zap.Int64("id", existing.ID),
		zap.String("mobile", existing.MobileNumber),
		zap.String("reported_staff_name", existing.AssignedStaffName),
		zap.String("checkin_time", string(at)),
	)

	updated, err := s.repo.Duty.MarkReported(ctx, existing.ID, existing.AssignedStaffName, at)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrConditionNotMet) {
			return nil, s.lostRace(ctx, opReport, ErrAlreadyReported, existing)
		}
		s.logStoreFault(opReport, existing, err)
		return nil, err
	}
	return updated, nil
}

// ────────────────────── Submit ──────────────────────

func (s *dutyService) Submit(ctx context.Context, mobile string) (rec *model.DutyRecord, err error) {
	defer s.observe(opSubmit, time.Now(), &err)

	existing, err := s.lookup.FindByMobile(ctx, mobile)
	if err != nil {
		return nil, err
	}
	if existing.IsSubmitted() {
		return nil, stateError(ErrAlreadySubmitted, existing)
	}
	if s.cfg.RequireCheckinBeforeSubmit && !existing.IsReported() {
		return nil, stateError(ErrNotReported, existing)
	}

	at := s.calendar.ClockTime()
	s.logger.Info("提交试卷",
		zap.Int64("id", existing.ID),
		zap.String("mobile", existing.MobileNumber),
		zap.String("submission_time", string(at)),
	)

	updated, err := s.repo.Duty.MarkSubmitted(ctx, existing.ID, at)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrConditionNotMet) {
			return nil, s.lostRace(ctx, opSubmit, ErrAlreadySubmitted, existing)
		}
		s.logStoreFault(opSubmit, existing, err)
		return nil, err
	}
	return updated, nil
}

// ────────────────────── Proxy ──────────────────────

// Proxy 缺席人员由代理人顶替：记录的手机号改为代理人手机号，此后签到/交卷均以代理人身份进行。
// allow_proxy_overwrite=true 时重复代理会覆盖上一次结果（用于纠正误填），否则只允许在未签到时代理。
func (s *dutyService) Proxy(ctx context.Context, req *dto.ProxyRequest) (rec *model.DutyRecord, err error) {
	defer s.observe(opProxy, time.Now(), &err)

	proxyName := strings.TrimSpace(req.ProxyStaffName)
	proxyMobile := strings.TrimSpace(req.ProxyMobileNumber)
	if proxyName == "" || proxyMobile == "" {
		return nil, ErrInvalidInput
	}

	existing, err := s.lookup.FindByStaffAndHall(ctx, req.AbsentStaffName, req.AbsentHall)
	if err != nil {
		return nil, err
	}
	if dept := strings.TrimSpace(req.AbsentDepartment); dept != "" && !strings.EqualFold(dept, existing.Department) {
		return nil, ErrDutyNotFound
	}
	if !s.cfg.AllowProxyOverwrite && existing.IsReported() {
		return nil, stateError(ErrAlreadyReported, existing)
	}

	// 代理手机号不能占用当日其他记录，否则后续按手机号定位将出现多行
	if proxyMobile != existing.MobileNumber {
		owner, lookupErr := s.lookup.FindByMobile(ctx, proxyMobile)
		switch {
		case lookupErr == nil && owner.ID != existing.ID:
			return nil, ErrMobileInUse
		case lookupErr != nil && !errors.Is(lookupErr, ErrDutyNotFound):
			return nil, lookupErr
		}
	}

	at := s.calendar.ClockTime()
	s.logger.Info("代理签到",
		zap.Int64("id", existing.ID),
		zap.String("absent_staff_name", existing.AssignedStaffName),
		zap.String("hall", existing.Hall),
		zap.String("previous_mobile", existing.MobileNumber),
		zap.String("proxy_staff_name", proxyName),
		zap.String("proxy_mobile", proxyMobile),
		zap.String("emergency_reason", req.EmergencyReason),
		zap.String("checkin_time", string(at)),
	)

	updated, err := s.repo.Duty.AssignProxy(ctx, existing.ID, proxyName, proxyMobile, at, !s.cfg.AllowProxyOverwrite)
	if err != nil {
		switch {
		case errors.Is(err, pkgerrors.ErrConditionNotMet):
			return nil, s.lostRace(ctx, opProxy, ErrAlreadyReported, existing)
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, ErrMobileInUse
		}
		s.logStoreFault(opProxy, existing, err)
		return nil, err
	}
	return updated, nil
}

// ── 内部辅助方法 ──

// lostRace 条件更新落空：回读最新状态后按前置条件失败返回
func (s *dutyService) lostRace(ctx context.Context, op string, cause error, stale *model.DutyRecord) error {
	latest, err := s.repo.Duty.GetByID(ctx, stale.ID)
	if err != nil {
		s.logStoreFault(op, stale, err)
		latest = stale
	}
	s.logger.Warn("并发请求已先行完成状态迁移",
		zap.String("operation", op),
		zap.Int64("id", stale.ID),
	)
	return stateError(cause, latest)
}

func (s *dutyService) logStoreFault(op string, rec *model.DutyRecord, err error) {
	s.logger.Error("值班记录更新失败",
		zap.String("operation", op),
		zap.Int64("id", rec.ID),
		zap.String("mobile", rec.MobileNumber),
		zap.Stringer("duty_date", rec.DutyDate),
		zap.Time("at", time.Now()),
		zap.Error(err),
	)
}

func (s *dutyService) observe(op string, start time.Time, errp *error) {
	s.metrics.ObserveStore(op, start)
	s.metrics.RecordTransition(op, outcomeOf(*errp))
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrDutyNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, ErrAlreadyReported), errors.Is(err, ErrAlreadySubmitted):
		return metrics.OutcomeAlreadyDone
	case errors.Is(err, ErrMobileInUse), errors.Is(err, ErrNotReported):
		return metrics.OutcomeConflict
	case errors.Is(err, ErrInvalidInput):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}
