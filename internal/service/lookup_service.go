package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Sellamuthu2007/project-demo-backend/internal/model"
	"github.com/Sellamuthu2007/project-demo-backend/internal/repository"
	pkgerrors "github.com/Sellamuthu2007/project-demo-backend/pkg/errors"
)

// LookupService 按手机号 / 姓名+考场定位当日值班记录
type LookupService interface {
	FindByMobile(ctx context.Context, mobile string) (*model.DutyRecord, error)
	FindByStaffAndHall(ctx context.Context, staffName, hall string) (*model.DutyRecord, error)
	SearchByStaffName(ctx context.Context, name string) (exact, partial []model.DutyRecord, err error)
}

type lookupService struct {
	repo     *repository.Repository
	calendar *DutyCalendar
	logger   *zap.Logger
}

// NewLookupService 创建 LookupService 实例
func NewLookupService(repo *repository.Repository, calendar *DutyCalendar, logger *zap.Logger) LookupService {
	return &lookupService{repo: repo, calendar: calendar, logger: logger}
}

func (s *lookupService) FindByMobile(ctx context.Context, mobile string) (*model.DutyRecord, error) {
	mobile = strings.TrimSpace(mobile)
	if mobile == "" {
		return nil, ErrInvalidInput
	}

	date := s.calendar.Date()
	rec, err := s.repo.Duty.GetByMobile(ctx, date, mobile)
	if err != nil {
		return nil, s.mapLookupError(err, zap.String("mobile", mobile), zap.Stringer("duty_date", date))
	}
	return rec, nil
}

func (s *lookupService) FindByStaffAndHall(ctx context.Context, staffName, hall string) (*model.DutyRecord, error) {
	staffName, hall = strings.TrimSpace(staffName), strings.TrimSpace(hall)
	if staffName == "" || hall == "" {
		return nil, ErrInvalidInput
	}

	date := s.calendar.Date()
	rec, err := s.repo.Duty.GetByStaffAndHall(ctx, date, staffName, hall)
	if err != nil {
		return nil, s.mapLookupError(err,
			zap.String("staff", staffName), zap.String("hall", hall), zap.Stringer("duty_date", date))
	}
	return rec, nil
}

func (s *lookupService) SearchByStaffName(ctx context.Context, name string) ([]model.DutyRecord, []model.DutyRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, ErrInvalidInput
	}

	date := s.calendar.Date()
	exact, partial, err := s.repo.Duty.SearchByStaffName(ctx, date, name)
	if err != nil {
		s.logger.Error("搜索值班人员失败", zap.String("name", name), zap.Stringer("duty_date", date), zap.Error(err))
		return nil, nil, err
	}
	return nonNil(exact), nonNil(partial), nil
}

// mapLookupError 未命中转为 ErrDutyNotFound；多行命中记为数据完整性故障
func (s *lookupService) mapLookupError(err error, fields ...zap.Field) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrDutyNotFound
	case errors.Is(err, pkgerrors.ErrMultipleRows):
		s.logger.Error("值班记录唯一性被破坏", append(fields, zap.Error(err))...)
		return ErrDataIntegrity
	default:
		s.logger.Error("查询值班记录失败", append(fields, zap.Error(err))...)
		return err
	}
}

func nonNil(recs []model.DutyRecord) []model.DutyRecord {
	if recs == nil {
		return []model.DutyRecord{}
	}
	return recs
}
