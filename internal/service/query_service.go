package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Sellamuthu2007/project-demo-backend/internal/dto"
	"github.com/Sellamuthu2007/project-demo-backend/internal/model"
	"github.com/Sellamuthu2007/project-demo-backend/internal/repository"
)

// QueryService 只读查询，供看板与客户端核验使用，不触发任何状态迁移
type QueryService interface {
	Today(ctx context.Context) (*dto.DutyListResponse, error)
	All(ctx context.Context) (*dto.DutyListResponse, error)
	SearchStaff(ctx context.Context, name string) (*dto.StaffSearchResponse, error)
	CheckMobile(ctx context.Context, mobile string) (*dto.MobileCheckResult, error)
	StaffByMobile(ctx context.Context, mobile string) (*dto.StaffInfoResponse, error)
	Summary(ctx context.Context) (*dto.DutySummaryResponse, error)
}

type queryService struct {
	repo     *repository.Repository
	lookup   LookupService
	calendar *DutyCalendar
	logger   *zap.Logger
}

// NewQueryService 创建 QueryService 实例
func NewQueryService(repo *repository.Repository, lookup LookupService, calendar *DutyCalendar, logger *zap.Logger) QueryService {
	return &queryService{repo: repo, lookup: lookup, calendar: calendar, logger: logger}
}

func (s *queryService) Today(ctx context.Context) (*dto.DutyListResponse, error) {
	date := s.calendar.Date()
	recs, err := s.repo.Duty.ListByDate(ctx, date)
	if err != nil {
		s.logger.Error("查询当日值班失败", zap.Stringer("duty_date", date), zap.Error(err))
		return nil, err
	}
	recs = nonNil(recs)
	return &dto.DutyListResponse{Date: &date, Count: len(recs), List: recs}, nil
}

func (s *queryService) All(ctx context.Context) (*dto.DutyListResponse, error) {
	recs, err := s.repo.Duty.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询全部值班失败", zap.Error(err))
		return nil, err
	}
	recs = nonNil(recs)
	return &dto.DutyListResponse{Count: len(recs), List: recs}, nil
}

func (s *queryService) SearchStaff(ctx context.Context, name string) (*dto.StaffSearchResponse, error) {
	exact, partial, err := s.lookup.SearchByStaffName(ctx, name)
	if err != nil {
		return nil, err
	}
	return &dto.StaffSearchResponse{
		SearchName:   name,
		Date:         s.calendar.Date(),
		ExactMatch:   dto.MatchList{Count: len(exact), Data: exact},
		PartialMatch: dto.MatchList{Count: len(partial), Data: partial},
	}, nil
}

// CheckMobile 未命中不是错误，返回 Exists=false
func (s *queryService) CheckMobile(ctx context.Context, mobile string) (*dto.MobileCheckResult, error) {
	rec, err := s.lookup.FindByMobile(ctx, mobile)
	if err != nil {
		if errors.Is(err, ErrDutyNotFound) {
			return &dto.MobileCheckResult{Exists: false}, nil
		}
		return nil, err
	}
	return &dto.MobileCheckResult{
		Exists:           true,
		AlreadySubmitted: rec.IsSubmitted(),
		Duty:             rec,
	}, nil
}

func (s *queryService) StaffByMobile(ctx context.Context, mobile string) (*dto.StaffInfoResponse, error) {
	rec, err := s.lookup.FindByMobile(ctx, mobile)
	if err != nil {
		return nil, err
	}
	return toStaffInfo(rec), nil
}

func (s *queryService) Summary(ctx context.Context) (*dto.DutySummaryResponse, error) {
	date := s.calendar.Date()
	counts, err := s.repo.Duty.CountByDate(ctx, date)
	if err != nil {
		s.logger.Error("统计当日值班失败", zap.Stringer("duty_date", date), zap.Error(err))
		return nil, err
	}
	return &dto.DutySummaryResponse{
		Date:      date,
		Total:     counts.Total,
		Reported:  counts.Reported,
		Submitted: counts.Submitted,
		Proxied:   counts.Proxied,
		Pending:   counts.Total - counts.Reported,
	}, nil
}

// ── 内部辅助方法 ──

func toStaffInfo(rec *model.DutyRecord) *dto.StaffInfoResponse {
	return &dto.StaffInfoResponse{
		Name:       rec.AssignedStaffName,
		Department: rec.Department,
		MobileNo:   rec.MobileNumber,
		Hall:       rec.Hall,
		DutyDate:   rec.DutyDate,
	}
}
