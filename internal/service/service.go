package service

import (
	"go.uber.org/zap"

	"github.com/Sellamuthu2007/project-demo-backend/config"
	"github.com/Sellamuthu2007/project-demo-backend/internal/repository"
	"github.com/Sellamuthu2007/project-demo-backend/pkg/metrics"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Lookup LookupService
	Duty   DutyService
	Query  QueryService
	Export ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.DutyConfig,
	repo *repository.Repository,
	calendar *DutyCalendar,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	lookup := NewLookupService(repo, calendar, logger)
	return &Service{
		Lookup: lookup,
		Duty:   NewDutyService(cfg, repo, lookup, calendar, m, logger),
		Query:  NewQueryService(repo, lookup, calendar, logger),
		Export: NewExportService(repo, calendar, logger),
	}
}
