package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/Sellamuthu2007/project-demo-backend/internal/model"
	"github.com/Sellamuthu2007/project-demo-backend/internal/repository"
	pkgerrors "github.com/Sellamuthu2007/project-demo-backend/pkg/errors"
)

// ── Mock DutyRecordRepository ──

type mockDutyRepo struct {
	mu      sync.Mutex
	records map[int64]*model.DutyRecord
	nextID  int64

	// err 非 nil 时所有方法直接返回该错误（模拟存储故障）
	err error
	// beforeUpdate 在条件更新判定前调用，用于模拟并发请求抢先完成
	beforeUpdate func(rec *model.DutyRecord)
}

func newMockDutyRepo() *mockDutyRepo {
	return &mockDutyRepo{records: make(map[int64]*model.DutyRecord)}
}

func (m *mockDutyRepo) add(rec model.DutyRecord) *model.DutyRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	rec.ID = m.nextID
	m.records[rec.ID] = &rec
	return &rec
}

func (m *mockDutyRepo) get(id int64) *model.DutyRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *m.records[id]
	return &c
}

func (m *mockDutyRepo) Create(_ context.Context, rec *model.DutyRecord) error {
	if m.err != nil {
		return m.err
	}
	created := m.add(*rec)
	rec.ID = created.ID
	return nil
}

func (m *mockDutyRepo) BatchCreate(ctx context.Context, recs []model.DutyRecord) error {
	for i := range recs {
		if err := m.Create(ctx, &recs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockDutyRepo) GetByID(_ context.Context, id int64) (*model.DutyRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *rec
	return &c, nil
}

func (m *mockDutyRepo) GetByMobile(_ context.Context, date model.Date, mobile string) (*model.DutyRecord, error) {
	return m.single(func(r *model.DutyRecord) bool {
		return sameDay(r.DutyDate, date) && r.MobileNumber == mobile
	})
}

func (m *mockDutyRepo) GetByStaffAndHall(_ context.Context, date model.Date, staffName, hall string) (*model.DutyRecord, error) {
	return m.single(func(r *model.DutyRecord) bool {
		return sameDay(r.DutyDate, date) && r.AssignedStaffName == staffName && r.Hall == hall
	})
}

func (m *mockDutyRepo) single(match func(*model.DutyRecord) bool) (*model.DutyRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	found := m.filter(match)
	switch len(found) {
	case 0:
		return nil, gorm.ErrRecordNotFound
	case 1:
		return &found[0], nil
	default:
		return nil, pkgerrors.ErrMultipleRows
	}
}

func (m *mockDutyRepo) filter(match func(*model.DutyRecord) bool) []model.DutyRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.DutyRecord
	for _, r := range m.records {
		if match(r) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Hall != out[j].Hall {
			return out[i].Hall < out[j].Hall
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *mockDutyRepo) ListByDate(_ context.Context, date model.Date) ([]model.DutyRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.filter(func(r *model.DutyRecord) bool { return sameDay(r.DutyDate, date) }), nil
}

func (m *mockDutyRepo) ListAll(_ context.Context) ([]model.DutyRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := m.filter(func(*model.DutyRecord) bool { return true })
	sort.SliceStable(out, func(i, j int) bool { return out[i].DutyDate.After(out[j].DutyDate.Time) })
	return out, nil
}

func (m *mockDutyRepo) SearchByStaffName(_ context.Context, date model.Date, name string) ([]model.DutyRecord, []model.DutyRecord, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	exact := m.filter(func(r *model.DutyRecord) bool {
		return sameDay(r.DutyDate, date) && r.AssignedStaffName == name
	})
	partial := m.filter(func(r *model.DutyRecord) bool {
		return sameDay(r.DutyDate, date) && strings.Contains(strings.ToLower(r.AssignedStaffName), strings.ToLower(name))
	})
	return exact, partial, nil
}

func (m *mockDutyRepo) CountByDate(_ context.Context, date model.Date) (*repository.DutyCounts, error) {
	if m.err != nil {
		return nil, m.err
	}
	var c repository.DutyCounts
	for _, r := range m.filter(func(r *model.DutyRecord) bool { return sameDay(r.DutyDate, date) }) {
		c.Total++
		if r.IsReported() {
			c.Reported++
		}
		if r.IsSubmitted() {
			c.Submitted++
		}
		if r.IsProxied() {
			c.Proxied++
		}
	}
	return &c, nil
}

func (m *mockDutyRepo) MarkReported(_ context.Context, id int64, reportedName string, at model.TimeOfDay) (*model.DutyRecord, error) {
	return m.guardedUpdate(id, func(r *model.DutyRecord) bool { return !r.IsReported() }, func(r *model.DutyRecord) {
		r.ReportedStaffName = &reportedName
		r.CheckinTime = &at
	})
}

func (m *mockDutyRepo) MarkSubmitted(_ context.Context, id int64, at model.TimeOfDay) (*model.DutyRecord, error) {
	return m.guardedUpdate(id, func(r *model.DutyRecord) bool { return !r.IsSubmitted() }, func(r *model.DutyRecord) {
		r.SubmissionTime = &at
	})
}

func (m *mockDutyRepo) AssignProxy(_ context.Context, id int64, proxyName, proxyMobile string, at model.TimeOfDay, onlyIfNotReported bool) (*model.DutyRecord, error) {
	return m.guardedUpdate(id, func(r *model.DutyRecord) bool { return !onlyIfNotReported || !r.IsReported() }, func(r *model.DutyRecord) {
		r.ReportedStaffName = &proxyName
		r.CheckinTime = &at
		r.MobileNumber = proxyMobile
	})
}

func sameDay(a, b model.Date) bool { return a.String() == b.String() }

func (m *mockDutyRepo) guardedUpdate(id int64, cond func(*model.DutyRecord) bool, apply func(*model.DutyRecord)) (*model.DutyRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, pkgerrors.ErrConditionNotMet
	}
	if m.beforeUpdate != nil {
		m.beforeUpdate(rec)
	}
	if !cond(rec) {
		return nil, pkgerrors.ErrConditionNotMet
	}
	apply(rec)
	c := *rec
	return &c, nil
}
