package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/Sellamuthu2007/project-demo-backend/config"
	"github.com/Sellamuthu2007/project-demo-backend/internal/dto"
	"github.com/Sellamuthu2007/project-demo-backend/internal/model"
	"github.com/Sellamuthu2007/project-demo-backend/internal/repository"
	"github.com/Sellamuthu2007/project-demo-backend/pkg/metrics"
)

// ── 测试辅助 ──

var testNow = time.Date(2025, 8, 4, 9, 0, 0, 0, time.UTC)

type dutyFixture struct {
	svc     *Service
	repo    *mockDutyRepo
	metrics *metrics.Metrics
	john    *model.DutyRecord
	mary    *model.DutyRecord
	ravi    *model.DutyRecord
}

func setupDutyFixture(t *testing.T, mutate func(cfg *config.DutyConfig)) *dutyFixture {
	t.Helper()
	cfg := &config.DutyConfig{
		Date:                "2025-08-04",
		DatePolicy:          config.DatePolicyPinned,
		Timezone:            "UTC",
		AllowProxyOverwrite: true,
	}
	if mutate != nil {
		mutate(cfg)
	}
	cal, err := NewDutyCalendar(cfg)
	if err != nil {
		t.Fatalf("创建日历失败: %v", err)
	}
	cal = cal.WithClock(func() time.Time { return testNow })

	repo := newMockDutyRepo()
	f := &dutyFixture{repo: repo, metrics: metrics.New()}
	f.john = repo.add(model.DutyRecord{
		DutyDate: model.NewDate(2025, 8, 4), Hall: "H3", Department: "Physics",
		AssignedStaffName: "John Doe", MobileNumber: "9876543210",
	})
	f.mary = repo.add(model.DutyRecord{
		DutyDate: model.NewDate(2025, 8, 4), Hall: "H1", Department: "Chemistry",
		AssignedStaffName: "Mary Jane", MobileNumber: "9123456789",
	})
	f.ravi = repo.add(model.DutyRecord{
		DutyDate: model.NewDate(2025, 8, 5), Hall: "H1", Department: "Maths",
		AssignedStaffName: "Ravi Kumar", MobileNumber: "9000000005",
	})

	f.svc = NewService(cfg, &repository.Repository{Duty: repo}, cal, f.metrics, zap.NewNop())
	return f
}

func proxyReq(mobile string) *dto.ProxyRequest {
	return &dto.ProxyRequest{
		AbsentStaffName:   "John Doe",
		AbsentDepartment:  "Physics",
		AbsentHall:        "H3",
		ProxyStaffName:    "Asha Rao",
		ProxyMobileNumber: mobile,
		EmergencyReason:   "medical",
	}
}

func stateRecord(t *testing.T, err error) *model.DutyRecord {
	t.Helper()
	var se *DutyStateError
	if !errors.As(err, &se) {
		t.Fatalf("期望 *DutyStateError，实际: %v", err)
	}
	if se.Record == nil {
		t.Fatal("DutyStateError 应携带记录")
	}
	return se.Record
}

// ── Report 测试 ──

func TestDutyService_Report_Success(t *testing.T) {
	f := setupDutyFixture(t, nil)

	rec, err := f.svc.Duty.Report(context.Background(), "9876543210")
	if err != nil {
		t.Fatalf("期望成功，实际错误: %v", err)
	}
	if rec.CheckinTime == nil || *rec.CheckinTime != "09:00:00" {
		t.Errorf("期望 checkin_time=09:00:00，实际: %v", rec.CheckinTime)
	}
	if rec.ReportedStaffName == nil || *rec.ReportedStaffName != "John Doe" {
		t.Errorf("期望 reported_staff_name=John Doe，实际: %v", rec.ReportedStaffName)
	}
	if rec.SubmissionTime != nil {
		t.Error("签到不应写入交卷时间")
	}
}

func TestDutyService_Report_Twice(t *testing.T) {
	f := setupDutyFixture(t, nil)
	ctx := context.Background()

	if _, err := f.svc.Duty.Report(ctx, "9876543210"); err != nil {
		t.Fatalf("首次签到失败: %v", err)
	}
	_, err := f.svc.Duty.Report(ctx, "9876543210")
	if !errors.Is(err, ErrAlreadyReported) {
		t.Fatalf("期望 ErrAlreadyReported，实际: %v", err)
	}
	if rec := stateRecord(t, err); rec.CheckinTime == nil || *rec.CheckinTime != "09:00:00" {
		t.Errorf("应返回首次签到时间，实际: %v", rec.CheckinTime)
	}
}

func TestDutyService_Report_NotFound(t *testing.T) {
	f := setupDutyFixture(t, nil)

	_, err := f.svc.Duty.Report(context.Background(), "0000000000")
	if !errors.Is(err, ErrDutyNotFound) {
		t.Errorf("期望 ErrDutyNotFound，实际: %v", err)
	}
}

func TestDutyService_Report_OtherDateInvisible(t *testing.T) {
	f := setupDutyFixture(t, nil)

	_, err := f.svc.Duty.Report(context.Background(), "9000000005")
	if !errors.Is(err, ErrDutyNotFound) {
		t.Errorf("非当日记录应不可见，实际: %v", err)
	}
	if f.repo.get(f.ravi.ID).IsReported() {
		t.Error("非当日记录不应被修改")
	}
}

func TestDutyService_Report_BlankMobile(t *testing.T) {
	f := setupDutyFixture(t, nil)

	_, err := f.svc.Duty.Report(context.Background(), "   ")
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("期望 ErrInvalidInput，实际: %v", err)
	}
}

func TestDutyService_Report_LostRace(t *testing.T) {
	f := setupDutyFixture(t, nil)
	racer := model.TimeOfDay("08:59:59")
	name := "John Doe"
	f.repo.beforeUpdate = func(rec *model.DutyRecord) {
		rec.CheckinTime = &racer
		rec.ReportedStaffName = &name
	}

	_, err := f.svc.Duty.Report(context.Background(), "9876543210")
	if !errors.Is(err, ErrAlreadyReported) {
		t.Fatalf("期望 ErrAlreadyReported，实际: %v", err)
	}
	if rec := stateRecord(t, err); *rec.CheckinTime != racer {
		t.Errorf("应返回先行请求写入的时间，实际: %v", *rec.CheckinTime)
	}
}

func TestDutyService_Report_StoreFault(t *testing.T) {
	f := setupDutyFixture(t, nil)
	boom := errors.New("connection reset")
	f.repo.err = boom

	_, err := f.svc.Duty.Report(context.Background(), "9876543210")
	if !errors.Is(err, boom) {
		t.Errorf("期望透传存储错误，实际: %v", err)
	}
	if got := testutil.ToFloat64(f.metrics.Transitions.WithLabelValues(opReport, metrics.OutcomeError)); got != 1 {
		t.Errorf("期望 error 计数 1，实际: %v", got)
	}
}

func TestDutyService_Report_Concurrent(t *testing.T) {
	f := setupDutyFixture(t, nil)

	const n = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		already   int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Duty.Report(context.Background(), "9876543210")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrAlreadyReported):
				already++
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 || already != n-1 {
		t.Errorf("期望 1 次成功 %d 次已签到，实际: %d / %d", n-1, succeeded, already)
	}
}

func TestDutyService_Report_Metrics(t *testing.T) {
	f := setupDutyFixture(t, nil)
	ctx := context.Background()

	_, _ = f.svc.Duty.Report(ctx, "9876543210")
	_, _ = f.svc.Duty.Report(ctx, "9876543210")
	_, _ = f.svc.Duty.Report(ctx, "0000000000")

	cases := map[string]float64{
		metrics.OutcomeOK:          1,
		metrics.OutcomeAlreadyDone: 1,
		metrics.OutcomeNotFound:    1,
	}
	for outcome, want := range cases {
		if got := testutil.ToFloat64(f.metrics.Transitions.WithLabelValues(opReport, outcome)); got != want {
			t.Errorf("outcome=%s 期望 %v，实际 %v", outcome, want, got)
		}
	}
}

// ── Submit 测试 ──

func TestDutyService_Submit_AfterReport(t *testing.T) {
	f := setupDutyFixture(t, nil)
	ctx := context.Background()

	if _, err := f.svc.Duty.Report(ctx, "9876543210"); err != nil {
		t.Fatalf("签到失败: %v", err)
	}
	rec, err := f.svc.Duty.Submit(ctx, "9876543210")
	if err != nil {
		t.Fatalf("期望成功，实际错误: %v", err)
	}
	if rec.SubmissionTime == nil || *rec.SubmissionTime != "09:00:00" {
		t.Errorf("期望 submission_time=09:00:00，实际: %v", rec.SubmissionTime)
	}
	if rec.CheckinTime == nil {
		t.Error("交卷不应清除签到时间")
	}
}

func TestDutyService_Submit_Twice(t *testing.T) {
	f := setupDutyFixture(t, nil)
	ctx := context.Background()

	if _, err := f.svc.Duty.Submit(ctx, "9876543210"); err != nil {
		t.Fatalf("首次交卷失败: %v", err)
	}
	_, err := f.svc.Duty.Submit(ctx, "9876543210")
	if !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("期望 ErrAlreadySubmitted，实际: %v", err)
	}
	if rec := stateRecord(t, err); !rec.IsSubmitted() {
		t.Error("应返回已交卷记录")
	}
}

func TestDutyService_Submit_WithoutCheckinAllowedByDefault(t *testing.T) {
	f := setupDutyFixture(t, nil)

	rec, err := f.svc.Duty.Submit(context.Background(), "9123456789")
	if err != nil {
		t.Fatalf("默认允许未签到交卷，实际错误: %v", err)
	}
	if rec.IsReported() {
		t.Error("交卷不应补写签到")
	}
}

func TestDutyService_Submit_RequireCheckin(t *testing.T) {
	f := setupDutyFixture(t, func(cfg *config.DutyConfig) { cfg.RequireCheckinBeforeSubmit = true })

	_, err := f.svc.Duty.Submit(context.Background(), "9123456789")
	if !errors.Is(err, ErrNotReported) {
		t.Errorf("期望 ErrNotReported，实际: %v", err)
	}
	if f.repo.get(f.mary.ID).IsSubmitted() {
		t.Error("被拒绝的交卷不应落库")
	}
}

func TestDutyService_Submit_NotFound(t *testing.T) {
	f := setupDutyFixture(t, nil)

	_, err := f.svc.Duty.Submit(context.Background(), "0000000000")
	if !errors.Is(err, ErrDutyNotFound) {
		t.Errorf("期望 ErrDutyNotFound，实际: %v", err)
	}
}

// ── Proxy 测试 ──

func TestDutyService_Proxy_TransfersIdentity(t *testing.T) {
	f := setupDutyFixture(t, nil)
	ctx := context.Background()

	rec, err := f.svc.Duty.Proxy(ctx, proxyReq("9555555555"))
	if err != nil {
		t.Fatalf("期望成功，实际错误: %v", err)
	}
	if rec.MobileNumber != "9555555555" {
		t.Errorf("期望手机号改为代理人，实际: %s", rec.MobileNumber)
	}
	if rec.AssignedStaffName != "John Doe" {
		t.Error("原定监考人不应改变")
	}
	if rec.ReportedStaffName == nil || *rec.ReportedStaffName != "Asha Rao" {
		t.Errorf("期望 reported_staff_name=Asha Rao，实际: %v", rec.ReportedStaffName)
	}
	if !rec.IsProxied() {
		t.Error("应标记为代理签到")
	}

	// 原手机号失效，代理人手机号生效
	if _, err := f.svc.Duty.Report(ctx, "9876543210"); !errors.Is(err, ErrDutyNotFound) {
		t.Errorf("原手机号应不再命中，实际: %v", err)
	}
	if _, err := f.svc.Duty.Report(ctx, "9555555555"); !errors.Is(err, ErrAlreadyReported) {
		t.Errorf("代理后已视为签到，实际: %v", err)
	}
	if _, err := f.svc.Duty.Submit(ctx, "9555555555"); err != nil {
		t.Errorf("代理人应能交卷，实际错误: %v", err)
	}
}

func TestDutyService_Proxy_MobileInUse(t *testing.T) {
	f := setupDutyFixture(t, nil)

	_, err := f.svc.Duty.Proxy(context.Background(), proxyReq("9123456789"))
	if !errors.Is(err, ErrMobileInUse) {
		t.Errorf("期望 ErrMobileInUse，实际: %v", err)
	}
	if f.repo.get(f.john.ID).MobileNumber != "9876543210" {
		t.Error("冲突时不应修改记录")
	}
}

func TestDutyService_Proxy_MobileUsedOnOtherDateIsFree(t *testing.T) {
	f := setupDutyFixture(t, nil)

	if _, err := f.svc.Duty.Proxy(context.Background(), proxyReq("9000000005")); err != nil {
		t.Errorf("其他考试日的手机号不构成冲突，实际错误: %v", err)
	}
}

func TestDutyService_Proxy_DepartmentMismatch(t *testing.T) {
	f := setupDutyFixture(t, nil)
	req := proxyReq("9555555555")
	req.AbsentDepartment = "Chemistry"

	_, err := f.svc.Duty.Proxy(context.Background(), req)
	if !errors.Is(err, ErrDutyNotFound) {
		t.Errorf("期望 ErrDutyNotFound，实际: %v", err)
	}
}

func TestDutyService_Proxy_DepartmentCaseInsensitiveOrBlank(t *testing.T) {
	for _, dept := range []string{"physics", ""} {
		f := setupDutyFixture(t, nil)
		req := proxyReq("9555555555")
		req.AbsentDepartment = dept

		if _, err := f.svc.Duty.Proxy(context.Background(), req); err != nil {
			t.Errorf("department=%q 期望成功，实际错误: %v", dept, err)
		}
	}
}

func TestDutyService_Proxy_UnknownStaff(t *testing.T) {
	f := setupDutyFixture(t, nil)
	req := proxyReq("9555555555")
	req.AbsentHall = "H9"

	_, err := f.svc.Duty.Proxy(context.Background(), req)
	if !errors.Is(err, ErrDutyNotFound) {
		t.Errorf("期望 ErrDutyNotFound，实际: %v", err)
	}
}

func TestDutyService_Proxy_BlankProxyName(t *testing.T) {
	f := setupDutyFixture(t, nil)
	req := proxyReq("9555555555")
	req.ProxyStaffName = "  "

	_, err := f.svc.Duty.Proxy(context.Background(), req)
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("期望 ErrInvalidInput，实际: %v", err)
	}
}

func TestDutyService_Proxy_OverwriteAllowed(t *testing.T) {
	f := setupDutyFixture(t, nil)
	ctx := context.Background()

	if _, err := f.svc.Duty.Proxy(ctx, proxyReq("9555555555")); err != nil {
		t.Fatalf("首次代理失败: %v", err)
	}
	req := proxyReq("9666666666")
	req.ProxyStaffName = "Vikram Shah"
	rec, err := f.svc.Duty.Proxy(ctx, req)
	if err != nil {
		t.Fatalf("允许覆盖时应成功，实际错误: %v", err)
	}
	if rec.MobileNumber != "9666666666" || *rec.ReportedStaffName != "Vikram Shah" {
		t.Errorf("应覆盖为最新代理人，实际: %s / %s", rec.MobileNumber, *rec.ReportedStaffName)
	}
}

func TestDutyService_Proxy_OverwriteDisabled(t *testing.T) {
	f := setupDutyFixture(t, func(cfg *config.DutyConfig) { cfg.AllowProxyOverwrite = false })
	ctx := context.Background()

	if _, err := f.svc.Duty.Report(ctx, "9876543210"); err != nil {
		t.Fatalf("签到失败: %v", err)
	}
	_, err := f.svc.Duty.Proxy(ctx, proxyReq("9555555555"))
	if !errors.Is(err, ErrAlreadyReported) {
		t.Fatalf("期望 ErrAlreadyReported，实际: %v", err)
	}
	if rec := stateRecord(t, err); rec.MobileNumber != "9876543210" {
		t.Errorf("记录不应被修改，实际手机号: %s", rec.MobileNumber)
	}
}

func TestDutyService_Proxy_KeepOwnMobile(t *testing.T) {
	f := setupDutyFixture(t, nil)

	rec, err := f.svc.Duty.Proxy(context.Background(), proxyReq("9876543210"))
	if err != nil {
		t.Fatalf("沿用原手机号应成功，实际错误: %v", err)
	}
	if rec.MobileNumber != "9876543210" {
		t.Errorf("手机号不应变化，实际: %s", rec.MobileNumber)
	}
}
