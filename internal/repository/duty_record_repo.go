package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/Sellamuthu2007/project-demo-backend/internal/model"
	pkgerrors "github.com/Sellamuthu2007/project-demo-backend/pkg/errors"
)

// DutyCounts 某考试日的签到统计
type DutyCounts struct {
	Total     int64 `gorm:"column:total"`
	Reported  int64 `gorm:"column:reported"`
	Submitted int64 `gorm:"column:submitted"`
	Proxied   int64 `gorm:"column:proxied"`
}

// DutyRecordRepository 监考值班记录数据访问接口
//
// 单行查询在命中多行时返回 pkgerrors.ErrMultipleRows，未命中返回 gorm.ErrRecordNotFound。
// Mark* / AssignProxy 均为单条带条件的 UPDATE，条件不满足时返回 pkgerrors.ErrConditionNotMet。
type DutyRecordRepository interface {
	Create(ctx context.Context, rec *model.DutyRecord) error
	BatchCreate(ctx context.Context, recs []model.DutyRecord) error
	GetByID(ctx context.Context, id int64) (*model.DutyRecord, error)
	GetByMobile(ctx context.Context, date model.Date, mobile string) (*model.DutyRecord, error)
	GetByStaffAndHall(ctx context.Context, date model.Date, staffName, hall string) (*model.DutyRecord, error)
	ListByDate(ctx context.Context, date model.Date) ([]model.DutyRecord, error)
	ListAll(ctx context.Context) ([]model.DutyRecord, error)
	SearchByStaffName(ctx context.Context, date model.Date, name string) (exact, partial []model.DutyRecord, err error)
	CountByDate(ctx context.Context, date model.Date) (*DutyCounts, error)
	MarkReported(ctx context.Context, id int64, reportedName string, at model.TimeOfDay) (*model.DutyRecord, error)
	MarkSubmitted(ctx context.Context, id int64, at model.TimeOfDay) (*model.DutyRecord, error)
	AssignProxy(ctx context.Context, id int64, proxyName, proxyMobile string, at model.TimeOfDay, onlyIfNotReported bool) (*model.DutyRecord, error)
}

// dutyRecordRepo DutyRecordRepository 的 GORM 实现
type dutyRecordRepo struct {
	db *gorm.DB
}

// NewDutyRecordRepo 创建 DutyRecordRepository 实例
func NewDutyRecordRepo(db *gorm.DB) DutyRecordRepository {
	return &dutyRecordRepo{db: db}
}

func (r *dutyRecordRepo) Create(ctx context.Context, rec *model.DutyRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *dutyRecordRepo) BatchCreate(ctx context.Context, recs []model.DutyRecord) error {
	if len(recs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&recs).Error
}

func (r *dutyRecordRepo) GetByID(ctx context.Context, id int64) (*model.DutyRecord, error) {
	var rec model.DutyRecord
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *dutyRecordRepo) GetByMobile(ctx context.Context, date model.Date, mobile string) (*model.DutyRecord, error) {
	return r.single(r.db.WithContext(ctx).
		Where("duty_date = ? AND mobile_number = ?", date, mobile))
}

func (r *dutyRecordRepo) GetByStaffAndHall(ctx context.Context, date model.Date, staffName, hall string) (*model.DutyRecord, error) {
	return r.single(r.db.WithContext(ctx).
		Where("duty_date = ? AND assigned_staff_name = ? AND hall = ?", date, staffName, hall))
}

// single 取至多两行以识别唯一谓词被破坏的情况
func (r *dutyRecordRepo) single(q *gorm.DB) (*model.DutyRecord, error) {
	var recs []model.DutyRecord
	if err := q.Order("id ASC").Limit(2).Find(&recs).Error; err != nil {
		return nil, err
	}
	switch len(recs) {
	case 0:
		return nil, gorm.ErrRecordNotFound
	case 1:
		return &recs[0], nil
	default:
		return nil, pkgerrors.ErrMultipleRows
	}
}

func (r *dutyRecordRepo) ListByDate(ctx context.Context, date model.Date) ([]model.DutyRecord, error) {
	var recs []model.DutyRecord
	err := r.db.WithContext(ctx).
		Where("duty_date = ?", date).
		Order("hall ASC, id ASC").
		Find(&recs).Error
	return recs, err
}

func (r *dutyRecordRepo) ListAll(ctx context.Context) ([]model.DutyRecord, error) {
	var recs []model.DutyRecord
	err := r.db.WithContext(ctx).
		Order("duty_date DESC, hall ASC, id ASC").
		Find(&recs).Error
	return recs, err
}

func (r *dutyRecordRepo) SearchByStaffName(ctx context.Context, date model.Date, name string) ([]model.DutyRecord, []model.DutyRecord, error) {
	var exact, partial []model.DutyRecord

	err := r.db.WithContext(ctx).
		Where("duty_date = ? AND assigned_staff_name = ?", date, name).
		Order("hall ASC, id ASC").
		Find(&exact).Error
	if err != nil {
		return nil, nil, err
	}

	pattern := "%" + escapeLike(strings.ToLower(name)) + "%"
	err = r.db.WithContext(ctx).
		Where(`duty_date = ? AND LOWER(assigned_staff_name) LIKE ? ESCAPE '\'`, date, pattern).
		Order("hall ASC, id ASC").
		Find(&partial).Error
	if err != nil {
		return nil, nil, err
	}

	return exact, partial, nil
}

func (r *dutyRecordRepo) CountByDate(ctx context.Context, date model.Date) (*DutyCounts, error) {
	var counts DutyCounts
	err := r.db.WithContext(ctx).
		Model(&model.DutyRecord{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN checkin_time IS NOT NULL THEN 1 ELSE 0 END), 0) AS reported,
			COALESCE(SUM(CASE WHEN submission_time IS NOT NULL THEN 1 ELSE 0 END), 0) AS submitted,
			COALESCE(SUM(CASE WHEN reported_staff_name IS NOT NULL AND reported_staff_name <> assigned_staff_name THEN 1 ELSE 0 END), 0) AS proxied`).
		Where("duty_date = ?", date).
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return &counts, nil
}

// ── 状态迁移：条件更新 + 回读 ──

func (r *dutyRecordRepo) MarkReported(ctx context.Context, id int64, reportedName string, at model.TimeOfDay) (*model.DutyRecord, error) {
	return r.guardedUpdate(ctx, "id = ? AND checkin_time IS NULL", id, map[string]interface{}{
		"reported_staff_name": reportedName,
		"checkin_time":        at,
	})
}

func (r *dutyRecordRepo) MarkSubmitted(ctx context.Context, id int64, at model.TimeOfDay) (*model.DutyRecord, error) {
	return r.guardedUpdate(ctx, "id = ? AND submission_time IS NULL", id, map[string]interface{}{
		"submission_time": at,
	})
}

func (r *dutyRecordRepo) AssignProxy(ctx context.Context, id int64, proxyName, proxyMobile string, at model.TimeOfDay, onlyIfNotReported bool) (*model.DutyRecord, error) {
	cond := "id = ?"
	if onlyIfNotReported {
		cond = "id = ? AND checkin_time IS NULL"
	}
	return r.guardedUpdate(ctx, cond, id, map[string]interface{}{
		"reported_staff_name": proxyName,
		"checkin_time":        at,
		"mobile_number":       proxyMobile,
	})
}

// guardedUpdate 在同一事务内执行条件 UPDATE 并回读最新行
// 条件由数据库原子判定，未影响任何行即视为前置条件已被并发请求破坏
func (r *dutyRecordRepo) guardedUpdate(ctx context.Context, cond string, id int64, values map[string]interface{}) (*model.DutyRecord, error) {
	var updated model.DutyRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.DutyRecord{}).
			Where(cond, id).
			Updates(values)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgerrors.ErrConditionNotMet
		}
		return tx.Where("id = ?", id).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
