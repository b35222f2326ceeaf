package service

import (
	"fmt"
	"time"

	"github.com/Sellamuthu2007/project-demo-backend/config"
	"github.com/Sellamuthu2007/project-demo-backend/internal/model"
)

// DutyCalendar 决定“今天”是哪一个考试日，并提供服务端时钟
// 请求方从不携带日期；所有查询与状态迁移都以 Date() 为作用域
type DutyCalendar struct {
	policy string
	pinned model.Date
	loc    *time.Location
	now    func() time.Time
}

// NewDutyCalendar 按配置构建日期策略
func NewDutyCalendar(cfg *config.DutyConfig) (*DutyCalendar, error) {
	c := &DutyCalendar{
		policy: cfg.DatePolicy,
		loc:    cfg.Location(),
		now:    time.Now,
	}
	if cfg.DatePolicy == config.DatePolicyPinned {
		d, err := model.ParseDate(cfg.Date)
		if err != nil {
			return nil, fmt.Errorf("解析 duty.date 失败: %w", err)
		}
		c.pinned = d
	}
	return c, nil
}

// WithClock 替换时钟（测试用）
func (c *DutyCalendar) WithClock(now func() time.Time) *DutyCalendar {
	clone := *c
	clone.now = now
	return &clone
}

// Date 当前作用的考试日
func (c *DutyCalendar) Date() model.Date {
	if c.policy == config.DatePolicyToday {
		return model.DateOf(c.now().In(c.loc))
	}
	return c.pinned
}

// ClockTime 服务端当前时分秒（业务时区）
func (c *DutyCalendar) ClockTime() model.TimeOfDay {
	return model.ClockTime(c.now().In(c.loc))
}
