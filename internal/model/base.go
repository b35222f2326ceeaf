package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// ── DATE 自定义类型 ──

// Date 对应 PostgreSQL DATE，只保留年月日，JSON 序列化为 YYYY-MM-DD。
type Date struct {
	time.Time
}

// NewDate 构造指定日期（UTC 零点）。
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf 取 t 在其自身时区下的日历日期。
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate 解析 YYYY-MM-DD。
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("无效日期 %q: %w", s, err)
	}
	return Date{t}, nil
}

// String 返回 YYYY-MM-DD。
func (d Date) String() string {
	return d.Format(dateLayout)
}

// Scan 兼容驱动返回的 time.Time 与文本两种形态。
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewDate(v.Year(), v.Month(), v.Day())
		return nil
	case []byte:
		return d.parseText(string(v))
	case string:
		return d.parseText(v)
	default:
		return fmt.Errorf("Date.Scan: unsupported type %T", src)
	}
}

func (d *Date) parseText(s string) error {
	if len(s) < len(dateLayout) {
		return fmt.Errorf("Date.Scan: invalid value %q", s)
	}
	parsed, err := ParseDate(s[:len(dateLayout)])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value 以 YYYY-MM-DD 文本写入，避免时区换算改变日期。
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// MarshalJSON 序列化为 "YYYY-MM-DD"。
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON 解析 "YYYY-MM-DD"。
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ── TIME 自定义类型 ──

// TimeOfDay 对应 PostgreSQL TIME，统一为 HH:MM:SS。
type TimeOfDay string

// ClockTime 取 t 的时分秒。
func ClockTime(t time.Time) TimeOfDay {
	return TimeOfDay(t.Format(timeLayout))
}

// Scan 兼容 time.Time 与 "HH:MM:SS[.ffffff]" 文本。
func (t *TimeOfDay) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*t = ClockTime(v)
		return nil
	case []byte:
		return t.parseText(string(v))
	case string:
		return t.parseText(v)
	default:
		return fmt.Errorf("TimeOfDay.Scan: unsupported type %T", src)
	}
}

func (t *TimeOfDay) parseText(s string) error {
	// 截掉小数秒与时区后缀
	if len(s) > len(timeLayout) {
		s = s[:len(timeLayout)]
	}
	parsed, err := time.Parse(timeLayout, s)
	if err != nil {
		return fmt.Errorf("TimeOfDay.Scan: invalid value %q: %w", s, err)
	}
	*t = ClockTime(parsed)
	return nil
}

// Value 写入 HH:MM:SS 文本。
func (t TimeOfDay) Value() (driver.Value, error) {
	return string(t), nil
}

// BaseModel 通用时间戳字段
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
