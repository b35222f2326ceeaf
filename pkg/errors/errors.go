package errors

import "errors"

// ErrConditionNotMet 条件更新未命中：记录状态已被其他请求改变（如 checkin_time 已非空）
var ErrConditionNotMet = errors.New("记录状态已变化，条件更新未生效")

// ErrMultipleRows 唯一谓词命中多行，属于数据完整性故障
var ErrMultipleRows = errors.New("唯一条件命中多条记录")
