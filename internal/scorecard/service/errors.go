package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation              = errors.New("参数校验失败")
	ErrProjectCodeExists       = errors.New("项目编码已存在")
	ErrStaffExists             = errors.New("人员已存在")
	ErrDeliverableNotInProject = errors.New("交付物不属于该项目")
	ErrChangeOrderNotApproved  = errors.New("变更单未审批，不能并入")
	ErrAlreadyIncorporated     = errors.New("变更单已并入，不能重复处理")
	ErrChangeOrderImmutable    = errors.New("变更单已并入，不可修改")
	ErrInvalidTransition       = errors.New("当前状态不允许该操作")
	ErrSnapshotExists          = errors.New("该日期已存在快照")
	ErrBatchNotFound           = errors.New("导入批次不存在")
	ErrNoTargets               = errors.New("未指定目标交付物")
)

// validationError 包装字段级校验错误
func validationError(field, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s: %s", ErrValidation, field, fmt.Sprintf(format, args...))
}

// RowError 批量操作中第一条失败的行（从1开始计数，不含表头）
type RowError struct {
	Row   int
	Field string
	Err   error
}

func (e *RowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("row %d: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("row %d: %s: %v", e.Row, e.Field, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
