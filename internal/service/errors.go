package service

import "errors"

// 业务错误全部可恢复，由 transport 层翻译成响应；任何一个触发时状态不变。
var (
	ErrBookUnavailable       = errors.New("book is not available for checkout")
	ErrLoanLimitExceeded     = errors.New("member has reached the maximum loan limit")
	ErrMemberHasOverdueBooks = errors.New("member has overdue books")
	ErrMemberInactive        = errors.New("member account is inactive")
	ErrAlreadyReturned       = errors.New("loan has already been returned")
	ErrRenewalBlockedOverdue = errors.New("overdue loans cannot be renewed")
	ErrHasActiveLoans        = errors.New("record has active loans and cannot be deleted")
	ErrNotFound              = errors.New("record not found")
	ErrDuplicateKey          = errors.New("duplicate key")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrInvalidCredentials    = errors.New("invalid email or password")
)
