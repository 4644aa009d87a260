package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewID 32 位 hex 主键
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewMemberNo 对外读者证号，形如 MEM1A2B3C4D
func NewMemberNo() string {
	return "MEM" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
