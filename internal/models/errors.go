package models

import (
	"errors"
	"fmt"
)

// ErrorKind 克隆错误分类
type ErrorKind string

const (
	KindParse         ErrorKind = "ParseError"
	KindNetwork       ErrorKind = "NetworkError"
	KindURLResolution ErrorKind = "URLResolutionError"
	KindFileSystem    ErrorKind = "FileSystemError"
	KindCanceled      ErrorKind = "Canceled"
)

// 哨兵错误, 用于 errors.Is 按分类匹配
var (
	ErrParse         = &CloneError{Kind: KindParse}
	ErrNetwork       = &CloneError{Kind: KindNetwork}
	ErrURLResolution = &CloneError{Kind: KindURLResolution}
	ErrFileSystem    = &CloneError{Kind: KindFileSystem}
	ErrCanceled      = &CloneError{Kind: KindCanceled}
)

// CloneError 克隆流水线中的分类错误
type CloneError struct {
	Kind   ErrorKind
	Target string // 出错的URL或路径
	Cause  error
}

// NewCloneError 创建分类错误
func NewCloneError(kind ErrorKind, target string, cause error) *CloneError {
	return &CloneError{Kind: kind, Target: target, Cause: cause}
}

// Error 实现error接口
func (e *CloneError) Error() string {
	switch {
	case e.Target != "" && e.Cause != nil:
		return fmt.Sprintf("%s [%s]: %v", e.Kind, e.Target, e.Cause)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	case e.Target != "":
		return fmt.Sprintf("%s [%s]", e.Kind, e.Target)
	default:
		return string(e.Kind)
	}
}

// Unwrap 支持errors.Unwrap
func (e *CloneError) Unwrap() error {
	return e.Cause
}

// Is 同分类即视为匹配
func (e *CloneError) Is(target error) bool {
	var t *CloneError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Fatal 该分类是否终止整个克隆
func (k ErrorKind) Fatal() bool {
	switch k {
	case KindParse, KindFileSystem, KindCanceled:
		return true
	default:
		return false
	}
}

// ValidationError 头部验证错误
type ValidationError struct {
	// Field 出错的字段 ("name" 或 "value")
	Field      string
	HeaderName string
	Reason     string
	Suggestion string
}

// Error 实现error接口
func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("头部验证失败 [%s]: %s", e.HeaderName, e.Reason)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (建议: %s)", e.Suggestion)
	}
	return msg
}

// ConfigError 配置文件错误
type ConfigError struct {
	FilePath string
	Cause    error
}

// Error 实现error接口
func (e *ConfigError) Error() string {
	return fmt.Sprintf("配置文件错误 [%s]: %v", e.FilePath, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Cause
}
