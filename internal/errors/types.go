package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType 错误类型
type ErrorType int

const (
	// 网络相关错误
	ErrorTypeConnectivity ErrorType = iota
	ErrorTypeTimeout

	// 区块链相关错误
	ErrorTypeResolution

	// 输入验证错误
	ErrorTypeInvalidAddress
	ErrorTypeInvalidSlot
	ErrorTypeInvalidBlockRef

	// 系统相关错误
	ErrorTypeConfig
	ErrorTypeHistory
	ErrorTypeFileIO

	// 外部服务错误
	ErrorTypeKafka
)

// ErrorSeverity 错误严重级别
type ErrorSeverity int

const (
	SeverityLow ErrorSeverity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// CheckError 自定义错误类型
type CheckError struct {
	Type      ErrorType              `json:"type"`
	Severity  ErrorSeverity          `json:"severity"`
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Timestamp time.Time              `json:"timestamp"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Cause     error                  `json:"cause,omitempty"`
	Provider  string                 `json:"provider,omitempty"`
}

// Error 实现error接口
func (e *CheckError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 支持errors.Unwrap
func (e *CheckError) Unwrap() error {
	return e.Cause
}

// WithContext 添加上下文信息
func (e *CheckError) WithContext(key string, value interface{}) *CheckError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithProvider 添加节点名称
func (e *CheckError) WithProvider(provider string) *CheckError {
	e.Provider = provider
	return e
}

// NewCheckError 创建新的错误
func NewCheckError(errorType ErrorType, severity ErrorSeverity, code, message string) *CheckError {
	return &CheckError{
		Type:      errorType,
		Severity:  severity,
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// WrapError 包装现有错误
func WrapError(err error, errorType ErrorType, severity ErrorSeverity, code, message string) *CheckError {
	return &CheckError{
		Type:      errorType,
		Severity:  severity,
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Cause:     err,
	}
}

// IsType 判断错误链中是否包含指定类型的CheckError
func IsType(err error, errorType ErrorType) bool {
	var checkErr *CheckError
	if errors.As(err, &checkErr) {
		return checkErr.Type == errorType
	}
	return false
}

// IsConnectivity 判断是否为连接错误
func IsConnectivity(err error) bool {
	return IsType(err, ErrorTypeConnectivity)
}

// IsInputValidation 判断是否为输入验证错误
func IsInputValidation(err error) bool {
	return IsType(err, ErrorTypeInvalidAddress) ||
		IsType(err, ErrorTypeInvalidSlot) ||
		IsType(err, ErrorTypeInvalidBlockRef)
}

// 预定义错误
var (
	// 网络错误
	ErrConnectivity = NewCheckError(
		ErrorTypeConnectivity,
		SeverityHigh,
		"CONNECTIVITY_FAILED",
		"节点连接失败",
	)

	// 区块解析错误
	ErrResolution = NewCheckError(
		ErrorTypeResolution,
		SeverityHigh,
		"RESOLUTION_FAILED",
		"区块标签无法解析为区块号",
	)

	// 输入验证错误
	ErrInvalidAddress = NewCheckError(
		ErrorTypeInvalidAddress,
		SeverityMedium,
		"INVALID_ADDRESS",
		"账户地址格式无效",
	)

	ErrInvalidSlot = NewCheckError(
		ErrorTypeInvalidSlot,
		SeverityMedium,
		"INVALID_SLOT",
		"存储槽位格式无效",
	)

	ErrInvalidBlockRef = NewCheckError(
		ErrorTypeInvalidBlockRef,
		SeverityMedium,
		"INVALID_BLOCK_REF",
		"区块引用格式无效",
	)

	// 系统错误
	ErrConfigInvalid = NewCheckError(
		ErrorTypeConfig,
		SeverityCritical,
		"CONFIG_INVALID",
		"配置无效",
	)

	ErrHistoryFailed = NewCheckError(
		ErrorTypeHistory,
		SeverityMedium,
		"HISTORY_FAILED",
		"承诺历史库操作失败",
	)

	ErrFileIOFailed = NewCheckError(
		ErrorTypeFileIO,
		SeverityHigh,
		"FILE_IO_FAILED",
		"文件操作失败",
	)

	// 外部服务错误
	ErrKafkaProduceFailed = NewCheckError(
		ErrorTypeKafka,
		SeverityHigh,
		"KAFKA_PRODUCE_FAILED",
		"Kafka消息发送失败",
	)
)

// 错误类型字符串映射
var errorTypeNames = map[ErrorType]string{
	ErrorTypeConnectivity:    "Connectivity",
	ErrorTypeTimeout:         "Timeout",
	ErrorTypeResolution:      "Resolution",
	ErrorTypeInvalidAddress:  "InvalidAddress",
	ErrorTypeInvalidSlot:     "InvalidSlot",
	ErrorTypeInvalidBlockRef: "InvalidBlockRef",
	ErrorTypeConfig:          "Config",
	ErrorTypeHistory:         "History",
	ErrorTypeFileIO:          "FileIO",
	ErrorTypeKafka:           "Kafka",
}

// String 返回错误类型的字符串表示
func (et ErrorType) String() string {
	if name, exists := errorTypeNames[et]; exists {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", et)
}

// 严重级别字符串映射
var severityNames = map[ErrorSeverity]string{
	SeverityLow:      "Low",
	SeverityMedium:   "Medium",
	SeverityHigh:     "High",
	SeverityCritical: "Critical",
}

// String 返回严重级别的字符串表示
func (es ErrorSeverity) String() string {
	if name, exists := severityNames[es]; exists {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", es)
}
