package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCheckError(t *testing.T) {
	err := NewCheckError(ErrorTypeConnectivity, SeverityHigh, "TEST_ERROR", "测试错误")

	assert.NotNil(t, err)
	assert.Equal(t, ErrorTypeConnectivity, err.Type)
	assert.Equal(t, SeverityHigh, err.Severity)
	assert.Equal(t, "TEST_ERROR", err.Code)
	assert.Equal(t, "测试错误", err.Message)
	assert.False(t, err.Timestamp.IsZero())
}

func TestWrapError(t *testing.T) {
	originalErr := errors.New("原始错误")
	wrappedErr := WrapError(originalErr, ErrorTypeResolution, SeverityMedium, "WRAPPED_ERROR", "包装错误")

	assert.NotNil(t, wrappedErr)
	assert.Equal(t, ErrorTypeResolution, wrappedErr.Type)
	assert.Equal(t, SeverityMedium, wrappedErr.Severity)
	assert.Equal(t, "WRAPPED_ERROR", wrappedErr.Code)
	assert.Equal(t, "包装错误", wrappedErr.Message)
	assert.Equal(t, originalErr, wrappedErr.Cause)
	assert.Contains(t, wrappedErr.Error(), "原始错误")
}

func TestCheckError_Error(t *testing.T) {
	// 测试没有原因的错误
	err := NewCheckError(ErrorTypeInvalidSlot, SeverityLow, "TEST_CODE", "测试消息")
	expected := "[TEST_CODE] 测试消息"
	assert.Equal(t, expected, err.Error())

	// 测试有原因的错误
	originalErr := errors.New("原始错误")
	wrappedErr := WrapError(originalErr, ErrorTypeInvalidSlot, SeverityLow, "TEST_CODE", "测试消息")
	expectedWithCause := "[TEST_CODE] 测试消息: 原始错误"
	assert.Equal(t, expectedWithCause, wrappedErr.Error())
}

func TestCheckError_Unwrap(t *testing.T) {
	originalErr := errors.New("原始错误")
	wrappedErr := WrapError(originalErr, ErrorTypeConfig, SeverityMedium, "WRAPPED", "包装")

	unwrapped := wrappedErr.Unwrap()
	assert.Equal(t, originalErr, unwrapped)

	// 测试没有原因的错误
	standaloneErr := NewCheckError(ErrorTypeConfig, SeverityLow, "STANDALONE", "独立错误")
	assert.Nil(t, standaloneErr.Unwrap())
}

func TestCheckError_WithContext(t *testing.T) {
	err := NewCheckError(ErrorTypeConnectivity, SeverityMedium, "CONN_ERROR", "连接错误")

	err.WithContext("node_url", "https://mainnet.infura.io")
	err.WithContext("attempt", 1)

	assert.NotNil(t, err.Context)
	assert.Equal(t, "https://mainnet.infura.io", err.Context["node_url"])
	assert.Equal(t, 1, err.Context["attempt"])
}

func TestCheckError_WithProvider(t *testing.T) {
	err := NewCheckError(ErrorTypeResolution, SeverityHigh, "RES_ERROR", "解析错误")

	err.WithProvider("primary")

	assert.Equal(t, "primary", err.Provider)
}

func TestIsType(t *testing.T) {
	connErr := NewCheckError(ErrorTypeConnectivity, SeverityHigh, "CONN", "连接失败")

	assert.True(t, IsType(connErr, ErrorTypeConnectivity))
	assert.False(t, IsType(connErr, ErrorTypeResolution))

	// 测试包装后的错误链
	wrapped := fmt.Errorf("外层: %w", connErr)
	assert.True(t, IsType(wrapped, ErrorTypeConnectivity))

	// 测试普通错误
	assert.False(t, IsType(errors.New("普通错误"), ErrorTypeConnectivity))
	assert.False(t, IsType(nil, ErrorTypeConnectivity))
}

func TestIsConnectivity(t *testing.T) {
	connErr := WrapError(errors.New("dial tcp: 超时"), ErrorTypeConnectivity, SeverityHigh, "CONN", "连接失败")
	assert.True(t, IsConnectivity(connErr))
	assert.False(t, IsConnectivity(errors.New("其他错误")))
}

func TestIsInputValidation(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"地址错误", NewCheckError(ErrorTypeInvalidAddress, SeverityMedium, "A", "地址无效"), true},
		{"槽位错误", NewCheckError(ErrorTypeInvalidSlot, SeverityMedium, "S", "槽位无效"), true},
		{"区块引用错误", NewCheckError(ErrorTypeInvalidBlockRef, SeverityMedium, "B", "引用无效"), true},
		{"连接错误", NewCheckError(ErrorTypeConnectivity, SeverityHigh, "C", "连接失败"), false},
		{"普通错误", errors.New("普通"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsInputValidation(tt.err))
		})
	}
}

func TestErrorTypeString(t *testing.T) {
	assert.Equal(t, "Connectivity", ErrorTypeConnectivity.String())
	assert.Equal(t, "Resolution", ErrorTypeResolution.String())
	assert.Equal(t, "InvalidAddress", ErrorTypeInvalidAddress.String())
	assert.Equal(t, "Kafka", ErrorTypeKafka.String())
	assert.Equal(t, "Unknown(99)", ErrorType(99).String())
}

func TestErrorSeverityString(t *testing.T) {
	assert.Equal(t, "Low", SeverityLow.String())
	assert.Equal(t, "Medium", SeverityMedium.String())
	assert.Equal(t, "High", SeverityHigh.String())
	assert.Equal(t, "Critical", SeverityCritical.String())
	assert.Equal(t, "Unknown(99)", ErrorSeverity(99).String())
}
