package validation

import (
	"math/big"
	"strings"

	"soundcheck/internal/errors"
	"soundcheck/pkg/models"

	"github.com/ethereum/go-ethereum/common"
)

// slot必须能以32字节大端表示
const maxSlotBits = 256

// ParseAddress 解析并校验账户地址
// 解码后必须恰好为20字节，返回值可通过Hex()渲染为校验和格式
func ParseAddress(input string) (common.Address, error) {
	if !common.IsHexAddress(input) {
		return common.Address{}, errors.WrapError(nil,
			errors.ErrorTypeInvalidAddress, errors.SeverityMedium,
			"INVALID_ADDRESS", "账户地址格式无效").WithContext("input", input)
	}
	return common.HexToAddress(input), nil
}

// ParseSlot 解析存储槽位（0x前缀十六进制或十进制）
func ParseSlot(input string) (*big.Int, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, errors.NewCheckError(
			errors.ErrorTypeInvalidSlot, errors.SeverityMedium,
			"EMPTY_SLOT", "存储槽位不能为空")
	}

	slot := new(big.Int)
	var ok bool
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		_, ok = slot.SetString(trimmed[2:], 16)
	} else {
		_, ok = slot.SetString(trimmed, 10)
	}

	if !ok {
		return nil, errors.NewCheckError(
			errors.ErrorTypeInvalidSlot, errors.SeverityMedium,
			"INVALID_SLOT", "存储槽位格式无效").WithContext("input", input)
	}

	if slot.Sign() < 0 {
		return nil, errors.NewCheckError(
			errors.ErrorTypeInvalidSlot, errors.SeverityMedium,
			"NEGATIVE_SLOT", "存储槽位不能为负数").WithContext("input", input)
	}

	if slot.BitLen() > maxSlotBits {
		return nil, errors.NewCheckError(
			errors.ErrorTypeInvalidSlot, errors.SeverityMedium,
			"SLOT_OVERFLOW", "存储槽位超出32字节范围").WithContext("input", input)
	}

	return slot, nil
}

// ParseBlockReference 解析区块引用
// 空字符串默认为latest；接受符号标签或区块号（十进制或0x前缀十六进制）
func ParseBlockReference(input string) (models.BlockReference, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return models.TagRef(models.TagLatest), nil
	}

	switch strings.ToLower(trimmed) {
	case models.TagLatest, models.TagFinalized, models.TagSafe, models.TagPending:
		return models.TagRef(strings.ToLower(trimmed)), nil
	}

	height := new(big.Int)
	var ok bool
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		_, ok = height.SetString(trimmed[2:], 16)
	} else {
		_, ok = height.SetString(trimmed, 10)
	}

	if !ok || height.Sign() < 0 {
		return models.BlockReference{}, errors.NewCheckError(
			errors.ErrorTypeInvalidBlockRef, errors.SeverityMedium,
			"INVALID_BLOCK_REF", "区块引用格式无效").WithContext("input", input)
	}

	if !height.IsUint64() {
		return models.BlockReference{}, errors.NewCheckError(
			errors.ErrorTypeInvalidBlockRef, errors.SeverityMedium,
			"BLOCK_REF_OVERFLOW", "区块号超出uint64范围").WithContext("input", input)
	}

	return models.NumericRef(height.Uint64()), nil
}
