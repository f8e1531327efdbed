package resolver

import (
	"context"
	"math/big"

	"soundcheck/internal/errors"
	"soundcheck/internal/provider"
	"soundcheck/pkg/models"

	"github.com/ethereum/go-ethereum/rpc"
)

// 符号标签到RPC特殊区块号的映射
var tagNumbers = map[string]rpc.BlockNumber{
	models.TagLatest:    rpc.LatestBlockNumber,
	models.TagFinalized: rpc.FinalizedBlockNumber,
	models.TagSafe:      rpc.SafeBlockNumber,
	models.TagPending:   rpc.PendingBlockNumber,
}

// Resolve 将区块引用解析为具体区块号
// 显式区块号原样返回且不发起网络调用，保证两个节点可在调用方固定的
// 高度上比对；符号标签发起单次查询，不重试
func Resolve(ctx context.Context, client provider.RPCClient, ref models.BlockReference) (uint64, error) {
	if ref.Numeric {
		return ref.Height, nil
	}

	if ref.Tag == models.TagLatest {
		height, err := client.BlockNumber(ctx)
		if err != nil {
			return 0, errors.WrapError(err,
				errors.ErrorTypeConnectivity, errors.SeverityHigh,
				"HEAD_QUERY_FAILED", "查询最新区块号失败")
		}
		return height, nil
	}

	tagNumber, exists := tagNumbers[ref.Tag]
	if !exists {
		return 0, errors.NewCheckError(
			errors.ErrorTypeInvalidBlockRef, errors.SeverityMedium,
			"UNKNOWN_TAG", "未知的区块标签").WithContext("tag", ref.Tag)
	}

	header, err := client.HeaderByNumber(ctx, big.NewInt(int64(tagNumber)))
	if err != nil {
		return 0, errors.WrapError(err,
			errors.ErrorTypeConnectivity, errors.SeverityHigh,
			"HEADER_QUERY_FAILED", "查询区块头失败").WithContext("tag", ref.Tag)
	}

	// 节点可能对pending等标签返回无区块号的区块头
	if header == nil || header.Number == nil {
		return 0, errors.NewCheckError(
			errors.ErrorTypeResolution, errors.SeverityHigh,
			"RESOLUTION_FAILED", "区块标签无法解析为区块号").WithContext("tag", ref.Tag)
	}

	if !header.Number.IsUint64() {
		return 0, errors.NewCheckError(
			errors.ErrorTypeResolution, errors.SeverityHigh,
			"RESOLUTION_OVERFLOW", "解析到的区块号超出uint64范围").WithContext("tag", ref.Tag)
	}

	return header.Number.Uint64(), nil
}
