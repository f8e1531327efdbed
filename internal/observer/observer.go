package observer

import (
	"context"
	"math/big"

	"soundcheck/internal/errors"
	"soundcheck/internal/provider"
	"soundcheck/internal/validation"
	"soundcheck/pkg/models"

	"github.com/ethereum/go-ethereum/common"
)

// Observe 在指定高度读取账户存储槽位的值
// 地址先校验为20字节并渲染为校验和格式；存储读取必须针对已解析的
// 具体区块号发起，保证高度与值的原子性；链ID在同一会话中查询获得，
// 绝不假设，以便发现配置错误的节点
func Observe(ctx context.Context, client provider.RPCClient, address string, slot *big.Int, height uint64) (models.Observation, error) {
	addr, err := validation.ParseAddress(address)
	if err != nil {
		return models.Observation{}, err
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return models.Observation{}, errors.WrapError(err,
			errors.ErrorTypeConnectivity, errors.SeverityHigh,
			"CHAIN_ID_QUERY_FAILED", "查询链ID失败")
	}

	raw, err := client.StorageAt(ctx, addr, common.BigToHash(slot), new(big.Int).SetUint64(height))
	if err != nil {
		return models.Observation{}, errors.WrapError(err,
			errors.ErrorTypeConnectivity, errors.SeverityHigh,
			"STORAGE_QUERY_FAILED", "读取存储槽位失败").
			WithContext("address", addr.Hex()).
			WithContext("height", height)
	}

	return models.Observation{
		ChainID: chainID.Uint64(),
		Address: addr,
		Slot:    new(big.Int).Set(slot),
		Height:  height,
		// BytesToHash对不足32字节的返回值左侧补零
		Value: common.BytesToHash(raw),
	}, nil
}
