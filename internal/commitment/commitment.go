package commitment

import (
	"encoding/binary"

	"soundcheck/pkg/models"

	"github.com/ethereum/go-ethereum/crypto"
)

// 规范编码各字段的固定宽度，所有整数为大端无符号
// 该编码是与独立校验方的互操作契约，不得改动
const (
	chainIDWidth = 8
	addressWidth = 20
	slotWidth    = 32
	valueWidth   = 32
	heightWidth  = 8

	payloadWidth = chainIDWidth + addressWidth + slotWidth + valueWidth + heightWidth
)

// Encode 将观测结果编码为规范字节序列
// 布局: chainId(8) | address(20) | slot(32) | value(32) | height(8)
func Encode(obs models.Observation) []byte {
	payload := make([]byte, payloadWidth)
	offset := 0

	binary.BigEndian.PutUint64(payload[offset:], obs.ChainID)
	offset += chainIDWidth

	copy(payload[offset:], obs.Address.Bytes())
	offset += addressWidth

	// FillBytes大端写入并左侧补零
	obs.Slot.FillBytes(payload[offset : offset+slotWidth])
	offset += slotWidth

	copy(payload[offset:], obs.Value.Bytes())
	offset += valueWidth

	binary.BigEndian.PutUint64(payload[offset:], obs.Height)

	return payload
}

// Commit 计算观测结果的承诺值
// 纯函数，对任何合法观测结果总能得出承诺值；相同字段必然产生相同
// 承诺值，任一字段不同则承诺值不同（依赖Keccak-256的抗碰撞性）
func Commit(obs models.Observation) models.Commitment {
	return models.Commitment(crypto.Keccak256Hash(Encode(obs)))
}
