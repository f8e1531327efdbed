package models

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// 符号区块标签
const (
	TagLatest    = "latest"
	TagFinalized = "finalized"
	TagSafe      = "safe"
	TagPending   = "pending"
)

// BlockReference 区块引用（符号标签或显式区块号）
// 在任何哈希计算之前必须先解析为具体的区块号
type BlockReference struct {
	Tag     string `json:"tag,omitempty"`    // 符号标签: latest, finalized, safe, pending
	Height  uint64 `json:"height,omitempty"` // 显式区块号
	Numeric bool   `json:"numeric"`          // 是否为显式区块号
}

// NumericRef 创建显式区块号引用
func NumericRef(height uint64) BlockReference {
	return BlockReference{Height: height, Numeric: true}
}

// TagRef 创建符号标签引用
func TagRef(tag string) BlockReference {
	return BlockReference{Tag: tag}
}

// String 返回区块引用的字符串表示
func (r BlockReference) String() string {
	if r.Numeric {
		return new(big.Int).SetUint64(r.Height).String()
	}
	return r.Tag
}

// Observation 单次存储查询的观测结果
// 创建后不可变，仅由创建它的流水线持有
type Observation struct {
	ChainID uint64         `json:"chain_id"` // 链ID
	Address common.Address `json:"address"`  // 账户地址（20字节）
	Slot    *big.Int       `json:"slot"`     // 存储槽位
	Height  uint64         `json:"height"`   // 已解析的区块号
	Value   common.Hash    `json:"value"`    // 32字节存储值（左侧补零）
}

// Commitment 承诺值（观测结果规范编码的Keccak-256摘要）
type Commitment common.Hash

// Hex 返回承诺值的十六进制表示
func (c Commitment) Hex() string {
	return common.Hash(c).Hex()
}

// Bytes 返回承诺值的字节表示
func (c Commitment) Bytes() []byte {
	return common.Hash(c).Bytes()
}

// ProviderResult 单个节点流水线的完整结果
type ProviderResult struct {
	Provider    string      `json:"provider"` // 节点名称
	Observation Observation `json:"observation"`
	Commitment  Commitment  `json:"commitment"`
}

// ComparisonVerdict 两个观测结果的逐字段比对结论
// 构建后不可变
type ComparisonVerdict struct {
	ChainMatch      bool `json:"chain_match"`      // 链ID一致
	HeightMatch     bool `json:"height_match"`     // 区块号一致
	ValueMatch      bool `json:"value_match"`      // 存储值一致
	CommitmentMatch bool `json:"commitment_match"` // 承诺值一致
}

// Overall 总体结论（四项全部一致才为真）
func (v ComparisonVerdict) Overall() bool {
	return v.ChainMatch && v.HeightMatch && v.ValueMatch && v.CommitmentMatch
}
