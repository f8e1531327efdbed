package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ObservationReport 单个节点观测的序列化报告
type ObservationReport struct {
	Provider   string    `json:"provider"`    // 节点名称
	ChainID    uint64    `json:"chain_id"`    // 链ID
	Network    string    `json:"network"`     // 网络名称
	Address    string    `json:"address"`     // 校验和格式地址
	SlotHex    string    `json:"slot_hex"`    // 槽位（十六进制）
	SlotDec    string    `json:"slot_dec"`    // 槽位（十进制）
	Height     uint64    `json:"height"`      // 已解析的区块号
	Value      string    `json:"value"`       // 32字节存储值（十六进制）
	Commitment string    `json:"commitment"`  // 承诺值（十六进制）
	ObservedAt time.Time `json:"observed_at"` // 观测时间
}

// VerdictReport 比对结论的序列化报告
type VerdictReport struct {
	ChainMatch      bool `json:"chain_match"`
	HeightMatch     bool `json:"height_match"`
	ValueMatch      bool `json:"value_match"`
	CommitmentMatch bool `json:"commitment_match"`
	Overall         bool `json:"overall"`
}

// VerificationReport 一次完整校验的输出报告
// Verdict仅在双节点交叉校验时存在
type VerificationReport struct {
	Observations []*ObservationReport `json:"observations"`
	Verdict      *VerdictReport       `json:"verdict,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

// NewObservationReport 从流水线结果构建观测报告
func NewObservationReport(result *ProviderResult) *ObservationReport {
	obs := result.Observation
	return &ObservationReport{
		Provider:   result.Provider,
		ChainID:    obs.ChainID,
		Network:    NetworkName(obs.ChainID),
		Address:    obs.Address.Hex(),
		SlotHex:    hexutil.EncodeBig(obs.Slot),
		SlotDec:    obs.Slot.String(),
		Height:     obs.Height,
		Value:      obs.Value.Hex(),
		Commitment: result.Commitment.Hex(),
		ObservedAt: time.Now(),
	}
}

// NewVerdictReport 从比对结论构建报告
func NewVerdictReport(verdict ComparisonVerdict) *VerdictReport {
	return &VerdictReport{
		ChainMatch:      verdict.ChainMatch,
		HeightMatch:     verdict.HeightMatch,
		ValueMatch:      verdict.ValueMatch,
		CommitmentMatch: verdict.CommitmentMatch,
		Overall:         verdict.Overall(),
	}
}
