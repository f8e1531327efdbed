package comparator

import "soundcheck/pkg/models"

// Compare 逐字段比对两个独立获得的观测结果
// 纯函数，无失败路径，即使全部字段不一致也总能给出结论；
// commitmentMatch在构建器正确的前提下由前三项蕴含，作为独立检查
// 保留，用于暴露任一侧构建器的实现缺陷
func Compare(a, b models.ProviderResult) models.ComparisonVerdict {
	return models.ComparisonVerdict{
		ChainMatch:      a.Observation.ChainID == b.Observation.ChainID,
		HeightMatch:     a.Observation.Height == b.Observation.Height,
		ValueMatch:      a.Observation.Value == b.Observation.Value,
		CommitmentMatch: a.Commitment == b.Commitment,
	}
}
