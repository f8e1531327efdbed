package models

import "fmt"

// networks 链ID到网络名称的静态映射
// 进程级只读配置，启动时初始化，不作为可变全局状态使用
var networks = map[uint64]string{
	1:        "Ethereum Mainnet",
	11155111: "Sepolia Testnet",
	10:       "Optimism",
	137:      "Polygon",
	42161:    "Arbitrum One",
}

// NetworkName 返回链ID对应的网络名称
func NetworkName(chainID uint64) string {
	if name, exists := networks[chainID]; exists {
		return name
	}
	return fmt.Sprintf("Unknown (chain ID %d)", chainID)
}
