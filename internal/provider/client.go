package provider

import (
	"context"
	"math/big"
	"time"

	"soundcheck/internal/config"
	"soundcheck/internal/errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
)

// 拨号超时，对应节点侧"有界等待"约定
const dialTimeout = 10 * time.Second

// RPCClient 流水线所需的最小RPC接口
// *ethclient.Client 满足该接口，测试中以假实现替代
type RPCClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	StorageAt(ctx context.Context, account common.Address, key common.Hash, blockNumber *big.Int) ([]byte, error)
}

// Provider 单个RPC节点的连接
type Provider struct {
	Name   string
	URL    string
	client *ethclient.Client
	logger *logrus.Logger
}

// NewProvider 创建节点连接（不拨号）
func NewProvider(cfg *config.ProviderConfig, logger *logrus.Logger) *Provider {
	return &Provider{
		Name:   cfg.Name,
		URL:    cfg.URL,
		logger: logger,
	}
}

// Connect 建立连接并通过ChainID探测连通性
// 单次尝试，不重试；失败返回ConnectivityError
func (p *Provider) Connect(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	client, err := ethclient.DialContext(dialCtx, p.URL)
	if err != nil {
		return errors.WrapError(err,
			errors.ErrorTypeConnectivity, errors.SeverityHigh,
			"CONNECTIVITY_FAILED", "节点连接失败").WithProvider(p.Name)
	}

	// 测试连接，同时确认节点真实上报链ID
	if _, err := client.ChainID(dialCtx); err != nil {
		client.Close()
		return errors.WrapError(err,
			errors.ErrorTypeConnectivity, errors.SeverityHigh,
			"CONNECTIVITY_PROBE_FAILED", "节点连通性探测失败").WithProvider(p.Name)
	}

	p.client = client
	p.logger.Debugf("节点 %s 已连接: %s", p.Name, p.URL)
	return nil
}

// Client 返回底层RPC客户端
func (p *Provider) Client() RPCClient {
	return p.client
}

// Label 返回节点名称
func (p *Provider) Label() string {
	return p.Name
}

// Close 关闭连接
func (p *Provider) Close() {
	if p.client != nil {
		p.client.Close()
		p.client = nil
	}
}
