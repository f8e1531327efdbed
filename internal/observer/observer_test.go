package observer

import (
	"context"
	"errors"
	"math/big"
	"testing"

	checkerrors "soundcheck/internal/errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddress = "0x00000000219ab540356cBB839Cbe05303d7705Fa"

// fakeClient 测试用假RPC客户端
type fakeClient struct {
	chainID      *big.Int
	storage      []byte
	chainErr     error
	storageErr   error
	storageCalls int

	lastAccount common.Address
	lastKey     common.Hash
	lastHeight  *big.Int
}

func (f *fakeClient) ChainID(ctx context.Context) (*big.Int, error) {
	if f.chainErr != nil {
		return nil, f.chainErr
	}
	return f.chainID, nil
}

func (f *fakeClient) BlockNumber(ctx context.Context) (uint64, error) {
	return 0, nil
}

func (f *fakeClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return nil, nil
}

func (f *fakeClient) StorageAt(ctx context.Context, account common.Address, key common.Hash, blockNumber *big.Int) ([]byte, error) {
	f.storageCalls++
	f.lastAccount = account
	f.lastKey = key
	f.lastHeight = blockNumber
	if f.storageErr != nil {
		return nil, f.storageErr
	}
	return f.storage, nil
}

func TestObserve_Success(t *testing.T) {
	value := make([]byte, 32)
	value[31] = 0x2a
	client := &fakeClient{chainID: big.NewInt(1), storage: value}

	obs, err := Observe(context.Background(), client, testAddress, big.NewInt(5), 18000000)

	require.NoError(t, err)
	assert.Equal(t, uint64(1), obs.ChainID)
	assert.Equal(t, testAddress, obs.Address.Hex())
	assert.Zero(t, big.NewInt(5).Cmp(obs.Slot))
	assert.Equal(t, uint64(18000000), obs.Height)
	assert.Equal(t, common.BytesToHash(value), obs.Value)

	// 查询必须针对精确的区块号发起，而非符号标签
	assert.Equal(t, big.NewInt(18000000), client.lastHeight)
	assert.Equal(t, common.BigToHash(big.NewInt(5)), client.lastKey)
	// 仅发起一次存储读取
	assert.Equal(t, 1, client.storageCalls)
}

func TestObserve_ShortValuePadding(t *testing.T) {
	// 节点返回不足32字节时，观测值必须左侧补零到32字节
	client := &fakeClient{chainID: big.NewInt(1), storage: []byte{0x01, 0x02}}

	obs, err := Observe(context.Background(), client, testAddress, big.NewInt(0), 100)

	require.NoError(t, err)
	expected := common.Hash{}
	expected[30] = 0x01
	expected[31] = 0x02
	assert.Equal(t, expected, obs.Value)
}

func TestObserve_InvalidAddress(t *testing.T) {
	client := &fakeClient{chainID: big.NewInt(1), storage: make([]byte, 32)}

	_, err := Observe(context.Background(), client, "0x1234", big.NewInt(0), 100)

	assert.Error(t, err)
	assert.True(t, checkerrors.IsType(err, checkerrors.ErrorTypeInvalidAddress))
	// 地址校验失败时不得发起任何网络调用
	assert.Zero(t, client.storageCalls)
}

func TestObserve_ChainIDFailure(t *testing.T) {
	client := &fakeClient{chainErr: errors.New("节点无响应")}

	_, err := Observe(context.Background(), client, testAddress, big.NewInt(0), 100)

	assert.True(t, checkerrors.IsConnectivity(err))
}

func TestObserve_StorageFailure(t *testing.T) {
	client := &fakeClient{chainID: big.NewInt(1), storageErr: errors.New("请求超时")}

	_, err := Observe(context.Background(), client, testAddress, big.NewInt(0), 100)

	assert.True(t, checkerrors.IsConnectivity(err))
	// 单次查询，无重试
	assert.Equal(t, 1, client.storageCalls)
}

func TestObserve_UnexpectedChain(t *testing.T) {
	// 配置错误的节点可能上报意外的链ID，观测结果必须如实记录
	client := &fakeClient{chainID: big.NewInt(137), storage: make([]byte, 32)}

	obs, err := Observe(context.Background(), client, testAddress, big.NewInt(0), 100)

	require.NoError(t, err)
	assert.Equal(t, uint64(137), obs.ChainID)
}
