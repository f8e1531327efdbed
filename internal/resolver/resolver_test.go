package resolver

import (
	"context"
	"errors"
	"math/big"
	"testing"

	checkerrors "soundcheck/internal/errors"
	"soundcheck/pkg/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient 测试用假RPC客户端
type fakeClient struct {
	headHeight   uint64
	headers      map[int64]*types.Header
	err          error
	blockCalls   int
	headerCalls  int
	storageCalls int
}

func (f *fakeClient) ChainID(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1), f.err
}

func (f *fakeClient) BlockNumber(ctx context.Context) (uint64, error) {
	f.blockCalls++
	if f.err != nil {
		return 0, f.err
	}
	return f.headHeight, nil
}

func (f *fakeClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	f.headerCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.headers[number.Int64()], nil
}

func (f *fakeClient) StorageAt(ctx context.Context, account common.Address, key common.Hash, blockNumber *big.Int) ([]byte, error) {
	f.storageCalls++
	return make([]byte, 32), nil
}

func TestResolve_NumericRef(t *testing.T) {
	client := &fakeClient{headHeight: 20000000}

	height, err := Resolve(context.Background(), client, models.NumericRef(18000000))

	require.NoError(t, err)
	assert.Equal(t, uint64(18000000), height)
	// 显式区块号不应发起任何网络调用
	assert.Zero(t, client.blockCalls)
	assert.Zero(t, client.headerCalls)
}

func TestResolve_Latest(t *testing.T) {
	client := &fakeClient{headHeight: 19500000}

	height, err := Resolve(context.Background(), client, models.TagRef(models.TagLatest))

	require.NoError(t, err)
	assert.Equal(t, uint64(19500000), height)
	assert.Equal(t, 1, client.blockCalls)
}

func TestResolve_FinalizedAndSafe(t *testing.T) {
	client := &fakeClient{
		headers: map[int64]*types.Header{
			int64(rpc.FinalizedBlockNumber): {Number: big.NewInt(19499900)},
			int64(rpc.SafeBlockNumber):      {Number: big.NewInt(19499950)},
		},
	}

	height, err := Resolve(context.Background(), client, models.TagRef(models.TagFinalized))
	require.NoError(t, err)
	assert.Equal(t, uint64(19499900), height)

	height, err = Resolve(context.Background(), client, models.TagRef(models.TagSafe))
	require.NoError(t, err)
	assert.Equal(t, uint64(19499950), height)
}

func TestResolve_PendingWithoutNumber(t *testing.T) {
	// pending区块头缺少区块号时必须返回解析错误
	client := &fakeClient{
		headers: map[int64]*types.Header{
			int64(rpc.PendingBlockNumber): {Number: nil},
		},
	}

	_, err := Resolve(context.Background(), client, models.TagRef(models.TagPending))

	assert.Error(t, err)
	assert.True(t, checkerrors.IsType(err, checkerrors.ErrorTypeResolution))
}

func TestResolve_HeaderNotFound(t *testing.T) {
	client := &fakeClient{headers: map[int64]*types.Header{}}

	_, err := Resolve(context.Background(), client, models.TagRef(models.TagFinalized))

	assert.Error(t, err)
	assert.True(t, checkerrors.IsType(err, checkerrors.ErrorTypeResolution))
}

func TestResolve_ConnectivityFailure(t *testing.T) {
	client := &fakeClient{err: errors.New("dial tcp: 连接被拒绝")}

	_, err := Resolve(context.Background(), client, models.TagRef(models.TagLatest))
	assert.True(t, checkerrors.IsConnectivity(err))

	_, err = Resolve(context.Background(), client, models.TagRef(models.TagSafe))
	assert.True(t, checkerrors.IsConnectivity(err))

	// 单次查询，无重试
	assert.Equal(t, 1, client.blockCalls)
	assert.Equal(t, 1, client.headerCalls)
}

func TestResolve_UnknownTag(t *testing.T) {
	client := &fakeClient{}

	_, err := Resolve(context.Background(), client, models.TagRef("earliest"))

	assert.Error(t, err)
	assert.True(t, checkerrors.IsType(err, checkerrors.ErrorTypeInvalidBlockRef))
}
