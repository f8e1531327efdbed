package history

import (
	"math/big"
	"path/filepath"
	"testing"

	"soundcheck/pkg/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	store, err := NewStore(filepath.Join(t.TempDir(), "history.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testResult(height uint64, commitment models.Commitment) *models.ProviderResult {
	return &models.ProviderResult{
		Provider: "primary",
		Observation: models.Observation{
			ChainID: 1,
			Address: common.HexToAddress("0x00000000219ab540356cBB839Cbe05303d7705Fa"),
			Slot:    big.NewInt(0),
			Height:  height,
			Value:   common.Hash{},
		},
		Commitment: commitment,
	}
}

func TestStore_RecordAndList(t *testing.T) {
	store := newTestStore(t)

	drifted, err := store.Record(testResult(18000000, models.Commitment(common.HexToHash("0xaa"))))
	require.NoError(t, err)
	assert.Nil(t, drifted)

	records, err := store.List(10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, uint64(18000000), records[0].Height)
	assert.Equal(t, "0x00000000219ab540356cBB839Cbe05303d7705Fa", records[0].Address)
	assert.Equal(t, "primary", records[0].Provider)
}

func TestStore_IdenticalCommitmentNoDrift(t *testing.T) {
	store := newTestStore(t)
	c := models.Commitment(common.HexToHash("0xaa"))

	_, err := store.Record(testResult(18000000, c))
	require.NoError(t, err)

	drifted, err := store.Record(testResult(18000000, c))
	require.NoError(t, err)
	assert.Nil(t, drifted)

	records, err := store.List(10)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestStore_DriftDetection(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Record(testResult(18000000, models.Commitment(common.HexToHash("0xaa"))))
	require.NoError(t, err)

	// 同一键不同承诺值: 漂移
	drifted, err := store.Record(testResult(18000000, models.Commitment(common.HexToHash("0xbb"))))
	require.NoError(t, err)
	require.NotNil(t, drifted)
	assert.Equal(t, common.HexToHash("0xaa").Hex(), drifted.Commitment)

	// 首次记录保留
	records, err := store.List(10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, common.HexToHash("0xaa").Hex(), records[0].Commitment)
}

func TestStore_DifferentHeightsAreDistinct(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Record(testResult(18000000, models.Commitment(common.HexToHash("0xaa"))))
	require.NoError(t, err)

	drifted, err := store.Record(testResult(18000001, models.Commitment(common.HexToHash("0xbb"))))
	require.NoError(t, err)
	assert.Nil(t, drifted)

	records, err := store.List(10)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestStore_Stats(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Record(testResult(1, models.Commitment(common.HexToHash("0x01"))))
	require.NoError(t, err)
	_, err = store.Record(testResult(2, models.Commitment(common.HexToHash("0x02"))))
	require.NoError(t, err)

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats["total_records"])
}
