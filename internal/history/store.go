package history

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"soundcheck/internal/errors"
	"soundcheck/pkg/models"

	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const (
	// 默认数据库路径
	DefaultDBPath = "./data/history.db"

	// 存储桶名称
	CommitmentBucket = "commitments"
)

// Record 一条承诺历史记录
type Record struct {
	ChainID    uint64    `json:"chain_id"`
	Address    string    `json:"address"`
	SlotHex    string    `json:"slot_hex"`
	Height     uint64    `json:"height"`
	Value      string    `json:"value"`
	Commitment string    `json:"commitment"`
	Provider   string    `json:"provider"`
	FirstSeen  time.Time `json:"first_seen"`
}

// Store 承诺历史库
// 以 chainId|address|slot|height 为键持久化承诺值；同一键在两次运行
// 之间出现不同承诺值说明某个节点的历史数据发生了漂移
type Store struct {
	db     *bolt.DB
	logger *logrus.Logger
	dbPath string
	mu     sync.Mutex
}

// NewStore 创建承诺历史库
func NewStore(dbPath string, logger *logrus.Logger) (*Store, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}

	// 确保目录存在
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeHistory, errors.SeverityMedium,
			"HISTORY_DIR_FAILED", "创建数据目录失败")
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeHistory, errors.SeverityMedium,
			"HISTORY_OPEN_FAILED", "打开历史数据库失败")
	}

	store := &Store{
		db:     db,
		logger: logger,
		dbPath: dbPath,
	}

	if err := store.initDB(); err != nil {
		db.Close()
		return nil, errors.WrapError(err, errors.ErrorTypeHistory, errors.SeverityMedium,
			"HISTORY_INIT_FAILED", "初始化历史数据库失败")
	}

	logger.Debugf("承诺历史库已初始化，数据库路径: %s", dbPath)
	return store, nil
}

// initDB 初始化数据库结构
func (s *Store) initDB() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(CommitmentBucket))
		return err
	})
}

// recordKey 构造记录键: chainId(8) | address(20) | slot(32) | height(8)
func recordKey(result *models.ProviderResult) []byte {
	obs := result.Observation
	key := make([]byte, 8+20+32+8)
	binary.BigEndian.PutUint64(key[0:8], obs.ChainID)
	copy(key[8:28], obs.Address.Bytes())
	obs.Slot.FillBytes(key[28:60])
	binary.BigEndian.PutUint64(key[60:68], obs.Height)
	return key
}

// Record 记录一次观测的承诺值
// 返回同一键此前记录的不同承诺值（漂移），首次记录或一致时返回nil
func (s *Store) Record(result *models.ProviderResult) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	obs := result.Observation
	newRecord := &Record{
		ChainID:    obs.ChainID,
		Address:    obs.Address.Hex(),
		SlotHex:    fmt.Sprintf("%#x", obs.Slot),
		Height:     obs.Height,
		Value:      obs.Value.Hex(),
		Commitment: result.Commitment.Hex(),
		Provider:   result.Provider,
		FirstSeen:  time.Now(),
	}

	var drifted *Record
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(CommitmentBucket))
		if bucket == nil {
			return fmt.Errorf("承诺存储桶不存在")
		}

		key := recordKey(result)
		if existing := bucket.Get(key); existing != nil {
			var previous Record
			if err := json.Unmarshal(existing, &previous); err == nil {
				if previous.Commitment != newRecord.Commitment {
					drifted = &previous
					// 保留首次记录，漂移交由调用方上报
					return nil
				}
				// 承诺值一致，保留首次记录的时间戳
				return nil
			}
		}

		data, err := json.Marshal(newRecord)
		if err != nil {
			return fmt.Errorf("序列化历史记录失败: %w", err)
		}
		return bucket.Put(key, data)
	})

	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeHistory, errors.SeverityMedium,
			"HISTORY_WRITE_FAILED", "写入历史记录失败")
	}

	if drifted != nil {
		s.logger.Warnf("检测到承诺漂移: chain=%d address=%s slot=%s height=%d 原承诺=%s 新承诺=%s",
			obs.ChainID, newRecord.Address, newRecord.SlotHex, obs.Height,
			drifted.Commitment, newRecord.Commitment)
	}

	return drifted, nil
}

// List 返回最近的历史记录（按键序倒序，最多limit条）
func (s *Store) List(limit int) ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 100
	}

	var records []*Record
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(CommitmentBucket))
		if bucket == nil {
			return nil
		}

		cursor := bucket.Cursor()
		for k, v := cursor.Last(); k != nil && len(records) < limit; k, v = cursor.Prev() {
			var record Record
			if err := json.Unmarshal(v, &record); err != nil {
				s.logger.Warnf("跳过无法解析的历史记录: %v", err)
				continue
			}
			records = append(records, &record)
		}
		return nil
	})

	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeHistory, errors.SeverityMedium,
			"HISTORY_READ_FAILED", "读取历史记录失败")
	}

	return records, nil
}

// Stats 获取历史库统计信息
func (s *Store) Stats() (map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(CommitmentBucket))
		if bucket == nil {
			return nil
		}
		count = bucket.Stats().KeyN
		return nil
	})
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"db_path":       s.dbPath,
		"total_records": count,
	}, nil
}

// Close 关闭历史库
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
