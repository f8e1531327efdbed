package config

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// DatabaseConfig 数据库配置管理器
// 从Postgres的provider_endpoints表加载节点端点，供多实例部署共享配置
type DatabaseConfig struct {
	DB     *sql.DB
	logger *logrus.Logger
}

// NewDatabaseConfig 创建数据库配置管理器
func NewDatabaseConfig(dsn string, logger *logrus.Logger) (*DatabaseConfig, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 测试连接
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	return &DatabaseConfig{
		DB:     db,
		logger: logger,
	}, nil
}

// LoadConfig 从数据库加载完整配置
func (dc *DatabaseConfig) LoadConfig() (*Config, error) {
	config := GetDefaultConfig()

	providers, err := dc.loadProvidersConfig()
	if err != nil {
		return nil, fmt.Errorf("加载节点配置失败: %w", err)
	}
	config.Providers = providers

	return config, nil
}

// loadProvidersConfig 加载节点配置
// role区分primary/secondary，同一role按priority取最优先的活跃端点
func (dc *DatabaseConfig) loadProvidersConfig() (*ProvidersConfig, error) {
	query := `SELECT name, url, role FROM provider_endpoints WHERE is_active = true ORDER BY role, priority`
	rows, err := dc.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	providers := &ProvidersConfig{}
	for rows.Next() {
		var provider ProviderConfig
		var role string
		if err := rows.Scan(&provider.Name, &provider.URL, &role); err != nil {
			return nil, err
		}

		switch role {
		case "primary":
			if providers.Primary == nil {
				providers.Primary = &provider
			}
		case "secondary":
			if providers.Secondary == nil {
				providers.Secondary = &provider
			}
		default:
			dc.logger.Warnf("忽略未知的节点角色: %s (%s)", role, provider.Name)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return providers, nil
}

// Close 关闭数据库连接
func (dc *DatabaseConfig) Close() error {
	if dc.DB != nil {
		return dc.DB.Close()
	}
	return nil
}
