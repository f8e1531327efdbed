package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"soundcheck/internal/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// 环境变量覆盖项
const (
	EnvPrimaryURL   = "SOUNDCHECK_RPC_URL"
	EnvSecondaryURL = "SOUNDCHECK_RPC_URL_2"
	EnvDatabaseDSN  = "SOUNDCHECK_DB_DSN"
	EnvKafkaBrokers = "SOUNDCHECK_KAFKA_BROKERS"
)

// Config 主配置
type Config struct {
	Providers *ProvidersConfig   `mapstructure:"providers"`
	Output    *OutputConfig      `mapstructure:"output"`
	History   *HistoryConfig     `mapstructure:"history"`
	API       *APIConfig         `mapstructure:"api"`
	Logging   *logging.LogConfig `mapstructure:"logging"`
}

// ProviderConfig 单个RPC节点配置
type ProviderConfig struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

// ProvidersConfig 节点配置
// Secondary为空时跳过交叉校验，仅上报单节点观测结果
type ProvidersConfig struct {
	Primary   *ProviderConfig `mapstructure:"primary"`
	Secondary *ProviderConfig `mapstructure:"secondary"`
}

// KafkaConfig Kafka配置
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	Format    string       `mapstructure:"format"` // console, json, kafka
	Directory string       `mapstructure:"directory"`
	Kafka     *KafkaConfig `mapstructure:"kafka"`
}

// HistoryConfig 承诺历史库配置
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// APIConfig API服务器配置
type APIConfig struct {
	Port int `mapstructure:"port"`
}

// LoadConfig 加载配置（自动检测配置源）
func LoadConfig(configPath string) (*Config, error) {
	// 首先尝试从环境变量获取数据库配置
	dbDSN := os.Getenv(EnvDatabaseDSN)
	if dbDSN != "" {
		logger := logrus.New()
		dbConfig, err := NewDatabaseConfig(dbDSN, logger)
		if err != nil {
			return nil, fmt.Errorf("连接数据库失败: %w", err)
		}
		defer dbConfig.Close()

		config, err := dbConfig.LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("从数据库加载配置失败: %w", err)
		}

		applyEnvOverrides(config)
		logger.Info("已从数据库加载配置")
		return config, nil
	}

	// 如果配置文件存在，从文件加载
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			config, err := LoadConfigFromFile(configPath)
			if err != nil {
				return nil, err
			}
			applyEnvOverrides(config)
			return config, nil
		}
	}

	// 回退到默认配置加环境变量覆盖
	config := GetDefaultConfig()
	applyEnvOverrides(config)
	return config, nil
}

// LoadConfigFromFile 从文件加载配置
func LoadConfigFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	config := GetDefaultConfig()
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return config, nil
}

// applyEnvOverrides 应用环境变量覆盖
func applyEnvOverrides(config *Config) {
	if config.Providers == nil {
		config.Providers = &ProvidersConfig{}
	}

	if primaryURL := os.Getenv(EnvPrimaryURL); primaryURL != "" {
		if config.Providers.Primary == nil {
			config.Providers.Primary = &ProviderConfig{Name: "primary"}
		}
		config.Providers.Primary.URL = primaryURL
	}

	if secondaryURL := os.Getenv(EnvSecondaryURL); secondaryURL != "" {
		if config.Providers.Secondary == nil {
			config.Providers.Secondary = &ProviderConfig{Name: "secondary"}
		}
		config.Providers.Secondary.URL = secondaryURL
	}

	if brokers := os.Getenv(EnvKafkaBrokers); brokers != "" {
		if config.Output == nil {
			config.Output = &OutputConfig{Format: "console"}
		}
		if config.Output.Kafka == nil {
			config.Output.Kafka = &KafkaConfig{Topic: "soundcheck_reports"}
		}
		config.Output.Kafka.Brokers = strings.Split(brokers, ",")
	}
}

// GetDefaultConfig 获取默认配置
func GetDefaultConfig() *Config {
	return &Config{
		Providers: &ProvidersConfig{
			Primary: &ProviderConfig{
				Name: "primary",
				URL:  "", // 需要在YAML配置、数据库或环境变量中指定
			},
		},
		Output: &OutputConfig{
			Format:    "console",
			Directory: "./outputs",
		},
		History: &HistoryConfig{
			Enabled: true,
			Path:    "./data/history.db",
		},
		API: &APIConfig{
			Port: 8080,
		},
		Logging: &logging.LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// ValidateConfig 校验配置
func ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("配置为空")
	}

	if err := validateProvidersConfig(config.Providers); err != nil {
		return err
	}

	if err := validateOutputConfig(config.Output); err != nil {
		return err
	}

	return nil
}

// validateProvidersConfig 校验节点配置
func validateProvidersConfig(providers *ProvidersConfig) error {
	if providers == nil || providers.Primary == nil {
		return fmt.Errorf("缺少主节点配置")
	}

	if err := validateProviderConfig(providers.Primary); err != nil {
		return fmt.Errorf("主节点配置无效: %w", err)
	}

	if providers.Secondary != nil {
		if err := validateProviderConfig(providers.Secondary); err != nil {
			return fmt.Errorf("副节点配置无效: %w", err)
		}
	}

	return nil
}

// validateProviderConfig 校验单个节点配置
func validateProviderConfig(provider *ProviderConfig) error {
	if provider.Name == "" {
		return fmt.Errorf("节点名称不能为空")
	}

	if provider.URL == "" {
		return fmt.Errorf("节点URL不能为空")
	}

	parsed, err := url.Parse(provider.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("节点URL格式无效: %s", provider.URL)
	}

	return nil
}

// validateOutputConfig 校验输出配置
func validateOutputConfig(output *OutputConfig) error {
	if output == nil {
		return nil // 输出配置可省略，默认console
	}

	switch output.Format {
	case "", "console", "json":
	case "kafka":
		if output.Kafka == nil || len(output.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka输出需要配置brokers")
		}
		if output.Kafka.Topic == "" {
			return fmt.Errorf("kafka输出需要配置topic")
		}
	default:
		return fmt.Errorf("不支持的输出格式: %s", output.Format)
	}

	return nil
}
