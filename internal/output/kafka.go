package output

import (
	"encoding/json"
	"fmt"
	"time"

	"soundcheck/internal/errors"
	"soundcheck/pkg/models"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"
)

// KafkaOutput Kafka输出器
type KafkaOutput struct {
	logger   *logrus.Logger
	topic    string
	producer sarama.SyncProducer
}

// NewKafkaOutput 创建Kafka输出器
func NewKafkaOutput(brokers []string, topic string, logger *logrus.Logger) (*KafkaOutput, error) {
	logger.Infof("初始化Kafka输出器，brokers: %v, topic: %s", brokers, topic)

	// 配置Kafka生产者
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Timeout = 5 * time.Second
	config.Version = sarama.V2_8_0_0

	// 创建同步生产者
	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeKafka, errors.SeverityHigh,
			"KAFKA_INIT_FAILED", "创建Kafka生产者失败")
	}

	return &KafkaOutput{
		logger:   logger,
		topic:    topic,
		producer: producer,
	}, nil
}

// WriteReport 发送校验报告到Kafka
func (k *KafkaOutput) WriteReport(report *models.VerificationReport) error {
	jsonData, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("序列化报告失败: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Value: sarama.StringEncoder(jsonData),
	}

	partition, offset, err := k.producer.SendMessage(msg)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeKafka, errors.SeverityHigh,
			"KAFKA_PRODUCE_FAILED", "Kafka消息发送失败")
	}

	k.logger.Debugf("报告已发送到Kafka topic '%s' (partition: %d, offset: %d)",
		k.topic, partition, offset)

	return nil
}

// Close 关闭Kafka生产者
func (k *KafkaOutput) Close() error {
	if k.producer != nil {
		return k.producer.Close()
	}
	return nil
}
