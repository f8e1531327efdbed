package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"soundcheck/internal/config"
	"soundcheck/internal/errors"
	"soundcheck/pkg/models"

	"github.com/sirupsen/logrus"
)

// Output 校验报告输出接口
type Output interface {
	WriteReport(report *models.VerificationReport) error
	Close() error
}

// NewOutput 根据配置创建输出器
func NewOutput(cfg *config.OutputConfig, logger *logrus.Logger) (Output, error) {
	if cfg == nil {
		return NewConsoleOutput(os.Stdout), nil
	}

	switch cfg.Format {
	case "", "console":
		return NewConsoleOutput(os.Stdout), nil
	case "json":
		return NewFileOutput(cfg.Directory)
	case "kafka":
		return NewKafkaOutput(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	default:
		return nil, fmt.Errorf("不支持的输出格式: %s", cfg.Format)
	}
}

// ConsoleOutput 控制台输出器
type ConsoleOutput struct {
	w io.Writer
}

// NewConsoleOutput 创建控制台输出器
func NewConsoleOutput(w io.Writer) *ConsoleOutput {
	return &ConsoleOutput{w: w}
}

// WriteReport 打印人类可读的校验报告
func (o *ConsoleOutput) WriteReport(report *models.VerificationReport) error {
	labels := []string{"PRIMARY", "SECONDARY"}
	for i, obs := range report.Observations {
		label := fmt.Sprintf("节点 %d", i+1)
		if i < len(labels) {
			label = labels[i]
		}
		fmt.Fprintf(o.w, "— %s —\n", label)
		fmt.Fprintf(o.w, "🌐 网络: %s (chainId %d)\n", obs.Network, obs.ChainID)
		fmt.Fprintf(o.w, "🏷️  地址: %s\n", obs.Address)
		fmt.Fprintf(o.w, "📦 槽位: %s (%s)\n", obs.SlotHex, obs.SlotDec)
		fmt.Fprintf(o.w, "🔢 区块: %d\n", obs.Height)
		fmt.Fprintf(o.w, "🧱 存储值: %s\n", obs.Value)
		fmt.Fprintf(o.w, "🧩 承诺值: %s\n", obs.Commitment)
	}

	if report.Verdict == nil {
		return nil
	}

	verdict := report.Verdict
	fmt.Fprintln(o.w, "— 交叉校验 —")
	fmt.Fprintf(o.w, "链ID一致: %s\n", mark(verdict.ChainMatch))
	fmt.Fprintf(o.w, "区块号一致: %s\n", mark(verdict.HeightMatch))
	fmt.Fprintf(o.w, "存储值一致: %s\n", mark(verdict.ValueMatch))
	fmt.Fprintf(o.w, "承诺值一致: %s\n", mark(verdict.CommitmentMatch))

	if verdict.Overall {
		fmt.Fprintln(o.w, "🔒 跨节点健全性校验通过。")
	} else {
		fmt.Fprintln(o.w, "⚠️  检测到潜在不一致 — 请复核RPC节点、区块标签，或改用归档节点。")
	}

	return nil
}

// Close 关闭输出器
func (o *ConsoleOutput) Close() error {
	return nil
}

// mark 布尔结论的标记
func mark(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}

// FileOutput 文件输出器（JSONL）
type FileOutput struct {
	file *os.File
}

// NewFileOutput 创建文件输出器
func NewFileOutput(directory string) (*FileOutput, error) {
	if directory == "" {
		directory = "./outputs"
	}

	if err := os.MkdirAll(directory, 0755); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeFileIO, errors.SeverityHigh,
			"OUTPUT_DIR_FAILED", "创建输出目录失败")
	}

	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(directory, fmt.Sprintf("reports_%s.json", timestamp))

	file, err := os.Create(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeFileIO, errors.SeverityHigh,
			"OUTPUT_CREATE_FAILED", "创建报告文件失败")
	}

	return &FileOutput{file: file}, nil
}

// WriteReport 写入一行JSON报告
func (o *FileOutput) WriteReport(report *models.VerificationReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("序列化报告失败: %w", err)
	}

	data = append(data, '\n')
	if _, err := o.file.Write(data); err != nil {
		return errors.WrapError(err, errors.ErrorTypeFileIO, errors.SeverityHigh,
			"OUTPUT_WRITE_FAILED", "写入报告文件失败")
	}

	// 强制刷新到磁盘
	if err := o.file.Sync(); err != nil {
		return errors.WrapError(err, errors.ErrorTypeFileIO, errors.SeverityHigh,
			"OUTPUT_SYNC_FAILED", "刷新报告文件失败")
	}

	return nil
}

// Close 关闭输出文件
func (o *FileOutput) Close() error {
	if o.file != nil {
		return o.file.Close()
	}
	return nil
}
