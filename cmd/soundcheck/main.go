package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"soundcheck/internal/config"
	"soundcheck/internal/errors"
	"soundcheck/internal/history"
	"soundcheck/internal/output"
	"soundcheck/internal/pipeline"
	"soundcheck/internal/provider"
	"soundcheck/internal/validation"
	"soundcheck/pkg/models"
)

var (
	// 基础参数
	primaryURL   string
	secondaryURL string
	format       string

	// 高级参数
	configFile string
	verbose    bool
	noHistory  bool
	timeout    time.Duration

	// 历史查询参数
	historyLimit int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "soundcheck <address> <slot> [block-ref]",
		Short: "存储槽健全性交叉校验工具",
		Long: `对以太坊合约存储槽执行独立观测与keccak-256承诺计算，
可配置两个RPC节点对同一观测做交叉校验，发现节点间的不一致`,
		Args: cobra.RangeArgs(2, 3),
		RunE: run,
	}

	// 基础参数
	rootCmd.Flags().StringVar(&primaryURL, "rpc-url", "", "主节点RPC地址（覆盖配置）")
	rootCmd.Flags().StringVar(&secondaryURL, "rpc-url-2", "", "副节点RPC地址（覆盖配置，启用交叉校验）")
	rootCmd.Flags().StringVar(&format, "format", "", "输出格式 (console, json, kafka)")

	// 高级参数
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "configs/config.yaml", "配置文件路径")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "详细输出")
	rootCmd.Flags().BoolVar(&noHistory, "no-history", false, "不写入承诺历史库")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "单次校验总超时")

	// 历史查询子命令
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "查看承诺历史记录",
		RunE:  showHistory,
	}
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "最多显示条数")

	rootCmd.AddCommand(historyCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "执行失败: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger
}

func run(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	logger := newLogger()

	// 先校验输入，再触碰网络
	slot, err := validation.ParseSlot(args[1])
	if err != nil {
		return err
	}

	refArg := ""
	if len(args) == 3 {
		refArg = args[2]
	}
	ref, err := validation.ParseBlockReference(refArg)
	if err != nil {
		return err
	}

	if _, err := validation.ParseAddress(args[0]); err != nil {
		return err
	}

	// 加载配置
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	applyFlagOverrides(cfg)

	if err := config.ValidateConfig(cfg); err != nil {
		return errors.WrapError(err, errors.ErrorTypeConfig, errors.SeverityCritical,
			"INVALID_CONFIG", "配置校验失败")
	}

	// 创建输出器
	outputter, err := output.NewOutput(cfg.Output, logger)
	if err != nil {
		return fmt.Errorf("创建输出器失败: %w", err)
	}
	defer outputter.Close()

	primary := provider.NewProvider(cfg.Providers.Primary, logger)

	// 副节点缺省时传入接口零值，流水线走单节点路径
	var secondary pipeline.Node
	if cfg.Providers.Secondary != nil {
		secondary = provider.NewProvider(cfg.Providers.Secondary, logger)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	runner := pipeline.NewRunner(logger)
	result, err := runner.Run(ctx, primary, secondary, args[0], slot, ref)
	if err != nil {
		return err
	}

	// 构建报告
	report := &models.VerificationReport{CreatedAt: time.Now()}
	for i := range result.Results() {
		r := result.Results()[i]
		report.Observations = append(report.Observations, models.NewObservationReport(&r))
	}
	if crossChecked, ok := result.(*pipeline.CrossCheckedResult); ok {
		report.Verdict = models.NewVerdictReport(crossChecked.Verdict)
	}

	if err := outputter.WriteReport(report); err != nil {
		return fmt.Errorf("写入报告失败: %w", err)
	}

	// 写入承诺历史库；交叉不一致不影响历史记录
	if cfg.History != nil && cfg.History.Enabled && !noHistory {
		recordHistory(cfg, result, logger)
	}

	// 交叉校验不通过属于正常结论，不作为错误退出
	return nil
}

// applyFlagOverrides 命令行参数覆盖配置
func applyFlagOverrides(cfg *config.Config) {
	if primaryURL != "" {
		if cfg.Providers == nil {
			cfg.Providers = &config.ProvidersConfig{}
		}
		if cfg.Providers.Primary == nil {
			cfg.Providers.Primary = &config.ProviderConfig{Name: "primary"}
		}
		cfg.Providers.Primary.URL = primaryURL
	}

	if secondaryURL != "" {
		if cfg.Providers.Secondary == nil {
			cfg.Providers.Secondary = &config.ProviderConfig{Name: "secondary"}
		}
		cfg.Providers.Secondary.URL = secondaryURL
	}

	if format != "" {
		if cfg.Output == nil {
			cfg.Output = &config.OutputConfig{}
		}
		cfg.Output.Format = format
	}
}

// recordHistory 将各节点承诺写入历史库，并提示与既往记录的漂移
func recordHistory(cfg *config.Config, result pipeline.Result, logger *logrus.Logger) {
	store, err := history.NewStore(cfg.History.Path, logger)
	if err != nil {
		logger.Warnf("打开历史库失败，跳过记录: %v", err)
		return
	}
	defer store.Close()

	for i := range result.Results() {
		r := result.Results()[i]
		drifted, err := store.Record(&r)
		if err != nil {
			logger.Warnf("写入历史记录失败: %v", err)
			continue
		}
		if drifted != nil {
			logger.Warnf("⚠️  承诺漂移: 同一观测坐标既往承诺为 %s（首见于 %s，节点 %s），本次为 %s",
				drifted.Commitment, drifted.FirstSeen.Format(time.RFC3339), drifted.Provider, r.Commitment.Hex())
		}
	}
}

// showHistory 显示承诺历史记录
func showHistory(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	logger := newLogger()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	if cfg.History == nil || cfg.History.Path == "" {
		return fmt.Errorf("未配置承诺历史库路径")
	}

	store, err := history.NewStore(cfg.History.Path, logger)
	if err != nil {
		return fmt.Errorf("打开历史库失败: %w", err)
	}
	defer store.Close()

	records, err := store.List(historyLimit)
	if err != nil {
		return fmt.Errorf("读取历史记录失败: %w", err)
	}

	stats, err := store.Stats()
	if err != nil {
		return fmt.Errorf("读取历史统计失败: %w", err)
	}

	fmt.Println("📊 承诺历史记录")
	fmt.Println(strings.Repeat("=", 50))
	for key, value := range stats {
		fmt.Printf("%-20s: %v\n", key, value)
	}
	fmt.Println(strings.Repeat("-", 50))

	for _, record := range records {
		fmt.Printf("[%s] chain=%d %s slot=%s height=%d\n",
			record.FirstSeen.Format("2006-01-02 15:04:05"), record.ChainID,
			record.Address, record.SlotHex, record.Height)
		fmt.Printf("  承诺: %s (节点: %s)\n", record.Commitment, record.Provider)
	}

	return nil
}
