package pipeline

import (
	"context"
	"math/big"
	"sync"

	"soundcheck/internal/commitment"
	"soundcheck/internal/comparator"
	"soundcheck/internal/observer"
	"soundcheck/internal/provider"
	"soundcheck/internal/resolver"
	"soundcheck/pkg/models"

	"github.com/sirupsen/logrus"
)

// Result 一次校验的结果
// 单节点与双节点交叉校验为两个不同的具体类型，调用方无法读取
// 从未计算过的比对结论
type Result interface {
	Results() []models.ProviderResult
}

// SingleResult 仅配置主节点时的结果
type SingleResult struct {
	Primary models.ProviderResult
}

// Results 返回所有节点结果
func (r *SingleResult) Results() []models.ProviderResult {
	return []models.ProviderResult{r.Primary}
}

// CrossCheckedResult 双节点交叉校验的结果
type CrossCheckedResult struct {
	Primary   models.ProviderResult
	Secondary models.ProviderResult
	Verdict   models.ComparisonVerdict
}

// Results 返回所有节点结果
func (r *CrossCheckedResult) Results() []models.ProviderResult {
	return []models.ProviderResult{r.Primary, r.Secondary}
}

// Node 流水线可操作的节点连接
// *provider.Provider 满足该接口，测试中以假实现替代
type Node interface {
	Label() string
	Connect(ctx context.Context) error
	Client() provider.RPCClient
	Close()
}

// Runner 校验流水线执行器
type Runner struct {
	logger *logrus.Logger
}

// NewRunner 创建流水线执行器
func NewRunner(logger *logrus.Logger) *Runner {
	return &Runner{logger: logger}
}

// Run 对每个节点执行 解析→观测→承诺 流水线
// 两条流水线不共享可变状态，并发执行与顺序执行结果一致；任一条
// 失败立即中止整次调用，不完整的交叉校验不作为单节点结果上报
func (r *Runner) Run(ctx context.Context, primary, secondary Node, address string, slot *big.Int, ref models.BlockReference) (Result, error) {
	if secondary == nil {
		result, err := r.runProvider(ctx, primary, address, slot, ref)
		if err != nil {
			return nil, err
		}
		return &SingleResult{Primary: result}, nil
	}

	if !ref.Numeric {
		r.logger.Warnf("区块引用为符号标签 %q，两个节点各自解析，可能固定到不同高度；如需严格交叉校验请指定显式区块号", ref.Tag)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type pipelineOutcome struct {
		result models.ProviderResult
		err    error
	}

	outcomes := make([]pipelineOutcome, 2)
	var wg sync.WaitGroup

	for i, prov := range []Node{primary, secondary} {
		wg.Add(1)
		go func(idx int, p Node) {
			defer wg.Done()
			result, err := r.runProvider(runCtx, p, address, slot, ref)
			outcomes[idx] = pipelineOutcome{result: result, err: err}
			if err != nil {
				// 快速失败: 中止另一条流水线
				cancel()
			}
		}(i, prov)
	}

	wg.Wait()

	for _, outcome := range outcomes {
		if outcome.err != nil {
			return nil, outcome.err
		}
	}

	verdict := comparator.Compare(outcomes[0].result, outcomes[1].result)
	if !verdict.Overall() {
		r.logger.Warnf("交叉校验发现不一致: chain=%t height=%t value=%t commitment=%t",
			verdict.ChainMatch, verdict.HeightMatch, verdict.ValueMatch, verdict.CommitmentMatch)
	}

	return &CrossCheckedResult{
		Primary:   outcomes[0].result,
		Secondary: outcomes[1].result,
		Verdict:   verdict,
	}, nil
}

// runProvider 执行单个节点的流水线
func (r *Runner) runProvider(ctx context.Context, prov Node, address string, slot *big.Int, ref models.BlockReference) (models.ProviderResult, error) {
	if err := prov.Connect(ctx); err != nil {
		return models.ProviderResult{}, err
	}
	defer prov.Close()

	client := prov.Client()

	height, err := resolver.Resolve(ctx, client, ref)
	if err != nil {
		return models.ProviderResult{}, err
	}

	r.logger.Debugf("节点 %s 区块引用 %s 解析为高度 %d", prov.Label(), ref.String(), height)

	obs, err := observer.Observe(ctx, client, address, slot, height)
	if err != nil {
		return models.ProviderResult{}, err
	}

	result := models.ProviderResult{
		Provider:    prov.Label(),
		Observation: obs,
		Commitment:  commitment.Commit(obs),
	}

	r.logger.Debugf("节点 %s 观测完成: chain=%d height=%d commitment=%s",
		prov.Label(), obs.ChainID, obs.Height, result.Commitment.Hex())

	return result, nil
}
