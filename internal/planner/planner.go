// Package planner compiles the chains of every loaded product into ordered
// execution graphs.
package planner

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/sourceplane/datachain/internal/compiler"
	"github.com/sourceplane/datachain/internal/ctxlog"
	"github.com/sourceplane/datachain/internal/metrics"
	"github.com/sourceplane/datachain/internal/model"
	"golang.org/x/sync/errgroup"
)

// CompiledChain is a chain's graph together with where it came from
type CompiledChain struct {
	Product string
	Source  string
	Chain   model.Chain
	Graph   *model.Graph
	Order   []string
}

// ChainPlanner compiles chains and records compile metrics
type ChainPlanner struct {
	metrics *metrics.Registry
}

// NewChainPlanner creates a planner. A nil registry means the process-wide one.
func NewChainPlanner(reg *metrics.Registry) *ChainPlanner {
	if reg == nil {
		reg = metrics.DefaultRegistry()
	}
	return &ChainPlanner{metrics: reg}
}

// orderGraph orders a compiled graph; tests replace it
var orderGraph = compiler.TopologicalOrder

// CheckChainNames reports the first chain name defined more than once across
// products. Run it over every product before narrowing the set, since a
// narrowed set can hide a clash.
func CheckChainNames(products []*model.Product) error {
	owners := make(map[string]*model.Product)
	for _, product := range products {
		for _, chain := range product.Chains {
			if first, exists := owners[chain.Name]; exists {
				return fmt.Errorf("duplicate chain name %q: defined by product %s (%s) and product %s (%s)",
					chain.Name, first.Name, first.Source, product.Name, product.Source)
			}
			owners[chain.Name] = product
		}
	}
	return nil
}

// Plan compiles every chain of every product. Chain names must be unique
// across all products. Results are sorted by chain name.
func (cp *ChainPlanner) Plan(ctx context.Context, products []*model.Product) ([]*CompiledChain, error) {
	logger := ctxlog.FromContext(ctx)

	if err := CheckChainNames(products); err != nil {
		return nil, err
	}

	var chains []model.Chain
	var origin []*model.Product
	for _, product := range products {
		for _, chain := range product.Chains {
			chains = append(chains, chain)
			origin = append(origin, product)
		}
	}

	compiled, err := cp.CompileAll(ctx, chains)
	if err != nil {
		return nil, err
	}

	for i, cc := range compiled {
		cc.Product = origin[i].Name
		cc.Source = origin[i].Source
		logger.Debug("chain compiled",
			"chain", cc.Graph.Chain,
			"product", cc.Product,
			"nodes", len(cc.Graph.Nodes),
			"edges", len(cc.Graph.Edges))
	}

	sort.Slice(compiled, func(i, j int) bool {
		return compiled[i].Graph.Chain < compiled[j].Graph.Chain
	})

	logger.Info("plan compiled", "products", len(products), "chains", len(compiled))
	return compiled, nil
}

// CompileAll compiles and orders chains concurrently. Results are returned in
// input order with Product and Source left empty. The first failure cancels
// chains not yet started; among the chains that did fail, the one earliest in
// the input is reported. Each chain is counted once in the metrics, as a
// success only when both compiling and ordering succeed.
func (cp *ChainPlanner) CompileAll(ctx context.Context, chains []model.Chain) ([]*CompiledChain, error) {
	logger := ctxlog.FromContext(ctx)

	compiled := make([]*CompiledChain, len(chains))
	errs := make([]error, len(chains))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := range chains {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				errs[i] = err
				return err
			}

			start := time.Now()
			cc, err := compileChain(chains[i])
			duration := time.Since(start)
			if err != nil {
				cp.metrics.RecordCompileError(errorReason(err), duration)
				logger.Warn("chain failed to compile", "chain", chains[i].Name, "error", err)
				errs[i] = err
				return err
			}

			cp.metrics.RecordCompile(duration, len(cc.Graph.Nodes))
			compiled[i] = cc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		for _, e := range errs {
			if e != nil && !errors.Is(e, context.Canceled) {
				return nil, e
			}
		}
		return nil, err
	}

	return compiled, nil
}

func compileChain(chain model.Chain) (*CompiledChain, error) {
	graph, err := compiler.Compile(chain)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chain %s: %w", chain.Name, err)
	}
	order, err := orderGraph(graph)
	if err != nil {
		return nil, fmt.Errorf("failed to order chain %s: %w", chain.Name, err)
	}
	return &CompiledChain{Chain: chain, Graph: graph, Order: order}, nil
}

// errorReason maps compiler errors to a metric label
func errorReason(err error) string {
	switch {
	case errors.Is(err, compiler.ErrEmptyChain):
		return "empty_chain"
	case errors.Is(err, compiler.ErrInvalidChain):
		return "invalid_chain"
	case errors.Is(err, compiler.ErrDuplicateStepName):
		return "duplicate_step_name"
	case errors.Is(err, compiler.ErrDependency):
		return "dependency"
	case errors.Is(err, compiler.ErrMalformedGraph):
		return "malformed_graph"
	default:
		return "other"
	}
}
