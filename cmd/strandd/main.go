// Command strandd is a small demonstration host for the strand engine: it
// wires a DefaultKernel to a loopapi.Loop through a samber/do injector,
// the way meet-ai-echo-lang's module constructors wire services off a
// shared *do.Injector, and runs a fan-out coroutine tree translating
// resonatehq-gocoro's example/main.go foo/bar/baz demo into this
// package's ApiCall/Awaitable vocabulary.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/samber/do"

	"github.com/strandhq/strand"
	"github.com/strandhq/strand/internal/config"
	"github.com/strandhq/strand/internal/loopapi"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load(".")
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}

	injector := do.New()
	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger)
	do.Provide(injector, func(i *do.Injector) (*loopapi.Loop, error) {
		c := do.MustInvoke[config.Config](i)
		return loopapi.NewLoop(c.LoopCapacity), nil
	})
	do.Provide(injector, func(i *do.Injector) (*strand.DefaultKernel, error) {
		c := do.MustInvoke[config.Config](i)
		log := do.MustInvoke[*slog.Logger](i)
		return strand.NewDefaultKernel(c.KernelQueueSize, log), nil
	})

	loop := do.MustInvoke[*loopapi.Loop](injector)
	kernel := do.MustInvoke[*strand.DefaultKernel](injector)

	for w := 0; w < cfg.Workers; w++ {
		go loop.Worker()
	}

	var opts []strand.Option
	if cfg.TraceEnabled {
		opts = append(opts, strand.WithTracing())
	}

	root, err := kernel.Execute(fanOut(kernel, loop, logger, 3), loop, opts...)
	if err != nil {
		logger.Error("failed to start fan-out", "error", err)
		os.Exit(1)
	}

	for !root.HasExited() {
		loop.Drain()
		time.Sleep(time.Millisecond)
	}
	loop.Shutdown()

	value, failure, _ := kernel.Result(root.ID())
	if failure != nil {
		logger.Error("fan-out failed", "error", failure)
		os.Exit(1)
	}
	logger.Info("fan-out complete", "value", value)
}

// fanOut mirrors resonatehq-gocoro's example coroutine: two cooperate
// jobs run on the loop's worker pool, then a child strand is spawned for
// the n-1 case and awaited, and the three results are joined.
func fanOut(kernel strand.Kernel, api strand.Api, log *slog.Logger, n int) strand.Body {
	return func(h *strand.Handle) (any, error) {
		log.Info("coroutine", "n", n)
		if n == 0 {
			return "", nil
		}

		foo, err := h.Yield(strand.ApiCall{
			Name: "cooperate",
			Args: []any{func() (any, error) { return fmt.Sprintf("foo.%d", n), nil }},
		})
		if err != nil {
			return nil, err
		}

		bar, err := h.Yield(strand.ApiCall{
			Name: "cooperate",
			Args: []any{func() (any, error) { return fmt.Sprintf("bar.%d", n), nil }},
		})
		if err != nil {
			return nil, err
		}

		child, err := kernel.Execute(fanOut(kernel, api, log, n-1), api)
		if err != nil {
			return nil, err
		}

		baz, err := h.Yield(child.Awaitable())
		if err != nil {
			return nil, err
		}

		return fmt.Sprintf("%v:%v:%v", foo, bar, baz), nil
	}
}
