// Package script runs JavaScript on goja: actor scripts written in JS, and a
// pooled sandbox for debug expressions against the live world.
package script

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
	"github.com/kasuganosora/actorai/game/ai"
	"go.uber.org/zap"
)

// ErrTimeout is returned when a script exceeds the execution time limit.
var ErrTimeout = errors.New("script: execution timed out")

// ErrPanic is returned when Go code called from a script panics.
var ErrPanic = errors.New("script: uncaught exception")

// VMPool is a thread-safe pool of pre-initialised goja runtimes.
type VMPool struct {
	pool    chan *goja.Runtime
	timeout time.Duration
	logger  *zap.Logger
	size    int
}

// NewVMPool creates a VMPool with the given concurrency size and per-run timeout.
func NewVMPool(size int, timeout time.Duration, logger *zap.Logger) *VMPool {
	if size <= 0 {
		size = 2
	}
	if timeout <= 0 {
		timeout = 200 * time.Millisecond
	}
	p := &VMPool{
		pool:    make(chan *goja.Runtime, size),
		timeout: timeout,
		logger:  logger,
		size:    size,
	}
	for i := 0; i < size; i++ {
		p.pool <- newSafeVM()
	}
	return p
}

// Run executes src inside a pooled VM. When w is non-nil the flag, variable
// and actor globals are bound to it for the duration of the run. The caller
// must hold whatever lock guards w.
func (p *VMPool) Run(ctx context.Context, src string, w ai.World) (interface{}, error) {
	select {
	case vm := <-p.pool:
		// returnToPool is cleared by runVM when the VM is tainted by a
		// timeout and must be discarded rather than returned to the pool.
		returnToPool := true
		defer func() {
			if returnToPool {
				p.pool <- vm
			}
		}()
		return p.runVM(vm, src, w, &returnToPool)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *VMPool) runVM(vm *goja.Runtime, src string, w ai.World, returnToPool *bool) (interface{}, error) {
	bindWorld(vm, w)
	defer bindWorld(vm, nil)

	timer := time.AfterFunc(p.timeout, func() {
		vm.Interrupt(ErrTimeout)
	})
	defer func() {
		timer.Stop()
		if *returnToPool {
			vm.ClearInterrupt()
		}
	}()

	var result goja.Value
	var runErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				runErr = fmt.Errorf("%w: %v", ErrPanic, r)
			}
		}()
		result, runErr = vm.RunString(src)
	}()

	if runErr != nil {
		if errors.Is(runErr, ErrTimeout) {
			// VM is tainted after an interrupt; discard it and add a fresh one.
			*returnToPool = false
			p.pool <- newSafeVM()
			return nil, ErrTimeout
		}
		var ex *goja.Exception
		if errors.As(runErr, &ex) {
			return nil, errors.New(ex.Error())
		}
		return nil, runErr
	}

	if result == nil || goja.IsUndefined(result) || goja.IsNull(result) {
		return nil, nil
	}
	return result.Export(), nil
}

// newSafeVM creates a goja Runtime with dangerous globals removed.
func newSafeVM() *goja.Runtime {
	vm := goja.New()
	for _, name := range []string{"require", "process", "fetch", "XMLHttpRequest", "eval", "Function"} {
		vm.Set(name, goja.Undefined())
	}
	// Math.random is replaced by world.random so replays stay deterministic.
	mathObj := vm.NewObject()
	_ = mathObj.Set("floor", func(v float64) float64 { return float64(int64(v)) })
	_ = mathObj.Set("ceil", func(v float64) float64 {
		n := int64(v)
		if float64(n) < v {
			n++
		}
		return float64(n)
	})
	_ = mathObj.Set("round", func(v float64) int64 { return int64(v + 0.5) })
	_ = mathObj.Set("abs", func(v float64) float64 {
		if v < 0 {
			return -v
		}
		return v
	})
	_ = mathObj.Set("max", func(a, b float64) float64 { return max(a, b) })
	_ = mathObj.Set("min", func(a, b float64) float64 { return min(a, b) })
	vm.Set("Math", mathObj)
	return vm
}

// bindWorld exposes w to debug expressions as $gameSwitches (flags),
// $gameVariables and $actors. A nil w removes them again.
func bindWorld(vm *goja.Runtime, w ai.World) {
	if w == nil {
		for _, name := range []string{"$gameSwitches", "$gameVariables", "$actors"} {
			vm.Set(name, goja.Undefined())
		}
		return
	}

	sw := vm.NewObject()
	_ = sw.Set("value", func(id int) bool { return w.FlagQuery(id) })
	_ = sw.Set("setValue", func(id int, v bool) {
		if v {
			w.FlagSet(id)
		} else {
			w.FlagReset(id)
		}
	})
	vm.Set("$gameSwitches", sw)

	vars := vm.NewObject()
	_ = vars.Set("value", func(id int) int { return w.VariableQuery(id) })
	_ = vars.Set("setValue", func(id, v int) { w.VariableSet(id, v) })
	vm.Set("$gameVariables", vars)

	actors := vm.NewObject()
	_ = actors.Set("goal", func(id int) int { return w.Goal(ai.ActorID(id)) })
	_ = actors.Set("setGoal", func(id, goal int) { w.SetGoal(ai.ActorID(id), goal) })
	_ = actors.Set("set", func(id int) int { return w.SetOf(ai.ActorID(id)) })
	_ = actors.Set("health", func(id int) int { return w.Health(ai.ActorID(id)) })
	_ = actors.Set("inCombat", func(id int) bool { return w.InCombat(ai.ActorID(id)) })
	_ = actors.Set("friendliness", func(id, other int) int {
		return w.Friendliness(ai.ActorID(id), ai.ActorID(other))
	})
	vm.Set("$actors", actors)
}

// Sandbox wraps a VMPool for debug-console expressions.
type Sandbox struct {
	pool   *VMPool
	logger *zap.Logger
}

// NewSandbox creates a Sandbox backed by a VMPool.
func NewSandbox(size int, timeout time.Duration, logger *zap.Logger) *Sandbox {
	return &Sandbox{
		pool:   NewVMPool(size, timeout, logger),
		logger: logger,
	}
}

// Eval executes src against w, returning the value of the last expression.
func (sb *Sandbox) Eval(ctx context.Context, src string, w ai.World) (interface{}, error) {
	result, err := sb.pool.Run(ctx, src, w)
	if err != nil {
		sb.logger.Warn("script execution error",
			zap.String("src_preview", truncate(src, 80)),
			zap.Error(err))
	}
	return result, err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
