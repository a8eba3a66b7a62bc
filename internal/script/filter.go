// Package script runs user-supplied tengo predicates that decide which chat
// events take part in a conversion.
//
// A filter script sees the variables author, body, moderator and offset
// (seconds) and assigns keep. keep starts out true:
//
//	keep = !moderator && len(body) > 3
package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/nfrund/chatsubs/internal/domain"
)

const keepVar = "keep"

// Filter is a compiled filter script. Keep may be called from several
// goroutines; runs are serialized because a compiled tengo program holds
// its globals.
type Filter struct {
	name   string
	limits SecurityLimits
	logger *slog.Logger

	mu       sync.Mutex
	compiled *tengo.Compiled
}

// Compile prepares src for execution. name identifies the script in errors
// and logs.
func Compile(name string, src []byte, limits SecurityLimits, logger *slog.Logger) (*Filter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Filter{name: name, limits: limits, logger: logger}

	s := tengo.NewScript(src)
	s.SetImports(buildModuleMap(limits.AllowedPackages))

	inputs := map[string]interface{}{
		"author":    "",
		"body":      "",
		"moderator": false,
		"offset":    0.0,
		keepVar:     true,
	}
	for k, v := range inputs {
		if err := s.Add(k, v); err != nil {
			return nil, NewScriptError(ErrorTypeCompilation, name, "failed to declare "+k, err)
		}
	}
	if err := s.Add("log", f.logFunc()); err != nil {
		return nil, NewScriptError(ErrorTypeCompilation, name, "failed to add log function", err)
	}

	compiled, err := s.Compile()
	if err != nil {
		return nil, NewScriptError(ErrorTypeCompilation, name, "failed to compile filter", err)
	}
	f.compiled = compiled

	logger.Debug("Filter script compiled", "script", name)
	return f, nil
}

// Keep runs the script for ev and reports whether the event should be kept.
func (f *Filter) Keep(ev domain.ChatEvent) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	vars := map[string]interface{}{
		"author":    ev.Author,
		"body":      ev.Body,
		"moderator": ev.Moderator,
		"offset":    ev.Offset.Seconds(),
		keepVar:     true,
	}
	for k, v := range vars {
		if err := f.compiled.Set(k, v); err != nil {
			return false, NewScriptError(ErrorTypeExecution, f.name, "failed to set "+k, err)
		}
	}

	ctx := context.Background()
	if f.limits.MaxExecutionTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.limits.MaxExecutionTime)
		defer cancel()
	}
	if err := f.compiled.RunContext(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return false, NewScriptError(ErrorTypeTimeout, f.name, "filter timed out", err)
		}
		return false, NewScriptError(ErrorTypeExecution, f.name, "filter failed", err)
	}

	keep := f.compiled.Get(keepVar)
	if _, ok := keep.Value().(bool); !ok {
		return false, NewScriptError(ErrorTypeInvalidKeep, f.name,
			fmt.Sprintf("keep must be a bool, got %s", keep.ValueType()), nil)
	}
	return keep.Bool(), nil
}

// buildModuleMap creates the allowed modules map based on security limits
func buildModuleMap(allowed []string) *tengo.ModuleMap {
	modules := tengo.NewModuleMap()
	for _, pkg := range allowed {
		if module, exists := stdlib.BuiltinModules[pkg]; exists {
			modules.AddBuiltinModule(pkg, module)
		}
	}
	return modules
}

// logFunc lets scripts write to the structured logger.
func (f *Filter) logFunc() *tengo.UserFunction {
	return &tengo.UserFunction{
		Name: "log",
		Value: func(args ...tengo.Object) (tengo.Object, error) {
			if len(args) != 1 {
				return nil, tengo.ErrWrongNumArguments
			}
			msg := args[0].String()
			if s, ok := args[0].(*tengo.String); ok {
				msg = s.Value
			}
			f.logger.Info("Script log", "message", msg, "script", f.name)
			return tengo.UndefinedValue, nil
		},
	}
}
