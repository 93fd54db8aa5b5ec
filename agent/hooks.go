package agent

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/lurker/internal/log"
)

const hookDispatchScript = `
if __phase == "enter" {
	onEnter(__engine, __state)
}
`

// Hooks runs a designer script on every state entry. The script defines
// onEnter(engine, state); engine exposes the new state, the previous one,
// lockdown, kind, volume and a cue(name) function that forwards to the
// animator when it implements CueSink.
type Hooks struct {
	name      string
	compiled  *tengo.Compiled
	stateData *tengo.Map
	logger    *slog.Logger
}

// CompileHooks compiles src once. Clone it per agent.
func CompileHooks(name string, src []byte) (*Hooks, error) {
	script := tengo.NewScript([]byte(string(src) + "\n" + hookDispatchScript))
	_ = script.Add("__phase", "")
	_ = script.Add("__engine", map[string]any{})
	_ = script.Add("__state", map[string]any{})
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("agent: compile hooks %s: %w", name, err)
	}
	return &Hooks{
		name:      name,
		compiled:  compiled,
		stateData: &tengo.Map{Value: map[string]tengo.Object{}},
		logger:    log.With("component", "hooks", "script", name),
	}, nil
}

// Clone returns hooks with their own VM globals and script state.
func (h *Hooks) Clone() *Hooks {
	if h == nil {
		return nil
	}
	return &Hooks{
		name:      h.name,
		compiled:  h.compiled.Clone(),
		stateData: &tengo.Map{Value: map[string]tengo.Object{}},
		logger:    h.logger,
	}
}

// OnEnter runs the script for a's current state. Errors are logged and
// never interrupt the state machine.
func (h *Hooks) OnEnter(a *Agent, previous string) {
	if h == nil || h.compiled == nil || a == nil {
		return
	}
	if err := h.run("enter", h.engine(a, previous)); err != nil {
		h.logger.Warn("onEnter failed", "agent", a.id.String(), "state", a.State().String(), "err", err)
	}
}

func (h *Hooks) run(phase string, engine *tengo.ImmutableMap) error {
	if err := h.compiled.Set("__phase", phase); err != nil {
		return err
	}
	if err := h.compiled.Set("__engine", engine); err != nil {
		return err
	}
	if err := h.compiled.Set("__state", h.stateData); err != nil {
		return err
	}
	return h.compiled.Run()
}

func (h *Hooks) engine(a *Agent, previous string) *tengo.ImmutableMap {
	values := map[string]tengo.Object{
		"state":    &tengo.String{Value: a.State().String()},
		"previous": &tengo.String{Value: previous},
		"kind":     &tengo.String{Value: a.kind.String()},
		"room":     &tengo.String{Value: a.room},
		"volume":   &tengo.Float{Value: a.volume},
		"lockdown": tengo.FalseValue,
	}
	if a.lockdown {
		values["lockdown"] = tengo.TrueValue
	}

	values["cue"] = &tengo.UserFunction{Name: "cue", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.FalseValue, nil
		}
		name, ok := tengo.ToString(args[0])
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return tengo.FalseValue, nil
		}
		sink, ok := a.anim.(CueSink)
		if !ok {
			return tengo.FalseValue, nil
		}
		sink.Cue(name)
		return tengo.TrueValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}
