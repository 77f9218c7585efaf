// Package plan loads a YAML patch plan and applies it to a live registry.
package plan

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/seafloor/methodpatch/configs"
	"github.com/seafloor/methodpatch/hooks"
	"github.com/seafloor/methodpatch/patch"
)

// Load reads a patch plan from disk.
func Load(path string) (*configs.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read plan")
	}
	var cfg configs.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parse plan")
	}
	return &cfg, nil
}

// Result holds the live stores the applied hooks write into, so the caller
// can read them back after dispatching.
type Result struct {
	Counter *hooks.Counter
}

// Apply installs the plan's hookpoints on reg. Aliases are resolved against
// owners, a caller-supplied map of alias -> owner value. An alias the owners
// map does not know, or a method the owner type does not have, is an error.
func Apply(reg *patch.Registry, cfg *configs.Config, owners map[string]interface{}, lg *zap.Logger) (*Result, error) {
	var counted []string
	for alias, methods := range cfg.Hookpoints {
		if _, ok := owners[alias]; !ok {
			return nil, errors.Errorf("plan: unknown owner alias %q", alias)
		}
		for _, m := range methods {
			if cfg.ActionFor(alias + "." + m).Count {
				counted = append(counted, m)
			}
		}
	}
	res := &Result{Counter: hooks.NewCounter(counted...)}

	for alias, methods := range cfg.Hookpoints {
		owner := owners[alias]
		for _, method := range methods {
			action := cfg.ActionFor(alias + "." + method)
			if err := applyAction(reg, owner, method, action, lg, res); err != nil {
				return nil, errors.Wrapf(err, "plan: hookpoint %s.%s", alias, method)
			}
			lg.Debug("hookpoint installed",
				zap.String("owner", alias),
				zap.String("method", method),
				zap.Bool("log", action.Log),
				zap.Bool("time", action.Time),
				zap.Bool("count", action.Count),
			)
		}
	}
	return res, nil
}

func applyAction(reg *patch.Registry, owner interface{}, method string, action configs.Action, lg *zap.Logger, res *Result) error {
	if action.Log {
		before, after := hooks.Logging(lg)
		if _, err := reg.AddBefore(owner, method, false, before); err != nil {
			return err
		}
		if _, err := reg.AddAfter(owner, method, false, after); err != nil {
			return err
		}
	}
	if action.Time {
		before, after := hooks.Timing(func(m string, d time.Duration) {
			lg.Info("method timed",
				zap.String("method", m),
				zap.Duration("elapsed", d),
			)
		})
		if _, err := reg.AddBefore(owner, method, false, before); err != nil {
			return err
		}
		if _, err := reg.AddAfter(owner, method, false, after); err != nil {
			return err
		}
	}
	if action.Count {
		if _, err := reg.AddAfter(owner, method, false, res.Counter.After()); err != nil {
			return err
		}
	}
	if !action.Log && !action.Time && !action.Count {
		return errors.New("no action selected")
	}
	return nil
}
