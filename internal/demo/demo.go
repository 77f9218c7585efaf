// Package demo runs the interception scenarios end to end against a live
// registry: a validation guard, call timing, a fixed-URL replacement,
// subclass isolation, and lifecycle logging.
package demo

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seafloor/methodpatch/hooks"
	"github.com/seafloor/methodpatch/internal/log"
	"github.com/seafloor/methodpatch/internal/plan"
	"github.com/seafloor/methodpatch/patch"
)

var DemoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the interception scenarios.",
	RunE:  demoEntry,
}

var flagPlan string

func init() {
	DemoCmd.Flags().StringVar(&flagPlan, "plan", "", "YAML patch plan to apply before the scenarios")
}

func demoEntry(cmd *cobra.Command, args []string) error {
	if log.Default() == nil {
		log.InitLog(false)
	}
	lg := log.Default().Logger

	reg := patch.New()
	if flagPlan != "" {
		cfg, err := plan.Load(flagPlan)
		if err != nil {
			return err
		}
		res, err := plan.Apply(reg, cfg, Owners(), lg)
		if err != nil {
			return err
		}
		defer func() {
			for alias, methods := range cfg.Hookpoints {
				for _, m := range methods {
					lg.Info("plan counter",
						zap.String("hookpoint", alias+"."+m),
						zap.Int64("calls", res.Counter.Get(m)),
					)
				}
			}
		}()
	}

	return runScenarios(reg, lg)
}

func runScenarios(reg *patch.Registry, lg *zap.Logger) error {
	for _, s := range []struct {
		name string
		run  func(*patch.Registry, *zap.Logger) error
	}{
		{"bounds guard", boundsGuard},
		{"call timing", callTiming},
		{"fixed url replacement", fixedURL},
		{"subclass isolation", subclassIsolation},
		{"lifecycle logging", lifecycleLogging},
	} {
		if err := s.run(reg, lg); err != nil {
			return errors.Wrapf(err, "scenario %q", s.name)
		}
		lg.Info("scenario passed", zap.String("scenario", s.name))
	}
	return nil
}

// boundsGuard aborts an out-of-range element access before the slice is
// ever touched.
func boundsGuard(reg *patch.Registry, lg *zap.Logger) error {
	_, err := reg.AddBefore(ElementStore{}, "ElementAt", false, hooks.Guard(func(c *patch.Call) error {
		store := c.Target.(ElementStore)
		idx := c.Args[0].(int)
		if idx < 0 || idx >= len(store.Items) {
			return errors.Errorf("index %d out of range [0, %d)", idx, len(store.Items))
		}
		return nil
	}))
	if err != nil {
		return err
	}

	store := ElementStore{Items: []int{1, 2, 3}}
	if _, err := reg.Call(store, "ElementAt", 10); err == nil {
		return errors.New("out-of-range access was not aborted")
	} else {
		lg.Info("guard aborted the call", zap.String("reason", err.Error()))
	}

	out, err := reg.Call(store, "ElementAt", 1)
	if err != nil {
		return err
	}
	lg.Info("in-range access passed", zap.Int("element", out[0].(int)))
	return nil
}

// callTiming wraps FetchData with a start-time before-hook and an
// elapsed-time after-hook.
func callTiming(reg *patch.Registry, lg *zap.Logger) error {
	before, after := hooks.Timing(func(method string, d time.Duration) {
		lg.Info("method timed",
			zap.String("method", method),
			zap.Duration("elapsed", d),
		)
	})
	if _, err := reg.AddBefore(DataService{}, "FetchData", false, before); err != nil {
		return err
	}
	if _, err := reg.AddAfter(DataService{}, "FetchData", false, after); err != nil {
		return err
	}

	_, err := reg.Call(DataService{}, "FetchData")
	return err
}

// fixedURL replaces WebHandler.GetURL with a body returning a fixed string.
func fixedURL(reg *patch.Registry, lg *zap.Logger) error {
	const fixed = "https://mock.example.com/api"
	if _, err := reg.Replace(WebHandler{}, "GetURL", false, func(*patch.Call) ([]interface{}, error) {
		return []interface{}{fixed}, nil
	}); err != nil {
		return err
	}

	for _, path := range []string{"/a", "/b"} {
		out, err := reg.Call(WebHandler{}, "GetURL", path)
		if err != nil {
			return err
		}
		if out[0] != fixed {
			return errors.Errorf("expected %q, got %v", fixed, out[0])
		}
	}
	lg.Info("every call returned the fixed url", zap.String("url", fixed))
	return nil
}

// subclassIsolation patches ChildA only and checks ChildB and the base
// still serve the original data.
func subclassIsolation(reg *patch.Registry, lg *zap.Logger) error {
	if _, err := reg.Replace(ChildA{}, "FetchData", false, func(*patch.Call) ([]interface{}, error) {
		return []interface{}{"child-a data"}, nil
	}); err != nil {
		return err
	}

	for _, tc := range []struct {
		target interface{}
		want   string
	}{
		{ChildA{}, "child-a data"},
		{ChildB{}, "base data"},
		{BaseService{}, "base data"},
	} {
		out, err := reg.Call(tc.target, "FetchData")
		if err != nil {
			return err
		}
		if out[0] != tc.want {
			return errors.Errorf("%T: expected %q, got %v", tc.target, tc.want, out[0])
		}
		lg.Info("fetch data",
			zap.String("target", fmt.Sprintf("%T", tc.target)),
			zap.Any("data", out[0]),
		)
	}
	return nil
}

// lifecycleLogging intercepts the navigation lifecycle method with
// entry/exit logging, the registry treating it like any other method.
func lifecycleLogging(reg *patch.Registry, lg *zap.Logger) error {
	before, after := hooks.Logging(lg)
	if _, err := reg.AddBefore(PageAbility{}, "OnForeground", false, before); err != nil {
		return err
	}
	if _, err := reg.AddAfter(PageAbility{}, "OnForeground", false, after); err != nil {
		return err
	}

	out, err := reg.Call(PageAbility{}, "OnForeground", "/settings")
	if err != nil {
		return err
	}
	lg.Info("lifecycle ran", zap.Any("state", out[0]))
	return nil
}
