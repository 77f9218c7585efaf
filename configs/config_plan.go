// Package configs holds the YAML patch-plan schema: which methods of which
// owners get hooked, and what each hookpoint does.
package configs

// Config is the on-disk patch plan.
//
//	hookpoints:
//	  webHandler: [GetURL]
//	  dataService: [FetchData]
//	actions:
//	  dataService.FetchData:
//	    time: true
//	    count: true
type Config struct {
	// Hookpoints maps an owner alias to the methods to patch on it. The
	// alias is resolved to a live type by the caller applying the plan.
	Hookpoints map[string][]string `yaml:"hookpoints"`
	// Actions maps "alias.Method" signatures to the hooks installed there.
	// A hookpoint without an action entry defaults to logging.
	Actions map[string]Action `yaml:"actions"`
}

// Action selects the hooks installed at one hookpoint.
type Action struct {
	Log   bool `yaml:"log"`
	Time  bool `yaml:"time"`
	Count bool `yaml:"count"`
}

// Signatures returns the hookpoints as alias -> method set.
func (c *Config) Signatures() map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{}, len(c.Hookpoints))
	for alias, methods := range c.Hookpoints {
		out[alias] = make(map[string]struct{}, len(methods))
		for _, m := range methods {
			out[alias][m] = struct{}{}
		}
	}
	return out
}

// ActionFor returns the action for an "alias.Method" signature, defaulting
// to logging when the plan names none.
func (c *Config) ActionFor(signature string) Action {
	if a, ok := c.Actions[signature]; ok {
		return a
	}
	return Action{Log: true}
}
