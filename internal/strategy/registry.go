package strategy

import (
	"errors"
	"fmt"
)

var ErrUnknownMode = errors.New("unknown mode")

// Factory constructs a strategy bound to env. It must not register timers;
// that happens in Start.
type Factory func(env Env) Strategy

var factories = map[string]Factory{
	"linear":    func(env Env) Strategy { return NewLinear(env) },
	"radial":    func(env Env) Strategy { return NewRadial(env) },
	"starfield": func(env Env) Strategy { return NewStarfield(env) },
	"network":   func(env Env) Strategy { return NewNetwork(env) },
	"clusters":  func(env Env) Strategy { return NewClusters(env) },
}

var names = []string{"linear", "radial", "starfield", "network", "clusters"}

func Lookup(name string) (Factory, error) {
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMode, name)
	}
	return f, nil
}

// Names lists the modes in menu order.
func Names() []string {
	out := make([]string, len(names))
	copy(out, names)
	return out
}
