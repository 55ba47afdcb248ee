package pushers

import (
	"fmt"
	"sort"

	"github.com/san-kum/plasmakit/internal/plasma"
)

var registry = map[string]func() plasma.Pusher{
	"boris":                   func() plasma.Pusher { return NewBoris() },
	"explicit_boris":          func() plasma.Pusher { return NewBoris() },
	"implicit_boris":          func() plasma.Pusher { return NewImplicitBoris() },
	"implicit_boris_magnetic": func() plasma.Pusher { return NewImplicitMagnetic() },
	"zenitani":                func() plasma.Pusher { return NewZenitani() },
}

// Lookup returns a fresh pusher registered under name.
func Lookup(name string) (plasma.Pusher, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", plasma.ErrUnknownPusher, name, Names())
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupWorkers is Lookup with the pusher's worker count set. workers <= 0
// uses GOMAXPROCS.
func LookupWorkers(name string, workers int) (plasma.Pusher, error) {
	p, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	switch p := p.(type) {
	case *Boris:
		p.Workers = workers
	case *ImplicitBoris:
		p.Workers = workers
	case *ImplicitMagnetic:
		p.Workers = workers
	case *Zenitani:
		p.Workers = workers
	}
	return p, nil
}
