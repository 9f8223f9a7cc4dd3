package startup

import "context"

// Func adapts a named pair of start/stop closures to the dependency
// contract, for components that don't carry their own lifecycle type.
type Func struct {
	name  string
	needs []string
	start func(ctx context.Context) error
	stop  func(ctx context.Context) error
}

func NewFunc(name string, needs []string, start, stop func(ctx context.Context) error) *Func {
	return &Func{
		name:  name,
		needs: needs,
		start: start,
		stop:  stop,
	}
}

func (f *Func) GetName() string {
	return f.name
}

func (f *Func) DependsOn() []string {
	return f.needs
}

func (f *Func) Start(ctx context.Context) error {
	if f.start == nil {
		return nil
	}
	return f.start(ctx)
}

func (f *Func) Stop(ctx context.Context) error {
	if f.stop == nil {
		return nil
	}
	return f.stop(ctx)
}
