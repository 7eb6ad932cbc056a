package hook

import "fmt"

// Interface is a try/catch/finally shape for running a fallible action with
// guaranteed cleanup. Catch receives the Try error and returns the error to
// surface (it may translate or swallow it); Finally always runs.
type Interface interface {
	Try() error
	Catch(err error) error
	Finally()
}

// Funcs adapts plain functions to Interface. Nil members default to no-ops,
// with a nil CatchFn passing the Try error through unchanged.
type Funcs struct {
	TryFn     func() error
	CatchFn   func(err error) error
	FinallyFn func()
}

func (f Funcs) Try() error {
	if f.TryFn == nil {
		return nil
	}
	return f.TryFn()
}

func (f Funcs) Catch(err error) error {
	if f.CatchFn == nil {
		return err
	}
	return f.CatchFn(err)
}

func (f Funcs) Finally() {
	if f.FinallyFn != nil {
		f.FinallyFn()
	}
}

// Call runs hook.Try, routes a failure through hook.Catch, and always runs
// hook.Finally. A panic inside Try is recovered and surfaced as an error so
// a misbehaving action cannot take the whole process down with it.
func Call(hook Interface) (err error) {
	if hook == nil {
		return fmt.Errorf("hook cannot be nil")
	}

	defer hook.Finally()

	defer func() {
		if r := recover(); r != nil {
			err = hook.Catch(fmt.Errorf("panic occurred during hook execution: %v", r))
		}
	}()

	tryErr := hook.Try()
	if tryErr != nil {
		err = hook.Catch(tryErr)
		return err
	}

	return nil
}
