package regioncheck

// Result holds the diagnostics of one Analyze invocation.
type Result struct {
	// Diagnostics in deterministic order: input function order, then primary
	// position within each function.
	Diagnostics []Diagnostic

	byFunc map[string][]Diagnostic
}

func newResult(funcs []*Func, perFunc [][]Diagnostic) Result {
	r := Result{byFunc: make(map[string][]Diagnostic, len(funcs))}
	for i, fn := range funcs {
		diags := perFunc[i]
		r.Diagnostics = append(r.Diagnostics, diags...)
		r.byFunc[fn.Name] = diags
	}
	return r
}

// ForFunc returns the diagnostics for the named function.
func (r *Result) ForFunc(name string) []Diagnostic {
	return r.byFunc[name]
}
