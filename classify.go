package regioncheck

import "fmt"

// CallKind is the isolation-crossing classification of one call site.
type CallKind int

const (
	// CallSameDomain executes under the caller's isolation domain and does
	// not schedule concurrent work.
	CallSameDomain CallKind = iota
	// CallActorEntering executes under an isolation domain other than the
	// caller's. The callee may retain arguments in domain-owned storage.
	CallActorEntering
	// CallTaskSpawning schedules a closure for execution concurrently with
	// the continuation of the caller, regardless of nominal domain equality.
	CallTaskSpawning
)

var callKindNames = [...]string{
	CallSameDomain:    "same-domain",
	CallActorEntering: "actor-entering",
	CallTaskSpawning:  "task-spawning",
}

func (k CallKind) String() string {
	if int(k) < len(callKindNames) {
		return callKindNames[k]
	}
	return fmt.Sprintf("callkind(%d)", int(k))
}

// CallClass is the classifier's verdict for one call site. The domain names
// are carried into diagnostic messages only.
type CallClass struct {
	Kind         CallKind
	CallerDomain string
	CalleeDomain string
}

// Classifier reports, for each call operation, whether the call crosses
// isolation domains and whether it spawns a concurrent task. It is the sole
// source of these facts: the analysis carries no built-in knowledge of any
// API surface, so new task-spawning APIs are recognized purely through this
// interface.
type Classifier interface {
	Classify(fn *Func, call *CallSite) CallClass
}

// ClassifierFunc adapts a plain function to the Classifier interface.
type ClassifierFunc func(fn *Func, call *CallSite) CallClass

func (f ClassifierFunc) Classify(fn *Func, call *CallSite) CallClass {
	return f(fn, call)
}
