package regioncheck

import (
	"fmt"
	"go/token"
	"sort"
)

// Severity of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Note is a secondary location attached to a Diagnostic.
type Note struct {
	Pos     token.Pos
	Message string
}

// Diagnostic is anchored at the cause: the isolation-crossing call that
// transferred the region. The accesses it made unsafe are attached as notes.
type Diagnostic struct {
	Func     string
	Pos      token.Pos
	Severity Severity
	Message  string
	Notes    []Note
}

// synthesize turns the collected access records into diagnostics, one per
// transfer site that is followed by at least one access. Accesses in
// different blocks reach the same site through distinct records, so grouping
// is by the underlying call site, the same key mergeSites deduplicates on. An
// access whose region accumulated several transfer sites appears under each
// of them; a transfer never followed by an access emits nothing.
func (a *analysis) synthesize(recs []accessRecord) []Diagnostic {
	type group struct {
		site *TransferSite
		recs []accessRecord
	}
	grouped := make(map[*CallSite]*group)
	var order []*CallSite
	for _, rec := range recs {
		g, seen := grouped[rec.site.Call]
		if !seen {
			g = &group{site: rec.site}
			grouped[rec.site.Call] = g
			order = append(order, rec.site.Call)
		} else if g.site != rec.site {
			// Records for the same call may carry different value sets.
			merged := *g.site
			merged.Values = unionValues(append([]ValueID(nil), merged.Values...), rec.site.Values)
			g.site = &merged
		}
		g.recs = append(g.recs, rec)
	}

	diags := make([]Diagnostic, 0, len(order))
	for _, call := range order {
		g := grouped[call]
		d := Diagnostic{
			Func:     a.fn.Name,
			Pos:      call.Pos,
			Severity: SeverityError,
			Message:  a.transferMessage(g.site),
		}
		for _, rec := range g.recs {
			d.Notes = append(d.Notes, Note{
				Pos: rec.op.Pos,
				Message: fmt.Sprintf("access of %q here could race",
					a.fn.Values[rec.value].Name),
			})
		}
		sort.SliceStable(d.Notes, func(i, j int) bool {
			return d.Notes[i].Pos < d.Notes[j].Pos
		})
		diags = append(diags, d)
	}

	sort.SliceStable(diags, func(i, j int) bool {
		if diags[i].Pos != diags[j].Pos {
			return diags[i].Pos < diags[j].Pos
		}
		return diags[i].Message < diags[j].Message
	})
	return diags
}

func (a *analysis) transferMessage(site *TransferSite) string {
	moved := a.describeValues(site.Values)
	switch site.Class.Kind {
	case CallTaskSpawning:
		return fmt.Sprintf(
			"%s reachable from task spawned by call to %s; accesses after the spawn may race",
			moved, site.Call.Callee)
	default:
		return fmt.Sprintf(
			"call to %s sends %s from domain %q into domain %q; accesses after the call may race",
			site.Call.Callee, moved,
			site.Class.CallerDomain, site.Class.CalleeDomain)
	}
}

// describeValues renders the transferred values for a message, leading with
// the first value's non-sendable type.
func (a *analysis) describeValues(vs []ValueID) string {
	if len(vs) == 0 {
		return "non-sendable value"
	}
	v := a.fn.Values[vs[0]]
	desc := fmt.Sprintf("%q (non-sendable type %s)", v.Name, v.Type)
	if len(vs) > 1 {
		desc += fmt.Sprintf(" and %d related value(s)", len(vs)-1)
	}
	return desc
}
