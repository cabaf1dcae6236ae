package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"
)

// InsertDetector fires if and only if the previous snapshot has zero
// properties, signalling a brand-new record. Current content is irrelevant.
type InsertDetector struct {
	Alias string // human name of the record kind, e.g. "Task"
}

func (d InsertDetector) Detect(_ context.Context, prev, curr Snapshot) (Change, bool) {
	if len(prev) != 0 {
		return Change{}, false
	}
	desc := fmt.Sprintf("%s created", d.Alias)
	if title := curr["title"]; title != "" {
		desc = fmt.Sprintf("%s created: %s", d.Alias, title)
	}
	return Change{Event: "insert", Description: desc, Icon: "plus"}, true
}

// FieldDetector compares one named property by string inequality. Render
// overrides the default "changed from X to Y" sentence. Field detectors do
// not fire on brand-new records; that is InsertDetector's job.
type FieldDetector struct {
	Field  string
	Event  string
	Label  string
	Icon   string
	Render func(prev, curr string) string
}

func (d FieldDetector) Detect(_ context.Context, prev, curr Snapshot) (Change, bool) {
	if len(prev) == 0 {
		return Change{}, false
	}
	before, after := prev[d.Field], curr[d.Field]
	if before == after {
		return Change{}, false
	}
	desc := fmt.Sprintf("%s changed from %q to %q", d.Label, before, after)
	if d.Render != nil {
		desc = d.Render(before, after)
	}
	return Change{Event: d.Event, Description: desc, Icon: d.Icon}, true
}

// RefDetector compares an identifier property. Values that both parse as
// integers are compared numerically, so "042" and "42" are the same
// reference; anything else falls back to string comparison.
type RefDetector struct {
	Field string
	Event string
	Label string
	Icon  string
}

func (d RefDetector) Detect(_ context.Context, prev, curr Snapshot) (Change, bool) {
	if len(prev) == 0 {
		return Change{}, false
	}
	before, after := prev[d.Field], curr[d.Field]
	if refEqual(before, after) {
		return Change{}, false
	}
	return Change{
		Event:       d.Event,
		Description: fmt.Sprintf("%s changed from %s to %s", d.Label, refLabel(before), refLabel(after)),
		Icon:        d.Icon,
	}, true
}

func refEqual(a, b string) bool {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil {
		return na == nb
	}
	return a == b
}

func refLabel(v string) string {
	if v == "" {
		return "none"
	}
	return "#" + v
}

// DateDetector compares a timestamp property as an instant, not as text, so
// equivalent representations in different zones do not fire.
type DateDetector struct {
	Field  string
	Event  string
	Label  string
	Icon   string
	Layout string // render layout; defaults to "Jan 2, 2006 15:04"
}

func (d DateDetector) Detect(_ context.Context, prev, curr Snapshot) (Change, bool) {
	if len(prev) == 0 {
		return Change{}, false
	}
	before, after := prev[d.Field], curr[d.Field]
	tBefore, errB := time.Parse(time.RFC3339, before)
	tAfter, errA := time.Parse(time.RFC3339, after)
	if errB == nil && errA == nil {
		if tBefore.Equal(tAfter) {
			return Change{}, false
		}
		layout := d.Layout
		if layout == "" {
			layout = "Jan 2, 2006 15:04"
		}
		return Change{
			Event:       d.Event,
			Description: fmt.Sprintf("%s moved from %s to %s", d.Label, tBefore.Format(layout), tAfter.Format(layout)),
			Icon:        d.Icon,
		}, true
	}
	if before == after {
		return Change{}, false
	}
	return Change{
		Event:       d.Event,
		Description: fmt.Sprintf("%s changed from %q to %q", d.Label, before, after),
		Icon:        d.Icon,
	}, true
}

// SetDetector compares an array-valued property as an unordered set. The
// property holds a JSON array of strings; detection is order-insensitive and
// the description lists exactly what was added and removed.
type SetDetector struct {
	Field string
	Event string
	Label string
	Icon  string
	// ItemName renders one element, e.g. resolving an operator id to a
	// display name. Optional.
	ItemName func(ctx context.Context, item string) string
}

func (d SetDetector) Detect(ctx context.Context, prev, curr Snapshot) (Change, bool) {
	if len(prev) == 0 {
		return Change{}, false
	}
	added := d.AddedItems(prev, curr)
	removed := d.RemovedItems(prev, curr)
	if len(added) == 0 && len(removed) == 0 {
		return Change{}, false
	}
	var parts []string
	if len(added) > 0 {
		parts = append(parts, fmt.Sprintf("%s added: %s", d.Label, d.join(ctx, added)))
	}
	if len(removed) > 0 {
		parts = append(parts, fmt.Sprintf("%s removed: %s", d.Label, d.join(ctx, removed)))
	}
	return Change{Event: d.Event, Description: strings.Join(parts, "; "), Icon: d.Icon}, true
}

// AddedItems returns the elements present in curr but not in prev, sorted.
func (d SetDetector) AddedItems(prev, curr Snapshot) []string {
	return setDiff(decodeSet(curr[d.Field]), decodeSet(prev[d.Field]))
}

// RemovedItems returns the elements present in prev but not in curr, sorted.
func (d SetDetector) RemovedItems(prev, curr Snapshot) []string {
	return setDiff(decodeSet(prev[d.Field]), decodeSet(curr[d.Field]))
}

func (d SetDetector) join(ctx context.Context, items []string) string {
	if d.ItemName == nil {
		return strings.Join(items, ", ")
	}
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, d.ItemName(ctx, it))
	}
	return strings.Join(names, ", ")
}

func decodeSet(raw string) []string {
	if raw == "" {
		return nil
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		// Not a JSON array; treat the raw value as a single element.
		return []string{raw}
	}
	return items
}

// setDiff returns the elements of a not present in b, sorted as strings.
func setDiff(a, b []string) []string {
	in := make(map[string]bool, len(b))
	for _, v := range b {
		in[v] = true
	}
	var out []string
	seen := make(map[string]bool, len(a))
	for _, v := range a {
		if !in[v] && !seen[v] {
			out = append(out, v)
			seen[v] = true
		}
	}
	sort.Strings(out)
	return out
}

// DiffDetector compares a free-text property and renders the change as a
// unified diff, which reads better than two full copies for long notes.
type DiffDetector struct {
	Field string
	Event string
	Label string
	Icon  string
}

func (d DiffDetector) Detect(_ context.Context, prev, curr Snapshot) (Change, bool) {
	if len(prev) == 0 {
		return Change{}, false
	}
	before, after := prev[d.Field], curr[d.Field]
	if before == after {
		return Change{}, false
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "before",
		ToFile:   "after",
		Context:  1,
	})
	if err != nil || diff == "" {
		diff = fmt.Sprintf("%s updated", d.Label)
	}
	return Change{Event: d.Event, Description: fmt.Sprintf("%s updated:\n%s", d.Label, strings.TrimRight(diff, "\n")), Icon: d.Icon}, true
}

// NewStatusDetector builds a field detector for the status property that
// renders human status labels. The label function is injected to keep this
// package independent of the status machine.
func NewStatusDetector(label func(status string) string) FieldDetector {
	return FieldDetector{
		Field: "status",
		Event: "status",
		Label: "Status",
		Icon:  "flag",
		Render: func(prev, curr string) string {
			return fmt.Sprintf("Status changed from %s to %s", label(prev), label(curr))
		},
	}
}
