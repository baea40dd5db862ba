package stepdoc

import (
	"fmt"
	"strings"
)

// Container identifies where a step lives: the ungrouped pool (zero value)
// or the group with the given id.
type Container struct {
	GroupID string
}

// Ungrouped is the top-level pool of steps that belong to no group.
var Ungrouped = Container{}

// InGroup returns the container for the group with the given id.
func InGroup(id string) Container {
	return Container{GroupID: id}
}

// IsGroup reports whether c refers to a group rather than the ungrouped pool.
func (c Container) IsGroup() bool {
	return c.GroupID != ""
}

func (c Container) String() string {
	if c.GroupID == "" {
		return "ungrouped"
	}
	return "group " + c.GroupID
}

// GroupPatch lists the group fields to change. Nil fields are left as they are.
type GroupPatch struct {
	Title       *string
	IsCollapsed *bool
	Style       *Style
	Steps       []Step // Full replacement; nil keeps the current steps
}

// CreateGroup appends an empty, expanded group.
func (d Document) CreateGroup(id, title string) (Document, StepGroup, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return d, StepGroup{}, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if strings.TrimSpace(id) == "" {
		return d, StepGroup{}, &ValidationError{Field: "id", Reason: "must not be empty"}
	}
	if d.groupIndex(id) >= 0 {
		return d, StepGroup{}, &ValidationError{Field: "id", Reason: fmt.Sprintf("group %q already exists", id)}
	}

	g := StepGroup{
		ID:    id,
		Title: title,
		Style: DefaultStyle(),
		Steps: []Step{},
	}

	next := d
	next.Groups = inserted(d.Groups, len(d.Groups), g)
	return next, g, nil
}

// UpdateGroup shallow-merges patch into the group with the given id.
func (d Document) UpdateGroup(id string, patch GroupPatch) (Document, error) {
	gi := d.groupIndex(id)
	if gi < 0 {
		return d, &NotFoundError{Kind: "group", ID: id}
	}

	g := d.Groups[gi]
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return d, &ValidationError{Field: "title", Reason: "must not be empty"}
		}
		g.Title = title
	}
	if patch.IsCollapsed != nil {
		g.IsCollapsed = *patch.IsCollapsed
	}
	if patch.Style != nil {
		if !patch.Style.Variant.Valid() {
			return d, &ValidationError{Field: "style", Reason: "unknown variant " + string(patch.Style.Variant)}
		}
		g.Style = *patch.Style
	}
	if patch.Steps != nil {
		steps, err := d.adoptSteps(gi, patch.Steps)
		if err != nil {
			return d, err
		}
		g.Steps = steps
	}

	next := d
	next.Groups = replaced(d.Groups, gi, g)
	return next, nil
}

// adoptSteps prepares a replacement step sequence for group gi: ids must be unique
// and must not already live in another container.
func (d Document) adoptSteps(gi int, steps []Step) ([]Step, error) {
	groupID := d.Groups[gi].ID
	seen := make(map[string]bool, len(steps))
	out := make([]Step, 0, len(steps))
	for _, s := range steps {
		if seen[s.ID] {
			return nil, &ValidationError{Field: "steps", Reason: fmt.Sprintf("duplicate step id %q", s.ID)}
		}
		seen[s.ID] = true
		if c, _, ok := d.locate(s.ID); ok && c.GroupID != groupID {
			return nil, &ValidationError{Field: "steps", Reason: fmt.Sprintf("step %q belongs to %s", s.ID, c)}
		}
		s = s.clone()
		s.GroupID = groupID
		out = append(out, s)
	}
	return out, nil
}

// DeleteGroup removes a group. Its steps are appended, in order, to the end of the
// ungrouped pool; no step is ever discarded.
func (d Document) DeleteGroup(id string) (Document, error) {
	gi := d.groupIndex(id)
	if gi < 0 {
		return d, &NotFoundError{Kind: "group", ID: id}
	}

	pool := make([]Step, 0, len(d.Steps)+len(d.Groups[gi].Steps))
	pool = append(pool, d.Steps...)
	for _, s := range d.Groups[gi].Steps {
		s = s.clone()
		s.GroupID = ""
		pool = append(pool, s)
	}

	next := d
	next.Steps = pool
	next.Groups = removed(d.Groups, gi)
	return next, nil
}

// AddStep appends step to the target container. The step's GroupID is set from
// the container.
func (d Document) AddStep(step Step, target Container) (Document, Step, error) {
	if step.ID == "" {
		return d, Step{}, &ValidationError{Field: "id", Reason: "must not be empty"}
	}
	if d.HasStep(step.ID) {
		return d, Step{}, &ValidationError{Field: "id", Reason: fmt.Sprintf("step %q already exists", step.ID)}
	}
	steps, gi, err := d.resolve(target)
	if err != nil {
		return d, Step{}, err
	}

	step = step.clone()
	step.GroupID = target.GroupID
	return d.withContainer(gi, inserted(steps, len(steps), step)), step.clone(), nil
}

// UpdateStep replaces the step with the same id, searching the ungrouped pool first
// and then each group. The step keeps its container: GroupID is rewritten to match.
func (d Document) UpdateStep(step Step) (Document, error) {
	c, idx, ok := d.locate(step.ID)
	if !ok {
		return d, &NotFoundError{Kind: "step", ID: step.ID}
	}
	if !step.Type.Valid() {
		return d, &ValidationError{Field: "type", Reason: "unknown step type " + string(step.Type)}
	}
	if step.Style != nil && !step.Style.Variant.Valid() {
		return d, &ValidationError{Field: "style", Reason: "unknown variant " + string(step.Style.Variant)}
	}

	steps, gi, _ := d.resolve(c)
	step = step.clone()
	step.GroupID = c.GroupID
	return d.withContainer(gi, replaced(steps, idx, step)), nil
}

// DeleteStep removes the step from whichever container holds it.
func (d Document) DeleteStep(id string) (Document, error) {
	c, idx, ok := d.locate(id)
	if !ok {
		return d, &NotFoundError{Kind: "step", ID: id}
	}
	steps, gi, _ := d.resolve(c)
	return d.withContainer(gi, removed(steps, idx)), nil
}

// CopyStep clones source under newID and inserts the clone right after the
// original, in the same container. A titled source yields "<title> (copy)".
func (d Document) CopyStep(source Step, newID string) (Document, Step, error) {
	c, idx, ok := d.locate(source.ID)
	if !ok {
		return d, Step{}, &NotFoundError{Kind: "step", ID: source.ID}
	}
	if newID == "" || d.HasStep(newID) {
		return d, Step{}, &ValidationError{Field: "id", Reason: fmt.Sprintf("copy id %q is not unique", newID)}
	}

	cp := source.clone()
	cp.ID = newID
	cp.Title = CopyTitle(source.Title)
	cp.GroupID = c.GroupID

	steps, gi, _ := d.resolve(c)
	return d.withContainer(gi, inserted(steps, idx+1, cp)), cp.clone(), nil
}

// FindStep returns the step with the given id together with its container and index.
func (d Document) FindStep(id string) (Step, Container, int, bool) {
	c, idx, ok := d.locate(id)
	if !ok {
		return Step{}, Container{}, 0, false
	}
	steps, _, _ := d.resolve(c)
	return steps[idx].clone(), c, idx, true
}

// Group returns the group with the given id.
func (d Document) Group(id string) (StepGroup, bool) {
	gi := d.groupIndex(id)
	if gi < 0 {
		return StepGroup{}, false
	}
	return d.Groups[gi], true
}

// HasStep reports whether any container holds a step with the given id.
func (d Document) HasStep(id string) bool {
	_, _, ok := d.locate(id)
	return ok
}

// StepIDs lists every step id: grouped steps in group order, then the ungrouped pool.
func (d Document) StepIDs() []string {
	ids := make([]string, 0, d.StepCount())
	for _, g := range d.Groups {
		for _, s := range g.Steps {
			ids = append(ids, s.ID)
		}
	}
	for _, s := range d.Steps {
		ids = append(ids, s.ID)
	}
	return ids
}

// StepCount returns the number of steps in all containers.
func (d Document) StepCount() int {
	n := len(d.Steps)
	for _, g := range d.Groups {
		n += len(g.Steps)
	}
	return n
}

// Validate checks the containment invariants: unique non-empty ids, known step
// types, and a GroupID on every step that matches its container.
func (d Document) Validate() error {
	seenSteps := make(map[string]bool)
	check := func(s Step, c Container) error {
		if s.ID == "" {
			return &ValidationError{Field: "steps", Reason: "step without id in " + c.String()}
		}
		if seenSteps[s.ID] {
			return &ValidationError{Field: "steps", Reason: fmt.Sprintf("duplicate step id %q", s.ID)}
		}
		seenSteps[s.ID] = true
		if !s.Type.Valid() {
			return &ValidationError{Field: "type", Reason: fmt.Sprintf("step %q has unknown type %q", s.ID, s.Type)}
		}
		if s.GroupID != c.GroupID {
			return &ValidationError{
				Field:  "groupId",
				Reason: fmt.Sprintf("step %q is in %s but claims group %q", s.ID, c, s.GroupID),
			}
		}
		return nil
	}

	seenGroups := make(map[string]bool, len(d.Groups))
	for _, g := range d.Groups {
		if g.ID == "" {
			return &ValidationError{Field: "groups", Reason: "group without id"}
		}
		if seenGroups[g.ID] {
			return &ValidationError{Field: "groups", Reason: fmt.Sprintf("duplicate group id %q", g.ID)}
		}
		seenGroups[g.ID] = true
		for _, s := range g.Steps {
			if err := check(s, InGroup(g.ID)); err != nil {
				return err
			}
		}
	}
	for _, s := range d.Steps {
		if err := check(s, Ungrouped); err != nil {
			return err
		}
	}
	return nil
}

// Normalized returns d with nil sequences replaced by empty ones, so that documents
// built in code compare equal to documents decoded from JSON.
func (d Document) Normalized() Document {
	if d.Steps == nil {
		d.Steps = []Step{}
	}
	if d.Groups == nil {
		d.Groups = []StepGroup{}
		return d
	}
	groups := make([]StepGroup, len(d.Groups))
	for i, g := range d.Groups {
		if g.Steps == nil {
			g.Steps = []Step{}
		}
		groups[i] = g
	}
	d.Groups = groups
	return d
}

func (d Document) groupIndex(id string) int {
	if id == "" {
		return -1
	}
	for i, g := range d.Groups {
		if g.ID == id {
			return i
		}
	}
	return -1
}

// resolve returns the steps of a container and the group index (-1 for the pool).
func (d Document) resolve(c Container) ([]Step, int, error) {
	if !c.IsGroup() {
		return d.Steps, -1, nil
	}
	gi := d.groupIndex(c.GroupID)
	if gi < 0 {
		return nil, -1, &NotFoundError{Kind: "group", ID: c.GroupID}
	}
	return d.Groups[gi].Steps, gi, nil
}

// locate finds a step, searching the ungrouped pool first and then each group.
func (d Document) locate(id string) (Container, int, bool) {
	if id == "" {
		return Container{}, 0, false
	}
	for i, s := range d.Steps {
		if s.ID == id {
			return Ungrouped, i, true
		}
	}
	for _, g := range d.Groups {
		for i, s := range g.Steps {
			if s.ID == id {
				return InGroup(g.ID), i, true
			}
		}
	}
	return Container{}, 0, false
}

// withContainer returns a copy of d whose container gi (-1 for the pool) holds steps.
func (d Document) withContainer(gi int, steps []Step) Document {
	next := d
	if gi < 0 {
		next.Steps = steps
		return next
	}
	g := d.Groups[gi]
	g.Steps = steps
	next.Groups = replaced(d.Groups, gi, g)
	return next
}

// The slice helpers below always allocate, so a new snapshot never writes into
// the backing array of an old one.

func inserted[T any](s []T, i int, v T) []T {
	out := make([]T, 0, len(s)+1)
	out = append(out, s[:i]...)
	out = append(out, v)
	return append(out, s[i:]...)
}

func removed[T any](s []T, i int) []T {
	out := make([]T, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}

func replaced[T any](s []T, i int, v T) []T {
	out := make([]T, len(s))
	copy(out, s)
	out[i] = v
	return out
}
