package stepdoc

import "fmt"

// Location addresses a slot within a container.
type Location struct {
	Container Container
	Index     int
}

// Move describes a drag of one step. A nil Destination means the step was released
// outside any container.
type Move struct {
	Source      Location
	Destination *Location
}

// MoveResult tells a caller whether a move changed the document.
type MoveResult int

const (
	MoveApplied MoveResult = iota
	MoveIgnored
)

func (r MoveResult) String() string {
	if r == MoveIgnored {
		return "ignored"
	}
	return "applied"
}

// Move relocates a step. Within one container it has array-move semantics: the step
// is removed first and then inserted at Destination.Index of the shortened sequence.
// Across containers the step's GroupID follows it, and an index equal to the
// destination length appends. An invalid container or index leaves the document
// unchanged and returns a NotFoundError.
func (d Document) Move(m Move) (Document, MoveResult, error) {
	if m.Destination == nil {
		return d, MoveIgnored, nil
	}
	src, dst := m.Source, *m.Destination

	srcSteps, srcGI, err := d.resolve(src.Container)
	if err != nil {
		return d, MoveIgnored, err
	}
	if src.Index < 0 || src.Index >= len(srcSteps) {
		return d, MoveIgnored, indexNotFound(src)
	}
	step := srcSteps[src.Index]
	rest := removed(srcSteps, src.Index)

	if dst.Container == src.Container {
		if dst.Index < 0 || dst.Index > len(rest) {
			return d, MoveIgnored, indexNotFound(dst)
		}
		return d.withContainer(srcGI, inserted(rest, dst.Index, step)), MoveApplied, nil
	}

	dstSteps, dstGI, err := d.resolve(dst.Container)
	if err != nil {
		return d, MoveIgnored, err
	}
	if dst.Index < 0 || dst.Index > len(dstSteps) {
		return d, MoveIgnored, indexNotFound(dst)
	}

	step = step.clone()
	step.GroupID = dst.Container.GroupID

	next := d.withContainer(srcGI, rest)
	next = next.withContainer(dstGI, inserted(dstSteps, dst.Index, step))
	return next, MoveApplied, nil
}

// MoveGroup reorders groups with the same array-move semantics as Move.
func (d Document) MoveGroup(from, to int) (Document, error) {
	if from < 0 || from >= len(d.Groups) {
		return d, &NotFoundError{Kind: "index", ID: fmt.Sprintf("groups[%d]", from)}
	}
	rest := removed(d.Groups, from)
	if to < 0 || to > len(rest) {
		return d, &NotFoundError{Kind: "index", ID: fmt.Sprintf("groups[%d]", to)}
	}
	next := d
	next.Groups = inserted(rest, to, d.Groups[from])
	return next, nil
}

func indexNotFound(l Location) error {
	return &NotFoundError{Kind: "index", ID: fmt.Sprintf("%s[%d]", l.Container, l.Index)}
}
