package x64

// Label is a handle for a code offset which may be referenced before it is known. Labels are
// created by an Assembler and are only valid for that assembler until it is reset.
type Label struct {
	id  uint32
	gen uint32 // generation of the assembler which created the label
}

// LabelState describes the lifecycle of a label.
type LabelState uint8

const (
	LabelUnused LabelState = iota // no references, not bound
	LabelLinked                   // pending references, not bound
	LabelBound                    // bound to an offset; terminal
)

func (s LabelState) String() string {
	switch s {
	case LabelUnused:
		return "unused"
	case LabelLinked:
		return "linked"
	case LabelBound:
		return "bound"
	}
	return "invalid"
}

// Pending references form two chains threaded through the placeholder bytes already written to
// the code buffer:
//
//   - A far (4-byte) placeholder holds the buffer offset of the previous far reference. The first
//     reference holds its own offset, which terminates the chain.
//   - A near (1-byte) placeholder holds the signed distance back to the previous near reference,
//     or 0 for the first.
//
// Bind walks each chain from its head and overwrites every placeholder with the final displacement.
type labelState struct {
	head     int // offset of the most recent far placeholder
	nearHead int // offset of the most recent near placeholder
	farN     uint32
	nearN    uint32
	pos      int
	bound    bool
}

func (l *labelState) pending() uint32 { return l.farN + l.nearN }

// Create a new label. The label must be bound with Bind before Finalize is called if any
// instruction references it.
func (a *Assembler) NewLabel() Label {
	a.labels = append(a.labels, labelState{})
	return Label{id: uint32(len(a.labels)), gen: a.gen}
}

// Get the state of a label created by this assembler since it was last reset, or nil.
func (a *Assembler) lookup(l Label) *labelState {
	if l.gen != a.gen || l.id == 0 || int(l.id) > len(a.labels) {
		return nil
	}
	return &a.labels[l.id-1]
}

func (a *Assembler) label(l Label) *labelState {
	s := a.lookup(l)
	if s == nil {
		a.failf("%w: %d", ErrUnknownLabel, l.id)
	}
	return s
}

// Get the state of a label.
func (a *Assembler) LabelState(l Label) LabelState {
	s := a.lookup(l)
	switch {
	case s == nil:
		return LabelUnused
	case s.bound:
		return LabelBound
	case s.pending() > 0:
		return LabelLinked
	}
	return LabelUnused
}

// Get the offset a label was bound to. The second result is false if the label is not bound.
func (a *Assembler) LabelOffset(l Label) (uint32, bool) {
	if a.LabelState(l) != LabelBound {
		return 0, false
	}
	return uint32(a.lookup(l).pos), true
}

// Get the number of unresolved far and near references to a label.
func (a *Assembler) PendingRefs(l Label) (far, near int) {
	s := a.lookup(l)
	if s == nil {
		return 0, 0
	}
	return int(s.farN), int(s.nearN)
}

// Append a 4-byte reference to s, relative to the end of the reference. Displacements to bound
// labels are written directly.
func (a *Assembler) refFar(s *labelState) {
	p := a.b.i
	if s.bound {
		d := int64(s.pos) - int64(p+4)
		if !isInt32(d) {
			a.failf("%w: %d", ErrFarOutOfRange, d)
			return
		}
		a.b.Int32(int32(d))
		return
	}
	if s.farN == 0 {
		a.b.Int32(int32(p))
	} else {
		a.b.Int32(int32(s.head))
	}
	s.head = p
	s.farN++
}

// Append a 1-byte reference to s, relative to the end of the reference.
func (a *Assembler) refNear(s *labelState) {
	p := a.b.i
	if s.bound {
		d := int64(s.pos) - int64(p+1)
		if !isInt8(d) {
			a.failf("%w: backward displacement %d", ErrNearOutOfRange, d)
			return
		}
		a.b.Int8(int8(d))
		return
	}
	if s.nearN == 0 {
		a.b.Int8(0)
	} else {
		link := int64(s.nearHead) - int64(p)
		if !isInt8(link) {
			a.failf("%w: %d bytes since the previous near reference", ErrNearOutOfRange, -link)
			return
		}
		a.b.Int8(int8(link))
	}
	s.nearHead = p
	s.nearN++
}

// Bind a label to the current PC. Every pending reference to the label is rewritten to the
// displacement of the bound offset. A label may only be bound once.
func (a *Assembler) Bind(l Label) error {
	if a.err != nil {
		return a.err
	}
	s := a.label(l)
	if s == nil {
		return a.err
	}
	if s.bound {
		return a.failf("%w: label %d at %#x", ErrLabelRebound, l.id, s.pos)
	}
	target := a.b.i
	if s.farN > 0 {
		if err := a.bindFar(s, target); err != nil {
			return err
		}
	}
	if s.nearN > 0 {
		if err := a.bindNear(s, target); err != nil {
			return err
		}
	}
	s.pos, s.bound = target, true
	s.farN, s.nearN = 0, 0
	return nil
}

func (a *Assembler) bindFar(s *labelState, target int) error {
	node := s.head
	for n := uint32(0); ; {
		if n == s.farN || !a.b.inRange(node, 4) {
			return a.failf("%w: far reference at %#x", ErrLabelChainCorrupt, node)
		}
		next := int(a.b.at32(node))
		d := int64(target) - int64(node+4)
		if !isInt32(d) {
			return a.failf("%w: %d", ErrFarOutOfRange, d)
		}
		a.b.put32(node, int32(d))
		n++
		if next == node {
			if n != s.farN {
				return a.failf("%w: visited %d of %d far references", ErrLabelChainCorrupt, n, s.farN)
			}
			return nil
		}
		node = next
	}
}

func (a *Assembler) bindNear(s *labelState, target int) error {
	node := s.nearHead
	for n := uint32(0); ; {
		if n == s.nearN || !a.b.inRange(node, 1) {
			return a.failf("%w: near reference at %#x", ErrLabelChainCorrupt, node)
		}
		link := int(a.b.at8(node))
		d := int64(target) - int64(node+1)
		if !isInt8(d) {
			return a.failf("%w: reference at %#x needs displacement %d", ErrNearOutOfRange, node, d)
		}
		a.b.put8(node, int8(d))
		n++
		switch {
		case link == 0:
			if n != s.nearN {
				return a.failf("%w: visited %d of %d near references", ErrLabelChainCorrupt, n, s.nearN)
			}
			return nil
		case link > 0:
			return a.failf("%w: forward link at %#x", ErrLabelChainCorrupt, node)
		}
		node += link
	}
}
