package jsast

// TransformState is the mutable summary handed back by the runner: every
// mutation a visitor commits increments Changes, and that's the only
// observable result of running a transform (§3 TransformState).
type TransformState struct {
	Changes int
}

// Path wraps a node together with enough context to replace or remove it in
// place: the node it was found at, its tracked parent path, and a setter
// closure the walker gave it for splicing a replacement into the slot it
// occupies. This mirrors the teacher's pattern of building a parent map up
// front (parent_tracker.go) and then applying a deferred replacement list
// through a type-switched splice (node_replacer.go) — Path just folds both
// steps into one object instead of two passes.
type Path struct {
	Node     Node
	Parent   *Path
	state    *TransformState
	set      func(Node)
	removed  bool
	replaced bool
	skip     bool
}

// ReplaceWith swaps this path's node for replacement and counts a change.
// Per §4.1, the replacement becomes the next node the walker descends into.
func (p *Path) ReplaceWith(replacement Node) {
	p.Node = replacement
	p.replaced = true
	if p.set != nil {
		p.set(replacement)
	}
	if p.state != nil {
		p.state.Changes++
	}
}

// Remove deletes this node from its parent and counts a change. Per §4.1 a
// remove on the current path aborts further descent into it.
func (p *Path) Remove() {
	p.removed = true
	p.skip = true
	if p.set != nil {
		p.set(nil)
	}
	if p.state != nil {
		p.state.Changes++
	}
}

// SkipChildren aborts descent into this node's children without removing or
// replacing it.
func (p *Path) SkipChildren() { p.skip = true }

// FindAncestor walks Parent links until pred matches, mirroring the
// teacher's ParentTracker.FindAncestorOfType.
func (p *Path) FindAncestor(pred func(Node) bool) *Path {
	for cur := p.Parent; cur != nil; cur = cur.Parent {
		if pred(cur.Node) {
			return cur
		}
	}
	return nil
}

// ReachesRoot reports whether walking Parent links terminates in a path with
// no parent (the program root) rather than dangling — the "path reaches the
// program root" predicate used to filter ghost references (§4.7, §9).
func (p *Path) ReachesRoot() bool {
	cur := p
	for cur.Parent != nil {
		cur = cur.Parent
	}
	_, ok := cur.Node.(*Program)
	return ok
}

// Handler is called on entering (and optionally leaving) a node of a given
// kind during a Visitor walk.
type Handler func(*Path)

// Visitor is a mapping node-kind -> handler, exactly as described in §4.1:
// "a mapping node-kind -> handler(path); handlers may mutate this.changes".
// A kind may register an Enter handler, a Leave handler, or both.
type Visitor struct {
	Enter map[Kind]Handler
	Leave map[Kind]Handler
}

// NewVisitor returns an empty Visitor ready to have handlers assigned.
func NewVisitor() *Visitor {
	return &Visitor{Enter: map[Kind]Handler{}, Leave: map[Kind]Handler{}}
}

// Merge combines other into v in list order, so that when several
// transforms visit the same kind they run back to back on the same pass
// (§4.2's "tie-breaking" rule).
func (v *Visitor) Merge(other *Visitor) *Visitor {
	merged := NewVisitor()
	for k, h := range v.Enter {
		merged.Enter[k] = h
	}
	for k, h := range v.Leave {
		merged.Leave[k] = h
	}
	for k, h := range other.Enter {
		if prev, ok := merged.Enter[k]; ok {
			merged.Enter[k] = func(p *Path) { prev(p); if !p.removed && !p.skip { h(p) } }
		} else {
			merged.Enter[k] = h
		}
	}
	for k, h := range other.Leave {
		if prev, ok := merged.Leave[k]; ok {
			merged.Leave[k] = func(p *Path) { prev(p); h(p) }
		} else {
			merged.Leave[k] = h
		}
	}
	return merged
}

// Walk traverses root depth-first, left to right, dispatching to v's
// handlers by node kind and threading mutation counts into state.
func Walk(root Node, v *Visitor, state *TransformState) {
	prog, ok := root.(*Program)
	if !ok {
		walkNode(root, nil, nil, v, state)
		return
	}
	walkProgram(prog, v, state)
}

func walkProgram(prog *Program, v *Visitor, state *TransformState) {
	path := &Path{Node: prog, state: state}
	if h, ok := v.Enter[KindProgram]; ok {
		h(path)
	}
	if !path.skip {
		walkNodeSlice(&prog.Body, path, v, state)
	}
	if h, ok := v.Leave[KindProgram]; ok {
		h(path)
	}
}

// walkNode visits a single node, given a setter that lets the node be
// replaced or removed in its parent's slot.
func walkNode(n Node, parent *Path, set func(Node), v *Visitor, state *TransformState) {
	if n == nil {
		return
	}
	path := &Path{Node: n, Parent: parent, state: state, set: set}
	if h, ok := v.Enter[n.Kind()]; ok {
		h(path)
	}
	if path.removed {
		return
	}
	if path.replaced {
		n = path.Node
		if n == nil {
			return
		}
	}
	if !path.skip {
		walkChildren(n, path, v, state)
	}
	if h, ok := v.Leave[n.Kind()]; ok {
		h(path)
	}
}

// walkNodeSlice visits each element of a []Node field, compacting out any
// element a handler removed.
func walkNodeSlice(body *[]Node, parent *Path, v *Visitor, state *TransformState) {
	items := *body
	for i := range items {
		idx := i
		walkNode(items[idx], parent, func(n Node) { items[idx] = n }, v, state)
	}
	out := items[:0]
	for _, n := range items {
		if n != nil {
			out = append(out, n)
		}
	}
	*body = out
}

func walkDeclarators(decls *[]*VariableDeclarator, parent *Path, v *Visitor, state *TransformState) {
	items := *decls
	for i := range items {
		idx := i
		walkNode(items[idx], parent, func(n Node) { items[idx], _ = n.(*VariableDeclarator) }, v, state)
	}
	out := items[:0]
	for _, d := range items {
		if d != nil {
			out = append(out, d)
		}
	}
	*decls = out
}

// walkChildren dispatches into a node's children according to its concrete
// type. This is the facade's equivalent of the teacher's big parent-tracker
// and node-replacer type switches (parent_tracker.go, node_replacer.go),
// generalized so a single switch statement serves traversal, replacement,
// and removal all at once.
func walkChildren(n Node, path *Path, v *Visitor, state *TransformState) {
	switch t := n.(type) {
	case *Program:
		walkNodeSlice(&t.Body, path, v, state)
	case *ArrayExpression:
		walkNodeSlice(&t.Elements, path, v, state)
	case *ObjectExpression:
		for _, p := range t.Properties {
			walkNode(p.Key, path, func(n Node) { p.Key = n }, v, state)
			walkNode(p.Value, path, func(n Node) { p.Value = n }, v, state)
		}
	case *FunctionExpression:
		walkNodeSlice(&t.Params, path, v, state)
		if t.Body != nil {
			walkNode(t.Body, path, func(n Node) { t.Body, _ = n.(*BlockStatement) }, v, state)
		}
	case *FunctionDeclaration:
		walkNodeSlice(&t.Params, path, v, state)
		if t.Body != nil {
			walkNode(t.Body, path, func(n Node) { t.Body, _ = n.(*BlockStatement) }, v, state)
		}
	case *ArrowFunctionExpression:
		walkNodeSlice(&t.Params, path, v, state)
		if t.Body != nil {
			walkNode(t.Body, path, func(n Node) { t.Body = n }, v, state)
		}
	case *CallExpression:
		walkNode(t.Callee, path, func(n Node) { t.Callee = n }, v, state)
		walkNodeSlice(&t.Args, path, v, state)
	case *NewExpression:
		walkNode(t.Callee, path, func(n Node) { t.Callee = n }, v, state)
		walkNodeSlice(&t.Args, path, v, state)
	case *MemberExpression:
		walkNode(t.Object, path, func(n Node) { t.Object = n }, v, state)
		walkNode(t.Property, path, func(n Node) { t.Property = n }, v, state)
	case *AssignmentExpression:
		walkNode(t.Left, path, func(n Node) { t.Left = n }, v, state)
		walkNode(t.Right, path, func(n Node) { t.Right = n }, v, state)
	case *BinaryExpression:
		walkNode(t.Left, path, func(n Node) { t.Left = n }, v, state)
		walkNode(t.Right, path, func(n Node) { t.Right = n }, v, state)
	case *LogicalExpression:
		walkNode(t.Left, path, func(n Node) { t.Left = n }, v, state)
		walkNode(t.Right, path, func(n Node) { t.Right = n }, v, state)
	case *UnaryExpression:
		walkNode(t.Argument, path, func(n Node) { t.Argument = n }, v, state)
	case *UpdateExpression:
		walkNode(t.Argument, path, func(n Node) { t.Argument = n }, v, state)
	case *ConditionalExpression:
		walkNode(t.Test, path, func(n Node) { t.Test = n }, v, state)
		walkNode(t.Consequent, path, func(n Node) { t.Consequent = n }, v, state)
		walkNode(t.Alternate, path, func(n Node) { t.Alternate = n }, v, state)
	case *SequenceExpression:
		walkNodeSlice(&t.Expressions, path, v, state)
	case *SpreadElement:
		walkNode(t.Argument, path, func(n Node) { t.Argument = n }, v, state)
	case *VariableDeclaration:
		walkDeclarators(&t.Declarations, path, v, state)
	case *VariableDeclarator:
		if t.Init != nil {
			walkNode(t.Init, path, func(n Node) { t.Init = n }, v, state)
		}
	case *BlockStatement:
		walkNodeSlice(&t.Body, path, v, state)
	case *ExpressionStatement:
		walkNode(t.Expression, path, func(n Node) { t.Expression = n }, v, state)
	case *IfStatement:
		walkNode(t.Test, path, func(n Node) { t.Test = n }, v, state)
		if t.Consequent != nil {
			walkNode(t.Consequent, path, func(n Node) { t.Consequent = n }, v, state)
		}
		if t.Alternate != nil {
			walkNode(t.Alternate, path, func(n Node) { t.Alternate = n }, v, state)
		}
	case *ForStatement:
		if t.Init != nil {
			walkNode(t.Init, path, func(n Node) { t.Init = n }, v, state)
		}
		if t.Test != nil {
			walkNode(t.Test, path, func(n Node) { t.Test = n }, v, state)
		}
		if t.Update != nil {
			walkNode(t.Update, path, func(n Node) { t.Update = n }, v, state)
		}
		walkNode(t.Body, path, func(n Node) { t.Body = n }, v, state)
	case *WhileStatement:
		walkNode(t.Test, path, func(n Node) { t.Test = n }, v, state)
		walkNode(t.Body, path, func(n Node) { t.Body = n }, v, state)
	case *DoWhileStatement:
		walkNode(t.Body, path, func(n Node) { t.Body = n }, v, state)
		walkNode(t.Test, path, func(n Node) { t.Test = n }, v, state)
	case *ReturnStatement:
		if t.Argument != nil {
			walkNode(t.Argument, path, func(n Node) { t.Argument = n }, v, state)
		}
	case *ThrowStatement:
		walkNode(t.Argument, path, func(n Node) { t.Argument = n }, v, state)
	case *TryStatement:
		walkNode(t.Block, path, func(n Node) { t.Block, _ = n.(*BlockStatement) }, v, state)
		if t.Handler != nil {
			walkNode(t.Handler.Body, path, func(n Node) { t.Handler.Body, _ = n.(*BlockStatement) }, v, state)
		}
		if t.Finalizer != nil {
			walkNode(t.Finalizer, path, func(n Node) { t.Finalizer, _ = n.(*BlockStatement) }, v, state)
		}
	case *SwitchStatement:
		walkNode(t.Discriminant, path, func(n Node) { t.Discriminant = n }, v, state)
		for _, c := range t.Cases {
			if c.Test != nil {
				walkNode(c.Test, path, func(n Node) { c.Test = n }, v, state)
			}
			walkNodeSlice(&c.Consequent, path, v, state)
		}
	case *LabeledStatement:
		walkNode(t.Body, path, func(n Node) { t.Body = n }, v, state)
	}
}
