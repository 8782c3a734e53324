package jsast

// Binding is a named declaration together with every place it's referenced,
// per §3: "(1) the declaring node ..., (2) a live list of reference paths,
// (3) a referenced flag derived from that list, and (4) a pure-initializer
// predicate".
type Binding struct {
	Name       string
	Decl       Node // *VariableDeclarator or *FunctionDeclaration
	References []*Path
	Scope      *Scope
}

// PureInitializer reports whether this binding's declaration has a side
// effect free initializer (always true for a function declaration).
func (b *Binding) PureInitializer() bool {
	switch d := b.Decl.(type) {
	case *FunctionDeclaration:
		return true
	case *VariableDeclarator:
		return IsPureInitializer(d.Init)
	default:
		return false
	}
}

// Referenced reports whether the binding has at least one live reference,
// i.e. one whose path still reaches the program root. References whose
// path has been orphaned by an earlier removal (ghost references, §4.7/§9)
// are not counted.
func (b *Binding) Referenced() bool {
	return b.LiveReferenceCount() > 0
}

// LiveReferenceCount filters References through the "path reaches program
// root" predicate before counting, exactly as §4.7 requires.
func (b *Binding) LiveReferenceCount() int {
	n := 0
	for _, p := range b.References {
		if p.ReachesRoot() {
			n++
		}
	}
	return n
}

// Scope is a lexical scope: the program scope or a function scope, holding
// the bindings declared directly in it. getBinding walks outward through
// Parent, per §4.1.
type Scope struct {
	Parent   *Scope
	Children []*Scope
	Bindings map[string]*Binding
}

func newScope(parent *Scope) *Scope {
	s := &Scope{Parent: parent, Bindings: map[string]*Binding{}}
	if parent != nil {
		parent.Children = append(parent.Children, s)
	}
	return s
}

// AllBindings flattens root and every descendant scope's own bindings into
// one list, used by the dead-code pass to consider every binding in the
// tree regardless of nesting depth.
func AllBindings(root *Scope) []*Binding {
	var out []*Binding
	out = append(out, root.ListBindings()...)
	for _, c := range root.Children {
		out = append(out, AllBindings(c)...)
	}
	return out
}

// GetBinding resolves name by walking this scope and its ancestors.
// Returns nil if name is never declared (a global reference).
func (s *Scope) GetBinding(name string) *Binding {
	for cur := s; cur != nil; cur = cur.Parent {
		if b, ok := cur.Bindings[name]; ok {
			return b
		}
	}
	return nil
}

// ListBindings returns this scope's own bindings (not ancestors').
func (s *Scope) ListBindings() []*Binding {
	out := make([]*Binding, 0, len(s.Bindings))
	for _, b := range s.Bindings {
		out = append(out, b)
	}
	return out
}

// Crawl rebuilds scope information for the whole tree rooted at prog. It
// must be called after bulk structural edits whenever the next pass
// depends on accurate reference lists (§4.1).
func Crawl(prog *Program) *Scope {
	root := newScope(nil)
	index := map[Node]*Scope{}
	crawlBody(prog.Body, root, index)
	resolveReferences(prog, root, index)
	return root
}

// crawlBody registers every var/function declaration reachable in this
// lexical scope (stopping at nested function boundaries, which get their
// own scope), and records each function node's scope into index so
// resolveReferences can walk the exact same tree rather than rebuilding a
// second, possibly-divergent one.
func crawlBody(body []Node, scope *Scope, index map[Node]*Scope) {
	var walkStmt func(n Node)
	walkStmt = func(n Node) {
		switch t := n.(type) {
		case *VariableDeclaration:
			for _, d := range t.Declarations {
				if d.ID == nil {
					continue
				}
				scope.Bindings[d.ID.Name] = &Binding{Name: d.ID.Name, Decl: d, Scope: scope}
				if d.Init != nil {
					registerFunctionExpressionsIn(d.Init, scope, index)
				}
			}
		case *FunctionDeclaration:
			if t.Name != nil {
				scope.Bindings[t.Name.Name] = &Binding{Name: t.Name.Name, Decl: t, Scope: scope}
			}
			childScope := newScope(scope)
			registerParams(t.Params, childScope)
			index[t] = childScope
			if t.Body != nil {
				crawlBody(t.Body.Body, childScope, index)
			}
		case *BlockStatement:
			for _, s := range t.Body {
				walkStmt(s)
			}
		case *IfStatement:
			walkStmt(t.Consequent)
			if t.Alternate != nil {
				walkStmt(t.Alternate)
			}
		case *ForStatement:
			if t.Init != nil {
				walkStmt(t.Init)
			}
			walkStmt(t.Body)
		case *WhileStatement:
			walkStmt(t.Body)
		case *DoWhileStatement:
			walkStmt(t.Body)
		case *TryStatement:
			if t.Block != nil {
				for _, s := range t.Block.Body {
					walkStmt(s)
				}
			}
			if t.Handler != nil && t.Handler.Body != nil {
				for _, s := range t.Handler.Body.Body {
					walkStmt(s)
				}
			}
			if t.Finalizer != nil {
				for _, s := range t.Finalizer.Body {
					walkStmt(s)
				}
			}
		case *SwitchStatement:
			for _, c := range t.Cases {
				for _, s := range c.Consequent {
					walkStmt(s)
				}
			}
		case *LabeledStatement:
			walkStmt(t.Body)
		case *ExpressionStatement:
			registerFunctionExpressionsIn(t.Expression, scope, index)
		}
	}
	for _, s := range body {
		walkStmt(s)
	}
}

// registerFunctionExpressionsIn descends into expressions looking for
// function expressions so their inner declarations get their own scope,
// without creating bindings for the expression itself (it isn't a
// declaration). Each function expression's scope is recorded into index,
// same as crawlBody does for function declarations.
func registerFunctionExpressionsIn(n Node, parent *Scope, index map[Node]*Scope) {
	switch t := n.(type) {
	case *FunctionExpression:
		s := newScope(parent)
		registerParams(t.Params, s)
		index[t] = s
		if t.Body != nil {
			crawlBody(t.Body.Body, s, index)
		}
	case *ArrowFunctionExpression:
		s := newScope(parent)
		registerParams(t.Params, s)
		index[t] = s
		if block, ok := t.Body.(*BlockStatement); ok {
			crawlBody(block.Body, s, index)
		}
	case *CallExpression:
		registerFunctionExpressionsIn(t.Callee, parent, index)
		for _, a := range t.Args {
			registerFunctionExpressionsIn(a, parent, index)
		}
	case *AssignmentExpression:
		registerFunctionExpressionsIn(t.Right, parent, index)
	}
}

func registerParams(params []Node, scope *Scope) {
	for _, p := range params {
		if id, ok := p.(*Identifier); ok {
			scope.Bindings[id.Name] = &Binding{Name: id.Name, Scope: scope}
		}
	}
}

// resolveReferences walks the whole tree a second time, resolving every
// identifier used as a value to the nearest enclosing binding and recording
// the reference path. Declaration sites and non-computed member-expression
// property names are not references. index maps each function node to the
// exact Scope crawlBody populated for it (including its local var/function
// bindings), so resolution happens against the same tree bindings live in
// rather than a rebuilt, params-only approximation of it.
func resolveReferences(prog *Program, root *Scope, index map[Node]*Scope) {
	v := NewVisitor()
	scopeStack := []*Scope{root}
	enterFunc := func(p *Path) {
		if s, ok := index[p.Node]; ok {
			scopeStack = append(scopeStack, s)
		}
	}
	leaveFunc := func(p *Path) {
		if _, ok := index[p.Node]; ok {
			scopeStack = scopeStack[:len(scopeStack)-1]
		}
	}
	v.Enter[KindFunctionDeclaration] = enterFunc
	v.Leave[KindFunctionDeclaration] = leaveFunc
	v.Enter[KindFunctionExpression] = enterFunc
	v.Leave[KindFunctionExpression] = leaveFunc
	v.Enter[KindArrowFunctionExpression] = enterFunc
	v.Leave[KindArrowFunctionExpression] = leaveFunc

	v.Enter[KindIdentifier] = func(p *Path) {
		id := p.Node.(*Identifier)
		if isDeclarationSite(p) || isNonComputedPropertyName(p) {
			return
		}
		cur := scopeStack[len(scopeStack)-1]
		if b := cur.GetBinding(id.Name); b != nil {
			b.References = append(b.References, p)
		}
	}
	Walk(prog, v, &TransformState{})
}

// isDeclarationSite reports whether this identifier path is the name being
// declared (a var's ID, a function's Name, or a parameter) rather than a
// use of it.
func isDeclarationSite(p *Path) bool {
	if p.Parent == nil {
		return false
	}
	switch parent := p.Parent.Node.(type) {
	case *VariableDeclarator:
		return parent.ID == p.Node
	case *FunctionDeclaration:
		if parent.Name == p.Node {
			return true
		}
		for _, prm := range parent.Params {
			if prm == p.Node {
				return true
			}
		}
	case *FunctionExpression:
		if parent.Name == p.Node {
			return true
		}
		for _, prm := range parent.Params {
			if prm == p.Node {
				return true
			}
		}
	case *ArrowFunctionExpression:
		for _, prm := range parent.Params {
			if prm == p.Node {
				return true
			}
		}
	case *CatchClause:
		return parent.Param == p.Node
	}
	return false
}

// isNonComputedPropertyName reports whether this identifier is the `name`
// in `obj.name` — a property key, not an identifier reference.
func isNonComputedPropertyName(p *Path) bool {
	if p.Parent == nil {
		return false
	}
	if me, ok := p.Parent.Node.(*MemberExpression); ok {
		return !me.Computed && me.Property == p.Node
	}
	if prop, ok := p.Parent.Node.(*Property); ok {
		return !prop.Computed && prop.Key == p.Node
	}
	return false
}
