package jsast

// Construction helpers. The teacher builds replacement nodes as direct
// struct literals (see array_access_collector.go's helperCall construction,
// dead_code_inserter.go's generateDeadCodeBlock); these wrappers exist only
// to avoid repeating the same literal shape at every call site across three
// target packages.

func Ident(name string) *Identifier { return &Identifier{Name: name} }

func Str(value string) *StringLiteral { return &StringLiteral{Value: value} }

func Num(value float64) *NumberLiteral { return &NumberLiteral{Value: value} }

func Member(object, property Node, computed bool) *MemberExpression {
	return &MemberExpression{Object: object, Property: property, Computed: computed}
}

// IndexInto builds `arr[i]`.
func IndexInto(arr Node, index Node) *MemberExpression {
	return &MemberExpression{Object: arr, Property: index, Computed: true}
}

// DotAccess builds `obj.name`.
func DotAccess(obj Node, name string) *MemberExpression {
	return &MemberExpression{Object: obj, Property: Ident(name), Computed: false}
}

func Call(callee Node, args ...Node) *CallExpression {
	return &CallExpression{Callee: callee, Args: args}
}

func ExprStmt(expr Node) *ExpressionStatement {
	return &ExpressionStatement{Expression: expr}
}

func Assign(left, right Node) *AssignmentExpression {
	return &AssignmentExpression{Operator: "=", Left: left, Right: right}
}

func VarDecl(kind string, name string, init Node) *VariableDeclaration {
	return &VariableDeclaration{
		Kind: kind,
		Declarations: []*VariableDeclarator{
			{ID: Ident(name), Init: init},
		},
	}
}
