package jack

import (
	"fmt"
	"io"
	"os"
	"strings"

	pc "github.com/prataprc/goparsec"
	"n2t-go/pkg/errs"
	"n2t-go/pkg/utils"
)

// ----------------------------------------------------------------------------
// Parser Combinator(s)

// This section defines the Parser Combinator for every token & construct of the Jack language.
//
// The grammar mirrors the classic Jack structure: a class is a sequence of field/static
// declarations followed by a sequence of subroutine declarations, each subroutine body being
// local variable declarations followed by a sequence of statements. Expressions are parsed
// with the textbook 'term (op term)*' shape, left-associative, with no operator precedence
// beyond what parentheses make explicit (exactly as the Jack language itself defines it).

var ast = pc.NewAST("jack_program", 0)

var (
	pProgram = ast.And("program", nil, pClass, pc.End())

	pClass = ast.And("class_decl", nil,
		pc.Atom("class", "CLASS"), pIdent, pLBrace,
		ast.Kleene("class_var_decs", nil, pClassVarDec),
		ast.Kleene("subroutine_decs", nil, pSubroutineDec),
		pRBrace,
	)

	pClassVarDec = ast.And("class_var_dec", nil,
		ast.OrdChoice("scope", nil, pc.Atom("static", "STATIC"), pc.Atom("field", "FIELD")),
		pType, pIdent, ast.Kleene("more_vars", nil, ast.And("more_var", nil, pComma, pIdent)), pSemi,
	)

	pSubroutineDec = ast.And("subroutine_dec", nil,
		ast.OrdChoice("kind", nil, pc.Atom("constructor", "CONSTRUCTOR"), pc.Atom("function", "FUNCTION"), pc.Atom("method", "METHOD")),
		ast.OrdChoice("return_type", nil, pc.Atom("void", "VOID"), pType), pIdent,
		pLParen, pParameterList, pRParen,
		pLBrace, ast.Kleene("var_decs", nil, pVarDec), pStatements, pRBrace,
	)

	pParameterList = ast.Maybe("parameters", nil, ast.And("parameter_list", nil,
		ast.And("parameter", nil, pType, pIdent),
		ast.Kleene("more_parameters", nil, ast.And("more_parameter", nil, pComma, pType, pIdent)),
	))

	pVarDec = ast.And("var_dec", nil,
		pc.Atom("var", "VAR"), pType, pIdent, ast.Kleene("more_vars", nil, ast.And("more_var", nil, pComma, pIdent)), pSemi,
	)

	pType = ast.OrdChoice("type", nil, pc.Atom("int", "INT"), pc.Atom("char", "CHAR"), pc.Atom("boolean", "BOOLEAN"), pIdent)
)

var (
	pStatements = ast.Kleene("statements", nil, pStatement)

	pStatement = ast.OrdChoice("statement", nil,
		pLetStmt, pIfStmt, pWhileStmt, pDoStmt, pReturnStmt,
	)

	pLetStmt = ast.And("let_stmt", nil,
		pc.Atom("let", "LET"), pIdent,
		ast.Maybe("index", nil, ast.And("index_expr", nil, pLBracket, pExpr, pRBracket)),
		pc.Atom("=", "EQUALS"), pExpr, pSemi,
	)

	pIfStmt = ast.And("if_stmt", nil,
		pc.Atom("if", "IF"), pLParen, pExpr, pRParen, pLBrace, pStatements, pRBrace,
		ast.Maybe("else_block", nil, ast.And("else", nil, pc.Atom("else", "ELSE"), pLBrace, pStatements, pRBrace)),
	)

	pWhileStmt = ast.And("while_stmt", nil, pc.Atom("while", "WHILE"), pLParen, pExpr, pRParen, pLBrace, pStatements, pRBrace)

	pDoStmt = ast.And("do_stmt", nil, pc.Atom("do", "DO"), pSubroutineCall, pSemi)

	pReturnStmt = ast.And("return_stmt", nil, pc.Atom("return", "RETURN"), ast.Maybe("value", nil, pExpr), pSemi)
)

var (
	// Left-associative binary operator chain: 'term (op term)*'. The FromAST phase folds
	// the flat list of terms/operators into a left-leaning tree of BinaryExpr nodes.
	pExpr = ast.And("expression", nil, pTerm, ast.Kleene("more_terms", nil, ast.And("more_term", nil, pOp, pTerm)))

	pOp = ast.OrdChoice("op", nil,
		pc.Atom("+", "PLUS"), pc.Atom("-", "MINUS"), pc.Atom("*", "STAR"), pc.Atom("/", "SLASH"),
		pc.Atom("&", "AND"), pc.Atom("|", "OR"), pc.Atom("<", "LT"), pc.Atom(">", "GT"), pc.Atom("=", "EQ"),
	)

	pTerm = ast.OrdChoice("term", nil,
		pSubroutineCall, // Tried before 'varName'/'varName[expr]', since both start with an identifier
		pArrayAccess,
		pUnaryTerm,
		pParenExpr,
		pKeywordConst,
		pc.Float(), pc.Int(),
		pStringLit,
		pVarTerm,
	)

	pParenExpr = ast.And("paren_expr", nil, pLParen, pExpr, pRParen)

	pUnaryTerm = ast.And("unary_term", nil, ast.OrdChoice("unary_op", nil, pc.Atom("-", "NEG"), pc.Atom("~", "NOT")), pTerm)

	pArrayAccess = ast.And("array_access", nil, pIdent, pLBracket, pExpr, pRBracket)

	pVarTerm = ast.And("var_term", nil, pIdent)

	pKeywordConst = ast.OrdChoice("keyword_const", nil,
		pc.Atom("true", "TRUE"), pc.Atom("false", "FALSE"), pc.Atom("null", "NULL"), pc.Atom("this", "THIS"),
	)

	pStringLit = pc.Token(`"(?:\\.|[^"\\])*"`, "STRING")

	// Covers both 'funcName(args)' (same-class call) and 'qualifier.funcName(args)' (an
	// external call, either to another class' function or to a variable's own method).
	pSubroutineCall = ast.And("subroutine_call", nil,
		pIdent, ast.Maybe("qualifier", nil, ast.And("qualified", nil, pDot, pIdent)),
		pLParen, pExpressionList, pRParen,
	)

	pExpressionList = ast.Maybe("args", nil, ast.And("expr_list", nil, pExpr, ast.Kleene("more_args", nil, ast.And("more_arg", nil, pComma, pExpr))))
)

var (
	pIdent = pc.Token(`[A-Za-z_][0-9a-zA-Z_]*`, "IDENT")

	pDot      = pc.Atom(".", "DOT")
	pSemi     = pc.Atom(";", "SEMI")
	pComma    = pc.Atom(",", "COMMA")
	pLBrace   = pc.Atom("{", "LBRACE")
	pRBrace   = pc.Atom("}", "RBRACE")
	pLParen   = pc.Atom("(", "LPAREN")
	pRParen   = pc.Atom(")", "RPAREN")
	pLBracket = pc.Atom("[", "LBRACKET")
	pRBracket = pc.Atom("]", "RBRACKET")
)

// ----------------------------------------------------------------------------
// Jack Parser

// This section defines the Parser for the nand2tetris Jack language.
//
// It uses parser combinators to obtain the AST from the source code (the latter can be provided)
// in multiple ways using a generic io.Reader, the library reads up the feature flags (as env vars):
// - PARSEC_DEBUG: Verbose logging to inspect which of the PCs gets triggered and match
// - EXPORT_AST:   Exports in the DEBUG_FOLDER a Graphviz representation of the AST
// - PRINT_AST:    Print on the stdout a textual representation of the AST
type Parser struct{ reader io.Reader }

// Initializes and returns to the caller a brand new 'Parser' struct.
// Requires the argument io.Reader 'r' to be valid and usable.
func NewParser(r io.Reader) Parser {
	return Parser{reader: r}
}

// Parser entrypoint divides the 2 phases of the parsing pipeline
// Text --> AST: This step is done using PCs and returns a generic traversable AST
// AST --> IR: This step is done by traversing the AST and extracting the 'jack.Class'
func (p *Parser) Parse() (Class, error) {
	content, err := io.ReadAll(p.reader)
	if err != nil {
		return Class{}, fmt.Errorf("cannot read from 'io.Reader': %s", err)
	}

	root, success := p.FromSource(content)
	if !success {
		return Class{}, fmt.Errorf("failed to parse AST from input content")
	}

	return p.FromAST(root)
}

// Scans the textual input stream coming from the 'reader' method and returns a traversable AST
// (Abstract Syntax Tree) that can be eventually visited to extract/transform the info available.
func (p *Parser) FromSource(source []byte) (pc.Queryable, bool) {
	stripped := stripComments(source)

	if os.Getenv("PARSEC_DEBUG") != "" {
		ast.SetDebug()
	}

	root, scanner := ast.Parsewith(pProgram, pc.NewScanner(stripped))

	if os.Getenv("EXPORT_AST") != "" {
		file, _ := os.Create(fmt.Sprintf("%s/debug.ast.dot", os.Getenv("DEBUG_FOLDER")))
		defer file.Close()
		file.Write([]byte(ast.Dotstring("\"Jack AST\"")))
	}

	if os.Getenv("PRINT_AST") != "" {
		ast.Prettyprint()
	}

	return root, scanner.Endof() // Success is based on the reaching of 'EOF'
}

// stripComments removes '//' line comments and '/* ... */' block comments (including the
// Jack-specific '/** ... */' doc-comment variant) before the source ever reaches the parser
// combinators, since the grammar above (like the teacher's asm/vm grammars) is not itself
// comment-aware.
func stripComments(source []byte) []byte {
	var out strings.Builder
	text := string(source)

	for i := 0; i < len(text); i++ {
		switch {
		case strings.HasPrefix(text[i:], "//"):
			for i < len(text) && text[i] != '\n' {
				i++
			}
			out.WriteByte('\n')
		case strings.HasPrefix(text[i:], "/*"):
			end := strings.Index(text[i+2:], "*/")
			if end == -1 {
				i = len(text)
				break
			}
			i += 2 + end + 1
			out.WriteByte(' ')
		default:
			out.WriteByte(text[i])
		}
	}

	return []byte(out.String())
}

// ----------------------------------------------------------------------------
// AST --> IR translation

// FromAST walks the raw parsed AST (rooted at "program") and builds the in-memory, parser
// library independent 'jack.Class' it represents.
func (p *Parser) FromAST(root pc.Queryable) (Class, error) {
	if root.GetName() != "program" {
		return Class{}, fmt.Errorf("expected node 'program', found %s", root.GetName())
	}

	classNode := root.GetChildren()[0]
	if classNode.GetName() != "class_decl" {
		return Class{}, fmt.Errorf("expected node 'class_decl', found %s", classNode.GetName())
	}

	children := classNode.GetChildren()
	// children[0] = 'class' keyword, children[1] = class name, children[2] = '{'
	name := children[1].GetValue()

	class := Class{
		Name:        name,
		Fields:      utils.OrderedMap[string, Variable]{},
		Subroutines: utils.OrderedMap[string, Subroutine]{},
	}

	for _, child := range children {
		switch child.GetName() {
		case "class_var_decs":
			for _, decl := range child.GetChildren() {
				for _, v := range p.HandleClassVarDec(decl) {
					class.Fields.Set(v.Name, v)
				}
			}
		case "subroutine_decs":
			for _, decl := range child.GetChildren() {
				sub, err := p.HandleSubroutineDec(decl, name)
				if err != nil {
					return Class{}, &errs.ParseError{NonTerminal: "subroutine_dec", Message: err.Error()}
				}
				class.Subroutines.Set(sub.Name, sub)
			}
		}
	}

	return class, nil
}

// HandleClassVarDec converts a "class_var_dec" node into one or more 'jack.Variable's (one
// per comma-separated name sharing the declaration's scope/type).
func (Parser) HandleClassVarDec(node pc.Queryable) []Variable {
	children := node.GetChildren()
	scope, typeNode := children[0], children[1]
	varType := Static
	if scope.GetValue() == "field" {
		varType = Field
	}

	dataType, className := dataTypeOf(typeNode)
	vars := []Variable{{Name: children[2].GetValue(), Type: varType, DataType: dataType, ClassName: className}}

	for _, more := range children[3].GetChildren() { // "more_vars" -> list of "more_var"
		ident := more.GetChildren()[1]
		vars = append(vars, Variable{Name: ident.GetValue(), Type: varType, DataType: dataType, ClassName: className})
	}

	return vars
}

// HandleSubroutineDec converts a "subroutine_dec" node into a 'jack.Subroutine'.
func (p Parser) HandleSubroutineDec(node pc.Queryable, className string) (Subroutine, error) {
	children := node.GetChildren()
	kindNode, returnNode, nameNode := children[0], children[1], children[2]

	kind := map[string]SubroutineType{"constructor": Constructor, "function": Function, "method": Method}[kindNode.GetValue()]

	returnType, returnClass := Void, ""
	if returnNode.GetValue() != "void" {
		returnType, returnClass = dataTypeOf(returnNode)
	}
	_ = returnClass // Jack subroutines never return an array/qualified object subtype worth tracking further

	sub := Subroutine{Name: nameNode.GetValue(), Type: kind, Return: returnType, Arguments: utils.OrderedMap[string, Variable]{}}

	// children[3..] = '(', parameters ("parameters" Maybe-wrapper), ')', '{', var decs, statements, '}';
	// the parameter list and the body are located by name instead of fixed index.
	for _, child := range children {
		switch child.GetName() {
		case "parameters":
			sub.Arguments = p.HandleParameterList(child)
		case "statements":
			stmts, err := p.HandleStatements(child)
			if err != nil {
				return Subroutine{}, err
			}
			sub.Statements = stmts
		}
	}

	// Local 'var' declarations are folded into the statement list as VarStmt nodes, matching
	// how jack.Lowerer expects to discover them (via HandleVarStmt updating the live scope).
	for _, child := range children {
		if child.GetName() == "var_decs" {
			varStmts := []Statement{}
			for _, decl := range child.GetChildren() {
				varStmts = append(varStmts, VarStmt{Vars: p.HandleClassVarDec2(decl)})
			}
			sub.Statements = append(varStmts, sub.Statements...)
		}
	}

	return sub, nil
}

// HandleParameterList converts a "parameters" (Maybe-wrapped "parameter_list") node into the
// subroutine's formal arguments, preserving declaration order (it drives ARGUMENT-segment
// offset assignment during lowering, so insertion order must match the source).
func (Parser) HandleParameterList(node pc.Queryable) utils.OrderedMap[string, Variable] {
	out := utils.OrderedMap[string, Variable]{}

	// 'Maybe' splices the wrapped "parameter_list" And-node's own children (parameter,
	// more_parameters) directly onto this "parameters" node, so there's no intermediate
	// "parameter_list" layer to index through.
	list := node.GetChildren()
	if len(list) == 0 {
		return out
	}
	first, more := list[0], list[1] // "parameter", "more_parameters"

	dataType, className := dataTypeOf(first.GetChildren()[0])
	name := first.GetChildren()[1].GetValue()
	out.Set(name, Variable{Name: name, Type: Parameter, DataType: dataType, ClassName: className})

	for _, extra := range more.GetChildren() {
		dataType, className := dataTypeOf(extra.GetChildren()[1])
		name := extra.GetChildren()[2].GetValue()
		out.Set(name, Variable{Name: name, Type: Parameter, DataType: dataType, ClassName: className})
	}

	return out
}

// HandleClassVarDec2 parses a "var_dec" node (local variable declaration) the same way
// HandleClassVarDec parses a class-level one, just with a fixed 'Local' VarType and a
// different leading keyword slot.
func (Parser) HandleClassVarDec2(node pc.Queryable) []Variable {
	children := node.GetChildren() // [0]='var', [1]=type, [2]=name, [3]=more_vars, [4]=';'
	dataType, className := dataTypeOf(children[1])
	vars := []Variable{{Name: children[2].GetValue(), Type: Local, DataType: dataType, ClassName: className}}

	for _, more := range children[3].GetChildren() {
		ident := more.GetChildren()[1]
		vars = append(vars, Variable{Name: ident.GetValue(), Type: Local, DataType: dataType, ClassName: className})
	}

	return vars
}

// dataTypeOf maps a "type"/"return_type" choice node to a (DataType, className) pair; the
// className is only meaningful when DataType is Object. 'OrdChoice' never wraps its matched
// alternative in a node of its own, so 'node' here is already whichever branch matched
// (an "int"/"char"/"boolean" keyword atom, or the class-name identifier).
func dataTypeOf(node pc.Queryable) (DataType, string) {
	switch node.GetValue() {
	case "int":
		return Int, ""
	case "char":
		return Char, ""
	case "boolean":
		return Bool, ""
	default:
		return Object, node.GetValue()
	}
}

// HandleStatements converts a "statements" node into an ordered '[]jack.Statement'. Each
// repetition is whichever concrete statement alternative matched ("let_stmt", "if_stmt", ...)
// since the "statement" OrdChoice never wraps it in a node of its own.
func (p Parser) HandleStatements(node pc.Queryable) ([]Statement, error) {
	out := []Statement{}
	for _, child := range node.GetChildren() {
		stmt, err := p.HandleStatement(child)
		if err != nil {
			return nil, err
		}
		out = append(out, stmt)
	}
	return out, nil
}

func (p Parser) HandleStatement(node pc.Queryable) (Statement, error) {
	switch node.GetName() {
	case "let_stmt":
		return p.HandleLetStmt(node)
	case "if_stmt":
		return p.HandleIfStmt(node)
	case "while_stmt":
		return p.HandleWhileStmt(node)
	case "do_stmt":
		return p.HandleDoStmt(node)
	case "return_stmt":
		return p.HandleReturnStmt(node)
	default:
		return nil, fmt.Errorf("unrecognized statement node '%s'", node.GetName())
	}
}

func (p Parser) HandleLetStmt(node pc.Queryable) (Statement, error) {
	children := node.GetChildren() // [0]='let', [1]=ident, [2]=index(Maybe), [3]='=', [4]=expr, [5]=';'
	varName := children[1].GetValue()

	var lhs Expression = VarExpr{Var: varName}
	// 'Maybe' splices the wrapped "index_expr" And-node's own children ('[', expr, ']')
	// directly onto this "index" node, so its 2nd child is the expression node itself.
	if indexWrap := children[2]; len(indexWrap.GetChildren()) != 0 {
		index, err := p.HandleExpr(indexWrap.GetChildren()[1])
		if err != nil {
			return nil, fmt.Errorf("error handling array index expression: %w", err)
		}
		lhs = ArrayExpr{Var: varName, Index: index}
	}

	rhs, err := p.HandleExpr(children[4])
	if err != nil {
		return nil, fmt.Errorf("error handling 'let' RHS expression: %w", err)
	}

	return LetStmt{Lhs: lhs, Rhs: rhs}, nil
}

func (p Parser) HandleIfStmt(node pc.Queryable) (Statement, error) {
	children := node.GetChildren() // ['if','(',expr,')','{',statements,'}', else(Maybe)]
	cond, err := p.HandleExpr(children[2])
	if err != nil {
		return nil, fmt.Errorf("error handling 'if' condition: %w", err)
	}
	thenBlock, err := p.HandleStatements(children[5])
	if err != nil {
		return nil, err
	}

	elseBlock := []Statement{}
	// 'Maybe' splices the wrapped "else" And-node's own children ('else','{',statements,'}')
	// directly onto this "else_block" node, so its 3rd child is the statements node itself.
	if elseWrap := children[7]; len(elseWrap.GetChildren()) != 0 {
		elseBlock, err = p.HandleStatements(elseWrap.GetChildren()[2])
		if err != nil {
			return nil, err
		}
	}

	return IfStmt{Condition: cond, ThenBlock: thenBlock, ElseBlock: elseBlock}, nil
}

func (p Parser) HandleWhileStmt(node pc.Queryable) (Statement, error) {
	children := node.GetChildren() // ['while','(',expr,')','{',statements,'}']
	cond, err := p.HandleExpr(children[2])
	if err != nil {
		return nil, fmt.Errorf("error handling 'while' condition: %w", err)
	}
	block, err := p.HandleStatements(children[5])
	if err != nil {
		return nil, err
	}
	return WhileStmt{Condition: cond, Block: block}, nil
}

func (p Parser) HandleDoStmt(node pc.Queryable) (Statement, error) {
	children := node.GetChildren() // ['do', subroutine_call, ';']
	call, err := p.HandleSubroutineCall(children[1])
	if err != nil {
		return nil, fmt.Errorf("error handling 'do' call: %w", err)
	}
	return DoStmt{FuncCall: call}, nil
}

func (p Parser) HandleReturnStmt(node pc.Queryable) (Statement, error) {
	children := node.GetChildren() // ['return', value(Maybe), ';']
	// 'Maybe' splices the wrapped "expression" And-node's own children (term, more_terms)
	// directly onto this "value" node, so there's no intermediate "expression" node to index.
	valueWrap := children[1]
	if len(valueWrap.GetChildren()) == 0 {
		return ReturnStmt{}, nil
	}
	expr, err := p.buildExpr(valueWrap.GetChildren()[0], valueWrap.GetChildren()[1])
	if err != nil {
		return nil, fmt.Errorf("error handling 'return' expression: %w", err)
	}
	return ReturnStmt{Expr: expr}, nil
}

// HandleExpr converts an "expression" node ('term (op term)*') into a left-associative
// 'jack.Expression' tree.
func (p Parser) HandleExpr(node pc.Queryable) (Expression, error) {
	children := node.GetChildren() // [0]=term, [1]="more_terms"
	return p.buildExpr(children[0], children[1])
}

// buildExpr folds a leading term and a "more_terms" Kleene node (each repetition an [op, term]
// pair) into a left-associative 'jack.Expression' tree.
func (p Parser) buildExpr(termNode, moreTerms pc.Queryable) (Expression, error) {
	lhs, err := p.HandleTerm(termNode)
	if err != nil {
		return nil, err
	}

	for _, more := range moreTerms.GetChildren() { // each "more_term" -> [op, term]
		opNode := more.GetChildren()[0] // 'op' OrdChoice never wraps; this is already the matched atom
		rhs, err := p.HandleTerm(more.GetChildren()[1])
		if err != nil {
			return nil, err
		}
		lhs = BinaryExpr{Type: binaryOpOf(opNode.GetValue()), Lhs: lhs, Rhs: rhs}
	}

	return lhs, nil
}

func binaryOpOf(symbol string) ExprType {
	switch symbol {
	case "+":
		return Plus
	case "-":
		return Minus
	case "*":
		return Multiply
	case "/":
		return Divide
	case "&":
		return BoolAnd
	case "|":
		return BoolOr
	case "<":
		return LessThan
	case ">":
		return GreatThan
	case "=":
		return Equal
	default:
		return Plus
	}
}

// HandleTerm converts a "term" node into a 'jack.Expression'. The "term" OrdChoice never
// wraps its matched alternative in a node of its own, so 'node' here already IS whichever
// alternative matched: a composite node carrying its own name ("subroutine_call",
// "array_access", "unary_term", "paren_expr", "var_term") or a bare leaf token/atom
// ("TRUE"/"FALSE"/"NULL"/"THIS" from 'keyword_const', or "INT"/"FLOAT"/"STRING").
func (p Parser) HandleTerm(node pc.Queryable) (Expression, error) {
	switch node.GetName() {
	case "subroutine_call":
		return p.HandleSubroutineCall(node)
	case "array_access":
		children := node.GetChildren() // [ident, '[', expr, ']']
		index, err := p.HandleExpr(children[2])
		if err != nil {
			return nil, fmt.Errorf("error handling array access index: %w", err)
		}
		return ArrayExpr{Var: children[0].GetValue(), Index: index}, nil
	case "unary_term":
		children := node.GetChildren() // [unary_op, term]
		rhs, err := p.HandleTerm(children[1])
		if err != nil {
			return nil, err
		}
		opType := Minus
		if children[0].GetValue() == "~" {
			opType = BoolNot
		}
		return UnaryExpr{Type: opType, Rhs: rhs}, nil
	case "paren_expr":
		return p.HandleExpr(node.GetChildren()[1])
	case "TRUE":
		return LiteralExpr{Type: Bool, Value: "true"}, nil
	case "FALSE":
		return LiteralExpr{Type: Bool, Value: "false"}, nil
	case "NULL":
		return LiteralExpr{Type: Null, Value: "null"}, nil
	case "THIS":
		return VarExpr{Var: "this"}, nil
	case "INT":
		return LiteralExpr{Type: Int, Value: node.GetValue()}, nil
	case "FLOAT":
		return LiteralExpr{Type: Int, Value: node.GetValue()}, nil
	case "STRING":
		raw := node.GetValue()
		return LiteralExpr{Type: String, Value: strings.Trim(raw, `"`)}, nil
	case "var_term":
		return VarExpr{Var: node.GetChildren()[0].GetValue()}, nil
	default:
		return nil, fmt.Errorf("unrecognized term node '%s'", node.GetName())
	}
}

// HandleSubroutineCall converts a "subroutine_call" node into a 'jack.FuncCallExpr'.
func (p Parser) HandleSubroutineCall(node pc.Queryable) (FuncCallExpr, error) {
	children := node.GetChildren() // [ident, qualifier(Maybe), '(', args, ')']
	first := children[0].GetValue()

	call := FuncCallExpr{FuncName: first}
	// 'Maybe' splices the wrapped "qualified" And-node's own children ('.', ident) directly
	// onto this "qualifier" node, so its 2nd child is the identifier itself.
	if qualWrap := children[1]; len(qualWrap.GetChildren()) != 0 {
		call = FuncCallExpr{IsExtCall: true, Var: first, FuncName: qualWrap.GetChildren()[1].GetValue()}
	}

	args, err := p.HandleExpressionList(children[3])
	if err != nil {
		return FuncCallExpr{}, err
	}
	call.Arguments = args

	return call, nil
}

// HandleExpressionList converts an "args" (Maybe-wrapped "expr_list") node into a
// '[]jack.Expression'. 'Maybe' splices "expr_list"'s own children (expr, more_args) directly
// onto this "args" node, so there's no intermediate "expr_list" node to index through.
func (p Parser) HandleExpressionList(node pc.Queryable) ([]Expression, error) {
	out := []Expression{}
	list := node.GetChildren()
	if len(list) == 0 {
		return out, nil
	}

	first, err := p.HandleExpr(list[0])
	if err != nil {
		return nil, err
	}
	out = append(out, first)

	for _, more := range list[1].GetChildren() { // "more_args" -> list of "more_arg"
		expr, err := p.HandleExpr(more.GetChildren()[1])
		if err != nil {
			return nil, err
		}
		out = append(out, expr)
	}

	return out, nil
}
