package jack

import (
	"fmt"

	"n2t-go/pkg/errs"
)

// TypeChecker walks a parsed 'jack.Program' validating that every variable reference
// resolves to a declared binding and that every subroutine called on a class of the program
// actually exists; calls into classes that are not part of the program are not checked.
// It does not attempt full structural type inference (Jack's own
// reference compiler doesn't either): the checks it performs catch the errors that would
// otherwise surface much later, and much less clearly, during lowering.
type TypeChecker struct {
	program Program
	scopes  ScopeTable
}

func NewTypeChecker(program Program) TypeChecker {
	return TypeChecker{program: program, scopes: ScopeTable{}}
}

func (tc *TypeChecker) Check() (bool, error) {
	if len(tc.program) == 0 {
		return false, fmt.Errorf("the given 'program' is empty or nil")
	}

	for name, class := range tc.program {
		if err := tc.HandleClass(class); err != nil {
			return false, fmt.Errorf("error handling type-checking of class '%s': %w", name, err)
		}
	}

	return true, nil
}

// Specialized function to type-check a 'jack.Class' and nested fields.
func (tc *TypeChecker) HandleClass(class Class) error {
	tc.scopes.PushClassScope(class.Name)
	defer tc.scopes.PopClassScope()

	for name, field := range class.Fields.Entries() {
		if err := tc.scopes.RegisterVariable(field); err != nil {
			return fmt.Errorf("error registering field '%s' in class '%s': %w", name, class.Name, err)
		}
	}

	for _, subroutine := range class.Subroutines.Entries() {
		if err := tc.HandleSubroutine(subroutine); err != nil {
			return fmt.Errorf("error handling subroutine '%s' in class '%s': %w", subroutine.Name, class.Name, err)
		}
	}

	return nil
}

// Specialized function to type-check a 'jack.Subroutine' and nested statements.
func (tc *TypeChecker) HandleSubroutine(subroutine Subroutine) error {
	tc.scopes.PushSubRoutineScope(subroutine.Name)
	defer tc.scopes.PopSubroutineScope()

	for name, arg := range subroutine.Arguments.Entries() {
		if err := tc.scopes.RegisterVariable(arg); err != nil {
			return fmt.Errorf("error registering argument '%s' in subroutine '%s': %w", name, subroutine.Name, err)
		}
	}

	for _, stmt := range subroutine.Statements {
		if err := tc.HandleStatement(stmt); err != nil {
			return fmt.Errorf("error handling nested statement %T: %w", stmt, err)
		}
	}

	return nil
}

// Generalized function to type-check multiple statement types.
func (tc *TypeChecker) HandleStatement(stmt Statement) error {
	switch s := stmt.(type) {
	case VarStmt:
		for _, v := range s.Vars {
			if err := tc.scopes.RegisterVariable(v); err != nil {
				return fmt.Errorf("error registering local variable '%s': %w", v.Name, err)
			}
		}
		return nil

	case LetStmt:
		lhsType, err := tc.HandleExpression(s.Lhs)
		if err != nil {
			return fmt.Errorf("error resolving LHS of assignment: %w", err)
		}
		rhsType, err := tc.HandleExpression(s.Rhs)
		if err != nil {
			return fmt.Errorf("error resolving RHS of assignment: %w", err)
		}
		if !assignable(lhsType, rhsType) {
			return fmt.Errorf("cannot assign value of type '%s' to variable of type '%s'", rhsType, lhsType)
		}
		return nil

	case IfStmt:
		if _, err := tc.HandleExpression(s.Condition); err != nil {
			return fmt.Errorf("error resolving 'if' condition: %w", err)
		}
		for _, inner := range append(append([]Statement{}, s.ThenBlock...), s.ElseBlock...) {
			if err := tc.HandleStatement(inner); err != nil {
				return err
			}
		}
		return nil

	case WhileStmt:
		if _, err := tc.HandleExpression(s.Condition); err != nil {
			return fmt.Errorf("error resolving 'while' condition: %w", err)
		}
		for _, inner := range s.Block {
			if err := tc.HandleStatement(inner); err != nil {
				return err
			}
		}
		return nil

	case DoStmt:
		_, err := tc.HandleExpression(s.FuncCall)
		return err

	case ReturnStmt:
		if s.Expr == nil {
			return nil
		}
		_, err := tc.HandleExpression(s.Expr)
		return err

	default:
		return fmt.Errorf("unrecognized statement: %T", stmt)
	}
}

// Generalized function to type-check (and infer the result type of) an expression.
func (tc *TypeChecker) HandleExpression(expr Expression) (DataType, error) {
	switch e := expr.(type) {
	case VarExpr:
		if e.Var == "this" {
			return Object, nil
		}
		_, variable, err := tc.scopes.ResolveVariable(e.Var)
		if err != nil {
			return "", &errs.SymbolError{Symbol: e.Var, Message: err.Error()}
		}
		return variable.DataType, nil

	case LiteralExpr:
		return e.Type, nil

	case ArrayExpr:
		if _, _, err := tc.scopes.ResolveVariable(e.Var); err != nil {
			return "", &errs.SymbolError{Symbol: e.Var, Message: err.Error()}
		}
		if _, err := tc.HandleExpression(e.Index); err != nil {
			return "", fmt.Errorf("error resolving array index: %w", err)
		}
		return Int, nil

	case UnaryExpr:
		return tc.HandleExpression(e.Rhs)

	case BinaryExpr:
		if _, err := tc.HandleExpression(e.Lhs); err != nil {
			return "", fmt.Errorf("error resolving LHS operand: %w", err)
		}
		if _, err := tc.HandleExpression(e.Rhs); err != nil {
			return "", fmt.Errorf("error resolving RHS operand: %w", err)
		}
		switch e.Type {
		case Equal, LessThan, GreatThan, BoolAnd, BoolOr:
			return Bool, nil
		default:
			return Int, nil
		}

	case FuncCallExpr:
		for _, arg := range e.Arguments {
			if _, err := tc.HandleExpression(arg); err != nil {
				return "", fmt.Errorf("error resolving call argument: %w", err)
			}
		}
		return tc.resolveCallReturnType(e)

	default:
		return "", fmt.Errorf("unrecognized expression: %T", expr)
	}
}

// resolveCallReturnType looks up the subroutine targeted by a FuncCallExpr and returns its
// declared return type. Calls through a variable (e.g. 'var.Method()') are resolved via the
// variable's class name; calls without a qualifier are resolved in the current class.
func (tc *TypeChecker) resolveCallReturnType(call FuncCallExpr) (DataType, error) {
	className := call.Var
	if !call.IsExtCall {
		className = tc.currentClassName()
	} else if _, variable, err := tc.scopes.ResolveVariable(call.Var); err == nil {
		className = variable.ClassName
	}

	class, exists := tc.program.Get(className)
	if !exists {
		// An external call to a class not in this program (e.g. a standard library class):
		// we cannot check it any further, but that's not a program error on its own.
		return Void, nil
	}

	subroutine, exists := class.Subroutines.Get(call.FuncName)
	if !exists {
		return "", &errs.SymbolError{Symbol: call.FuncName, Message: fmt.Sprintf("subroutine not found in class '%s'", className)}
	}

	return subroutine.Return, nil
}

func (tc *TypeChecker) currentClassName() string {
	scope := tc.scopes.GetScope()
	for i := 0; i < len(scope); i++ {
		if scope[i] == '.' {
			return scope[:i]
		}
	}
	return scope
}

// assignable reports whether a value of type 'rhs' can be stored in a variable of type
// 'lhs'. Every Object reference is treated as mutually assignable (Jack doesn't have a
// class hierarchy to check against), and a 'null' literal assigns to anything.
func assignable(lhs, rhs DataType) bool {
	if lhs == rhs || rhs == Null {
		return true
	}
	return lhs == Object && rhs == Object
}
