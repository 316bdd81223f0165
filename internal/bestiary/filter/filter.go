// Package filter parses AIP-160 filter expressions over bestiary profiles
// and translates them to SQL.
package filter

import (
	"errors"
	"fmt"
	"strings"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// ErrInvalidFilter indicates a filter expression that cannot be applied.
var ErrInvalidFilter = errors.New("invalid profile filter")

// ProfileDeclarations returns the field declarations for profile filtering.
func ProfileDeclarations() (*filtering.Declarations, error) {
	return filtering.NewDeclarations(
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent("name", filtering.TypeString),
		filtering.DeclareIdent("hp", filtering.TypeInt),
		filtering.DeclareIdent("attack", filtering.TypeString),
		filtering.DeclareIdent("bonus_to_hit", filtering.TypeInt),
		filtering.DeclareIdent("damage", filtering.TypeString),
		filtering.DeclareIdent("bonus_to_damage", filtering.TypeInt),
		filtering.DeclareIdent("evade", filtering.TypeInt),
		filtering.DeclareIdent("armor", filtering.TypeInt),
		filtering.DeclareIdent("resistance", filtering.TypeInt),
		filtering.DeclareIdent("resource", filtering.TypeString),
		filtering.DeclareIdent("max_fatigue", filtering.TypeInt),
		filtering.DeclareIdent("rule", filtering.TypeString),
	)
}

// SQLCondition represents a SQL WHERE clause fragment with parameters.
type SQLCondition struct {
	// Clause is the SQL WHERE clause (e.g., "hp > ?").
	Clause string
	// Params are the positional parameters for the clause.
	Params []any
}

// Empty reports whether the condition matches every row.
func (c SQLCondition) Empty() bool {
	return c.Clause == ""
}

// fieldMapping maps filter field names to columns of the profiles table.
var fieldMapping = map[string]string{
	"name":            "name",
	"hp":              "hp",
	"attack":          "attack",
	"bonus_to_hit":    "bonus_to_hit",
	"damage":          "damage",
	"bonus_to_damage": "bonus_to_damage",
	"evade":           "evade",
	"armor":           "armor",
	"resistance":      "resistance",
	"resource":        "resource",
	"max_fatigue":     "max_fatigue",
	"rule":            "rule",
}

// ParseProfileFilter parses an AIP-160 filter expression such as
// `hp > 10 AND rule = "natural"` and returns a SQL condition. An empty
// filter returns an empty condition.
func ParseProfileFilter(filterStr string) (SQLCondition, error) {
	if strings.TrimSpace(filterStr) == "" {
		return SQLCondition{}, nil
	}

	decls, err := ProfileDeclarations()
	if err != nil {
		return SQLCondition{}, fmt.Errorf("create declarations: %w", err)
	}

	filter, err := filtering.ParseFilterString(filterStr, decls)
	if err != nil {
		return SQLCondition{}, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}

	cond, err := translateExpr(filter.CheckedExpr.GetExpr())
	if err != nil {
		return SQLCondition{}, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	return cond, nil
}

func translateExpr(e *expr.Expr) (SQLCondition, error) {
	if e == nil {
		return SQLCondition{}, nil
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_CallExpr:
		return translateCall(kind.CallExpr)
	default:
		return SQLCondition{}, fmt.Errorf("unsupported expression type: %T", kind)
	}
}

func translateCall(call *expr.Expr_Call) (SQLCondition, error) {
	switch call.Function {
	case "_&&_", "AND":
		return translateJunction(call.Args, "AND")
	case "_||_", "OR":
		return translateJunction(call.Args, "OR")
	case "NOT":
		return translateNot(call.Args)
	case "_==_", "=":
		return translateComparison(call.Args, "=")
	case "_!=_", "!=":
		return translateComparison(call.Args, "!=")
	case "_<_", "<":
		return translateComparison(call.Args, "<")
	case "_<=_", "<=":
		return translateComparison(call.Args, "<=")
	case "_>_", ">":
		return translateComparison(call.Args, ">")
	case "_>=_", ">=":
		return translateComparison(call.Args, ">=")
	default:
		return SQLCondition{}, fmt.Errorf("unsupported function: %s", call.Function)
	}
}

func translateJunction(args []*expr.Expr, op string) (SQLCondition, error) {
	if len(args) < 2 {
		return SQLCondition{}, fmt.Errorf("%s requires at least 2 arguments", op)
	}

	clauses := make([]string, 0, len(args))
	var params []any
	for _, arg := range args {
		cond, err := translateExpr(arg)
		if err != nil {
			return SQLCondition{}, err
		}
		clauses = append(clauses, cond.Clause)
		params = append(params, cond.Params...)
	}

	return SQLCondition{
		Clause: "(" + strings.Join(clauses, " "+op+" ") + ")",
		Params: params,
	}, nil
}

func translateNot(args []*expr.Expr) (SQLCondition, error) {
	if len(args) != 1 {
		return SQLCondition{}, fmt.Errorf("NOT requires 1 argument")
	}
	inner, err := translateExpr(args[0])
	if err != nil {
		return SQLCondition{}, err
	}
	return SQLCondition{Clause: fmt.Sprintf("(NOT %s)", inner.Clause), Params: inner.Params}, nil
}

func translateComparison(args []*expr.Expr, op string) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("comparison requires 2 arguments")
	}

	field, err := extractFieldName(args[0])
	if err != nil {
		return SQLCondition{}, err
	}
	column, ok := fieldMapping[field]
	if !ok {
		return SQLCondition{}, fmt.Errorf("unknown field: %s", field)
	}

	value, err := extractValue(args[1])
	if err != nil {
		return SQLCondition{}, err
	}
	if s, ok := value.(string); ok && (field == "rule" || field == "resource") {
		value = strings.ToLower(strings.TrimSpace(s))
	}

	return SQLCondition{
		Clause: fmt.Sprintf("%s %s ?", column, op),
		Params: []any{value},
	}, nil
}

func extractFieldName(e *expr.Expr) (string, error) {
	if e == nil {
		return "", fmt.Errorf("nil expression")
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_IdentExpr:
		return kind.IdentExpr.Name, nil
	default:
		return "", fmt.Errorf("expected identifier, got %T", kind)
	}
}

func extractValue(e *expr.Expr) (any, error) {
	if e == nil {
		return nil, fmt.Errorf("nil expression")
	}

	kind, ok := e.ExprKind.(*expr.Expr_ConstExpr)
	if !ok {
		return nil, fmt.Errorf("expected constant, got %T", e.ExprKind)
	}
	switch c := kind.ConstExpr.GetConstantKind().(type) {
	case *expr.Constant_StringValue:
		return c.StringValue, nil
	case *expr.Constant_Int64Value:
		return c.Int64Value, nil
	case *expr.Constant_DoubleValue:
		return c.DoubleValue, nil
	default:
		return nil, fmt.Errorf("unsupported constant type: %T", c)
	}
}
