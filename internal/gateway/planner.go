package gateway

import (
	"fmt"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/graphql-go/graphql/language/printer"

	apperrors "github.com/spec-kit/community-hub/pkg/util"
)

// PlannedCall is one forwarded operation. An empty Query means the client's
// original request body can travel verbatim, which preserves fragments,
// variables and operation names untouched.
type PlannedCall struct {
	URL   string
	Query string
}

// Plan decides which subgraph(s) an operation touches. Operations whose
// top-level fields all live in one subgraph are forwarded whole; mixed
// operations are split into one sub-operation per owning subgraph, in order
// of first appearance.
func Plan(table *RoutingTable, query, operationName string) ([]PlannedCall, error) {
	doc, err := parser.Parse(parser.ParseParams{Source: query})
	if err != nil {
		return nil, apperrors.NewValidationError("could not parse operation", nil)
	}

	op, hasFragments, err := findOperation(doc, operationName)
	if err != nil {
		return nil, err
	}
	if op.Operation != "query" && op.Operation != "mutation" {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unsupported operation type %q", op.Operation), nil)
	}

	var order []string
	groups := map[string][]ast.Selection{}
	for _, selection := range op.SelectionSet.Selections {
		field, ok := selection.(*ast.Field)
		if !ok {
			return nil, apperrors.NewValidationError("fragments at the operation root are not supported", nil)
		}
		name := field.Name.Value
		owner, ok := table.Owner(op.Operation, name)
		if !ok {
			return nil, apperrors.NewValidationError(fmt.Sprintf("no subgraph owns field %q", name), nil)
		}
		if _, seen := groups[owner]; !seen {
			order = append(order, owner)
		}
		groups[owner] = append(groups[owner], field)
	}
	if len(order) == 0 {
		return nil, apperrors.NewValidationError("operation selects no fields", nil)
	}

	if len(order) == 1 {
		return []PlannedCall{{URL: order[0]}}, nil
	}

	// Splitting rewrites the document, which would also need fragment
	// definitions copied and pruned; not supported across owners.
	if hasFragments {
		return nil, apperrors.NewValidationError("fragments are not supported in operations spanning subgraphs", nil)
	}

	calls := make([]PlannedCall, 0, len(order))
	for _, owner := range order {
		printed, err := printSubOperation(op, groups[owner])
		if err != nil {
			return nil, err
		}
		calls = append(calls, PlannedCall{URL: owner, Query: printed})
	}
	return calls, nil
}

func findOperation(doc *ast.Document, operationName string) (*ast.OperationDefinition, bool, error) {
	var found *ast.OperationDefinition
	hasFragments := false
	for _, def := range doc.Definitions {
		switch node := def.(type) {
		case *ast.OperationDefinition:
			if operationName != "" {
				if node.Name != nil && node.Name.Value == operationName {
					found = node
				}
			} else if found == nil {
				found = node
			} else {
				return nil, false, apperrors.NewValidationError("operationName is required for documents with multiple operations", nil)
			}
		case *ast.FragmentDefinition:
			hasFragments = true
		}
	}
	if found == nil {
		return nil, false, apperrors.NewValidationError("no matching operation in document", nil)
	}
	return found, hasFragments, nil
}

// printSubOperation renders one owner's share of the operation, keeping only
// the variable definitions that share actually references. Subgraphs reject
// unused variable definitions, so pruning is not optional.
func printSubOperation(op *ast.OperationDefinition, selections []ast.Selection) (string, error) {
	used := map[string]struct{}{}
	for _, selection := range selections {
		if err := collectVariables(selection, used); err != nil {
			return "", err
		}
	}

	var varDefs []*ast.VariableDefinition
	for _, def := range op.VariableDefinitions {
		if _, ok := used[def.Variable.Name.Value]; ok {
			varDefs = append(varDefs, def)
		}
	}

	subOp := ast.NewOperationDefinition(&ast.OperationDefinition{
		Operation:           op.Operation,
		Name:                op.Name,
		VariableDefinitions: varDefs,
		Directives:          op.Directives,
		SelectionSet:        ast.NewSelectionSet(&ast.SelectionSet{Selections: selections}),
	})
	subDoc := ast.NewDocument(&ast.Document{Definitions: []ast.Node{subOp}})

	printed, ok := printer.Print(subDoc).(string)
	if !ok {
		return "", apperrors.NewInternalError(fmt.Errorf("printer returned non-string"))
	}
	return printed, nil
}

func collectVariables(sel ast.Selection, used map[string]struct{}) error {
	switch n := sel.(type) {
	case *ast.Field:
		for _, arg := range n.Arguments {
			collectValueVariables(arg.Value, used)
		}
		for _, directive := range n.Directives {
			for _, arg := range directive.Arguments {
				collectValueVariables(arg.Value, used)
			}
		}
		if n.SelectionSet != nil {
			for _, selection := range n.SelectionSet.Selections {
				if err := collectVariables(selection, used); err != nil {
					return err
				}
			}
		}
	case *ast.InlineFragment:
		if n.SelectionSet != nil {
			for _, selection := range n.SelectionSet.Selections {
				if err := collectVariables(selection, used); err != nil {
					return err
				}
			}
		}
	case *ast.FragmentSpread:
		return apperrors.NewValidationError("fragments are not supported in operations spanning subgraphs", nil)
	}
	return nil
}

func collectValueVariables(value ast.Value, used map[string]struct{}) {
	switch v := value.(type) {
	case *ast.Variable:
		used[v.Name.Value] = struct{}{}
	case *ast.ListValue:
		for _, item := range v.Values {
			collectValueVariables(item, used)
		}
	case *ast.ObjectValue:
		for _, field := range v.Fields {
			collectValueVariables(field.Value, used)
		}
	}
}
