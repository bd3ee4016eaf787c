package v1

import (
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/ast"
	"github.com/pkg/errors"

	"github.com/vouchapp/vouch/store"
)

// listFilter is the parsed form of a recommendation list filter.
type listFilter struct {
	contentType *store.ContentType
	visibility  *store.Visibility
	creatorID   *int32
}

// parseListFilter parses a CEL filter expression for listing
// recommendations. Supported filter format:
//
//	content_type == 'place'
//	visibility == 'public' && creator_id == 42
//
// Fields may be combined with && and compared with == only.
func parseListFilter(filterStr string) (*listFilter, error) {
	filterStr = strings.TrimSpace(filterStr)
	if filterStr == "" {
		return nil, nil
	}

	env, err := cel.NewEnv(
		cel.Variable("content_type", cel.StringType),
		cel.Variable("visibility", cel.StringType),
		cel.Variable("creator_id", cel.IntType),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create CEL environment")
	}

	celAST, issues := env.Compile(filterStr)
	if issues != nil && issues.Err() != nil {
		return nil, errors.Wrapf(issues.Err(), "invalid filter expression: %s", filterStr)
	}

	filter := &listFilter{}
	if err := filter.collectFromAST(celAST.NativeRep().Expr()); err != nil {
		return nil, err
	}
	return filter, nil
}

// collectFromAST walks a CEL AST expression and collects field
// comparisons into the filter.
func (f *listFilter) collectFromAST(expr ast.Expr) error {
	if expr == nil {
		return errors.New("empty expression")
	}

	if expr.Kind() != ast.CallKind {
		return errors.New("filter must be a comparison expression (e.g., content_type == 'place')")
	}

	call := expr.AsCall()
	switch call.FunctionName() {
	case "_&&_":
		for _, arg := range call.Args() {
			if err := f.collectFromAST(arg); err != nil {
				return err
			}
		}
		return nil
	case "_==_":
		args := call.Args()
		if len(args) != 2 {
			return errors.New("invalid comparison expression")
		}
		// Try to extract the comparison from either operand order.
		if field, value, ok := extractComparison(args[0], args[1]); ok {
			return f.setField(field, value)
		}
		if field, value, ok := extractComparison(args[1], args[0]); ok {
			return f.setField(field, value)
		}
		return errors.New("filter must compare a known field with a constant")
	default:
		return errors.Errorf("unsupported operator: %s (only '==' and '&&' are supported)", call.FunctionName())
	}
}

// extractComparison returns the field name and constant value if left is
// an identifier and right is a literal.
func extractComparison(left, right ast.Expr) (string, any, bool) {
	if left.Kind() != ast.IdentKind {
		return "", nil, false
	}
	if right.Kind() != ast.LiteralKind {
		return "", nil, false
	}
	return left.AsIdent(), right.AsLiteral().Value(), true
}

// setField assigns a parsed comparison to the matching filter field.
func (f *listFilter) setField(field string, value any) error {
	switch field {
	case "content_type":
		str, ok := value.(string)
		if !ok {
			return errors.New("content_type must compare with a string constant")
		}
		contentType := store.ContentType(str)
		if !contentType.Valid() {
			return errors.Errorf("unknown content type: %q", str)
		}
		if f.contentType != nil {
			return errors.New("content_type filtered more than once")
		}
		f.contentType = &contentType
	case "visibility":
		str, ok := value.(string)
		if !ok {
			return errors.New("visibility must compare with a string constant")
		}
		visibility := store.Visibility(str)
		if !visibility.Valid() {
			return errors.Errorf("unknown visibility: %q", str)
		}
		if f.visibility != nil {
			return errors.New("visibility filtered more than once")
		}
		f.visibility = &visibility
	case "creator_id":
		num, ok := value.(int64)
		if !ok {
			return errors.New("creator_id must compare with an integer constant")
		}
		creatorID := int32(num)
		if f.creatorID != nil {
			return errors.New("creator_id filtered more than once")
		}
		f.creatorID = &creatorID
	default:
		return errors.Errorf("unknown filter field: %q", field)
	}
	return nil
}
