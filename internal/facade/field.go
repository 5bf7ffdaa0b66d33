package facade

import (
	"context"
	"fmt"

	"github.com/yungbote/routecard/internal/normalization"
	pkgerrors "github.com/yungbote/routecard/internal/pkg/errors"
)

// Field names a product attribute a route card setting may print.
type Field int

const (
	FieldNone Field = iota
	FieldName
	FieldDenotation
	FieldTitle
	FieldKind
	FieldPurchased
	FieldCheckedBy
)

var fieldNames = map[Field]string{
	FieldName:       "name",
	FieldDenotation: "denotation",
	FieldTitle:      "title",
	FieldKind:       "kind",
	FieldPurchased:  "purchased",
	FieldCheckedBy:  "last_check_author",
}

func (f Field) String() string {
	if s, ok := fieldNames[f]; ok {
		return s
	}
	return ""
}

// ParseField maps a stored field name to a Field. The empty string is
// FieldNone; anything else unknown is rejected.
func ParseField(s string) (Field, error) {
	s = normalization.Key(s)
	if s == "" {
		return FieldNone, nil
	}
	for f, name := range fieldNames {
		if name == s {
			return f, nil
		}
	}
	return FieldNone, fmt.Errorf("%w: unknown product field %q", pkgerrors.ErrInvalidArgument, s)
}

// Value reads field f of p.
func (p *Product) Value(ctx context.Context, f Field) (string, error) {
	switch f {
	case FieldNone:
		return "", nil
	case FieldName:
		return p.Name(), nil
	case FieldDenotation:
		return p.Denotation(), nil
	case FieldTitle:
		return p.Title(), nil
	case FieldKind:
		return p.KindName(ctx, "nominative")
	case FieldPurchased:
		if p.Purchased() {
			return "yes", nil
		}
		return "no", nil
	case FieldCheckedBy:
		return p.Record().CheckedBy, nil
	default:
		return "", fmt.Errorf("%w: field %d", pkgerrors.ErrInvalidArgument, int(f))
	}
}
