package biz

import (
	"fmt"

	"github.com/google/uuid"
	apperrors "github.com/lk2023060901/file-storage-backend/internal/pkg/errors"
)

var (
	// ErrTemplateNotFound 标签模板不存在
	ErrTemplateNotFound = apperrors.New(apperrors.ErrTagTemplateNotFound)

	// ErrNameEmpty 标签模板名称为空
	ErrNameEmpty = apperrors.New(apperrors.ErrTagTemplateNameEmpty)
)

// TagError reports a tag or tag filter that does not fit its template.
type TagError struct {
	Code       int
	TemplateID uuid.UUID
	Expected   ValueType // declared type, empty when the template takes no value
	Got        ValueType // supplied type, empty when nothing was supplied
	Op         string    // filter operator, set for ErrUnsupportedTagFilter
}

func (e *TagError) Error() string {
	return e.PublicDetail()
}

func (e *TagError) ErrorCode() int {
	return e.Code
}

func (e *TagError) PublicDetail() string {
	id := e.TemplateID
	switch e.Code {
	case apperrors.ErrDuplicatedTagTemplate:
		return fmt.Sprintf("tag template `%s` is duplicated", id)
	case apperrors.ErrInvalidTagTemplate:
		return fmt.Sprintf("tag template `%s` does not exist", id)
	case apperrors.ErrMissingTagValue:
		return fmt.Sprintf("tag template `%s` requires a value of type `%s` but was not met", id, e.Expected)
	case apperrors.ErrExtraTagValue:
		return fmt.Sprintf("tag template `%s` does not accept any values, but a value of type `%s` was supplied", id, e.Got)
	case apperrors.ErrInvalidTagValue:
		return fmt.Sprintf("tag template `%s` expects a value of type `%s`, but a value of type `%s` was supplied", id, e.Expected, e.Got)
	case apperrors.ErrExtraTagValueFilter:
		return fmt.Sprintf("tag template `%s` does not accept any values, but a value filter was supplied", id)
	case apperrors.ErrInvalidTagValueFilter:
		return fmt.Sprintf("tag template `%s` expects a value of type `%s`, but a value filter of type `%s` was supplied", id, e.Expected, e.Got)
	case apperrors.ErrUnsupportedTagFilter:
		return fmt.Sprintf("tag template `%s` of type `%s` does not support the `%s` filter", id, e.Expected, e.Op)
	}
	return fmt.Sprintf("tag template `%s` is invalid", id)
}

func DuplicatedTemplate(id uuid.UUID) error {
	return &TagError{Code: apperrors.ErrDuplicatedTagTemplate, TemplateID: id}
}

func InvalidTemplate(id uuid.UUID) error {
	return &TagError{Code: apperrors.ErrInvalidTagTemplate, TemplateID: id}
}

// CheckValue validates a tag value against its template's declared type.
// declared nil means the template accepts no value.
func CheckValue(templateID uuid.UUID, declared *ValueType, v *Value) error {
	switch {
	case declared != nil && v == nil:
		return &TagError{Code: apperrors.ErrMissingTagValue, TemplateID: templateID, Expected: *declared}
	case declared == nil && v != nil:
		return &TagError{Code: apperrors.ErrExtraTagValue, TemplateID: templateID, Got: v.Type()}
	case declared != nil && *declared != v.Type():
		return &TagError{Code: apperrors.ErrInvalidTagValue, TemplateID: templateID, Expected: *declared, Got: v.Type()}
	}
	return nil
}

func ExtraValueFilter(id uuid.UUID) error {
	return &TagError{Code: apperrors.ErrExtraTagValueFilter, TemplateID: id}
}

// CheckFilterValue validates one operand of a tag value filter.
func CheckFilterValue(templateID uuid.UUID, declared *ValueType, v Value) error {
	if declared == nil {
		return ExtraValueFilter(templateID)
	}
	if *declared != v.Type() {
		return &TagError{Code: apperrors.ErrInvalidTagValueFilter, TemplateID: templateID, Expected: *declared, Got: v.Type()}
	}
	return nil
}

// CheckFilterOp rejects operators that make no sense for the declared type:
// contains needs a string column, ordering needs integer or string.
func CheckFilterOp(templateID uuid.UUID, declared ValueType, op string) error {
	switch op {
	case "contains":
		if declared == TypeString {
			return nil
		}
	case "lessThan", "lessThanOrEqual", "greaterThan", "greaterThanOrEqual":
		if declared != TypeBoolean {
			return nil
		}
	default:
		return nil
	}
	return &TagError{Code: apperrors.ErrUnsupportedTagFilter, TemplateID: templateID, Expected: declared, Op: op}
}
