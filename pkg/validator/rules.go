package validator

import (
	"fmt"
	"regexp"
	"strings"
)

var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// RequiredString fails for empty or whitespace-only values.
func RequiredString(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: ValidationError{Field: field, Message: "field is required", Code: "required"},
	}
}

func MaxLenString(field, value string, max int) Rule {
	return Rule{
		Check: func() bool { return len(value) <= max },
		Error: ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be at most %d characters long", max),
			Code:    "max_length",
		},
	}
}

// ValidSlug accepts lowercase letters and digits separated by single hyphens.
// Empty values pass; combine with RequiredString when the field is mandatory.
func ValidSlug(field, value string) Rule {
	return Rule{
		Check: func() bool { return value == "" || slugRegex.MatchString(value) },
		Error: ValidationError{
			Field:   field,
			Message: "must contain only lowercase letters, numbers and single hyphens",
			Code:    "slug",
		},
	}
}

// RangeNum validates min <= value <= max.
func RangeNum[T Numeric](field string, value, min, max T) Rule {
	return Rule{
		Check: func() bool { return value >= min && value <= max },
		Error: ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be between %v and %v", min, max),
			Code:    "range",
		},
	}
}

func MinNum[T Numeric](field string, value, min T) Rule {
	return Rule{
		Check: func() bool { return value >= min },
		Error: ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be at least %v", min),
			Code:    "min",
		},
	}
}

func MaxLenSlice[T any](field string, value []T, max int) Rule {
	return Rule{
		Check: func() bool { return len(value) <= max },
		Error: ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must contain at most %d items", max),
			Code:    "max_items",
		},
	}
}

// EachMaxLen checks every string in value against a length limit.
func EachMaxLen(field string, value []string, max int) Rule {
	return Rule{
		Check: func() bool {
			for _, v := range value {
				if len(v) > max {
					return false
				}
			}
			return true
		},
		Error: ValidationError{
			Field:   field,
			Message: fmt.Sprintf("items must be at most %d characters long", max),
			Code:    "item_max_length",
		},
	}
}
