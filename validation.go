package auth

import (
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"
)

// firstValidationMessage surfaces the first violated field's message,
// matching the error payload contract of the API.
func firstValidationMessage(err error) string {
	if err == nil {
		return ""
	}

	verrs, ok := err.(validation.Errors)
	if !ok {
		return err.Error()
	}

	fields := make([]string, 0, len(verrs))
	for field := range verrs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		if verrs[field] != nil {
			return verrs[field].Error()
		}
	}

	return err.Error()
}
