package errors

import (
	goerrors "errors"
	"reflect"
	"strings"

	apperrors "github.com/target/storefront-go/internal/errors"
)

// Classify returns a normalized error class suitable for tagging metrics/logs.
// Application errors classify by their code; anything else by the innermost
// concrete type, e.g. "net_operror".
func Classify(err error) string {
	if err == nil {
		return ""
	}

	if code := apperrors.GetCode(err); code != "" {
		// Transport errors carry the interesting detail in their cause.
		if code != apperrors.ErrCodeTransport {
			return string(code)
		}
		if cause := goerrors.Unwrap(err); cause != nil {
			return "transport_" + typeName(innermost(cause))
		}
		return string(code)
	}

	return typeName(innermost(err))
}

func innermost(err error) error {
	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			return err
		}
		err = unwrapped
	}
}

func typeName(err error) string {
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}
	name := strings.ToLower(strings.ReplaceAll(t.String(), ".", "_"))
	if name == "" {
		return "unknown"
	}
	return name
}
