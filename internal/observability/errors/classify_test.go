package errors

import (
	"errors"
	"fmt"
	"net"
	"testing"

	apperrors "github.com/target/storefront-go/internal/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "app error", err: apperrors.MapHTTPStatus(401, ""), want: "unauthorized"},
		{name: "wrapped app error", err: fmt.Errorf("fetch cart: %w", apperrors.Validation("bad")), want: "validation"},
		{
			name: "transport",
			err:  apperrors.MapTransportError(&net.OpError{Op: "dial", Err: errors.New("refused")}),
			want: "transport_errors_errorstring",
		},
		{name: "plain", err: errors.New("boom"), want: "errors_errorstring"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}
