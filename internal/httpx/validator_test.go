package httpx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type signupLike struct {
	FullName string `json:"fullName" validate:"notblank,max=10"`
	Email    string `json:"email" validate:"required,email"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name       string
		input      any
		wantFields []string
	}{
		{"valid", &signupLike{FullName: "A", Email: "a@x.com"}, nil},
		{"blank name", signupLike{FullName: "   ", Email: "a@x.com"}, []string{"fullName"}},
		{"bad email and long name", signupLike{FullName: "abcdefghijkl", Email: "nope"}, []string{"fullName", "email"}},
		{"non-struct", map[string]string{"a": "b"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			details := ValidateStruct(tt.input)

			var fields []string
			for _, d := range details {
				fields = append(fields, d.Field)
				assert.NotEmpty(t, d.Message)
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestValidateStruct_Messages(t *testing.T) {
	details := ValidateStruct(signupLike{Email: "a@x.com"})

	assert.Len(t, details, 1)
	assert.Equal(t, "fullName is required.", details[0].Message)
}
