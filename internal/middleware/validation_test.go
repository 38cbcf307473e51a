package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monocart/internal/validate"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
		fields  []string
	}{
		{name: "valid", body: `{"email":"a@b.c","password":"x"}`},
		{name: "malformed", body: `{"email":`, wantErr: ErrInvalidBody},
		{name: "unknown field", body: `{"email":"a@b.c","password":"x","admin":true}`, wantErr: ErrInvalidBody},
		{name: "invalid email", body: `{"email":"nope","password":"x"}`, fields: []string{"email"}},
		{name: "missing both", body: `{}`, fields: []string{"email", "password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var req loginRequest
			err := DecodeAndValidate(r, &req)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.fields != nil:
				var verr *validate.Error
				require.ErrorAs(t, err, &verr)
				var got []string
				for _, f := range verr.Fields {
					got = append(got, f.Field)
				}
				assert.Equal(t, tt.fields, got)
			default:
				assert.NoError(t, err)
			}
		})
	}
}
