package app

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "accepts_upper", input: "Y\n", wantErr: nil},
		{name: "accepts_lower", input: "y\n", wantErr: nil},
		{name: "declines", input: "N\n", wantErr: ErrAborted},
		{name: "declines_lower", input: "n\n", wantErr: ErrAborted},
		{name: "garbage_then_decline", input: "maybe\nok\nN\n", wantErr: ErrAborted},
		{name: "garbage_then_accept", input: "\n  \nY\n", wantErr: nil},
		{name: "eof_declines", input: "", wantErr: ErrAborted},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := confirm(false, strings.NewReader(tc.input))
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfirmAssumeYesSkipsPrompt(t *testing.T) {
	// The reader is never touched when the operator pre-approved.
	assert.NoError(t, confirm(true, strings.NewReader("N\n")))
}
