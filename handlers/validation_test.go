package handlers

import (
	"strings"
	"testing"

	"github.com/gin-gonic/gin/binding"
)

func TestCustomRules(t *testing.T) {
	RegisterValidators()

	cases := []struct {
		name    string
		content string
		ok      bool
		message string
	}{
		{"plain", "hello", true, ""},
		{"empty", "", false, "Question content is required"},
		{"whitespace", " \t\n ", false, "Question content is required"},
		{"limit in runes", strings.Repeat("ü", 1000), true, ""},
		{"over limit", strings.Repeat("a", 1001), false, "Question must be less than 1000 characters"},
		{"padding ignored", "   " + strings.Repeat("a", 1000) + "   ", true, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(&SubmitQuestionRequest{Content: tc.content})
			if (err == nil) != tc.ok {
				t.Fatalf("expected ok=%v, got err=%v", tc.ok, err)
			}
			if err != nil {
				if got := bindingMessage(err, submitMessages, "fallback"); got != tc.message {
					t.Fatalf("expected %q, got %q", tc.message, got)
				}
			}
		})
	}
}
