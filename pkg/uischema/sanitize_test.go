package uischema_test

import (
	"strings"
	"testing"

	"github.com/goliatone/go-formengine/pkg/uischema"
)

func TestSanitizeIcon(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		keep    []string
		dropped []string
	}{
		{
			name:    "script removed",
			input:   `  <svg viewBox="0 0 24 24"><script>alert('x')</script><path d="M0 0h24v24H0z" /></svg>`,
			keep:    []string{"<svg", `viewBox="0 0 24 24"`, `<path d="M0 0h24v24H0z"`},
			dropped: []string{"script", "alert"},
		},
		{
			name:    "event handlers removed",
			input:   `<svg onload="x()"><circle cx="1" cy="1" r="1" onclick="y()"/></svg>`,
			keep:    []string{"<circle", `r="1"`},
			dropped: []string{"onload", "onclick"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := uischema.SanitizeIcon(tt.input)
			for _, want := range tt.keep {
				if !strings.Contains(got, want) {
					t.Fatalf("expected %q in %q", want, got)
				}
			}
			for _, bad := range tt.dropped {
				if strings.Contains(got, bad) {
					t.Fatalf("unexpected %q in %q", bad, got)
				}
			}
		})
	}
	if got := uischema.SanitizeIcon("   "); got != "" {
		t.Fatalf("blank input = %q", got)
	}
}
