package normalize

import "testing"

func TestNormalizers(t *testing.T) {
	tests := []struct {
		name  string
		fn    func(string) string
		input string
		want  string
	}{
		{"email lowercased", Email, "  Rosa.Diaz@Example.ORG ", "rosa.diaz@example.org"},
		{"email blank", Email, "   ", ""},
		{"name keeps case", Name, "  Rosa Diaz  ", "Rosa Diaz"},
		{"name blank", Name, "", ""},
		{"status lowercased", Status, " Disabled ", "disabled"},
		{"role lowercased", Role, "  CAREGIVER ", "caregiver"},
		{"role underscore kept", Role, "Agency_Admin", "agency_admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.input); got != tt.want {
				t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}
