package buildinfo

import "testing"

func TestInfo(t *testing.T) {
	old := Version
	defer func() { Version = old }()
	Version = "v0.3.0"

	if got := Get().String(); got != "worldmap v0.3.0 (none, unknown)" {
		t.Errorf("String() = %q", got)
	}
	if got := Template(); got != "{{.Name}} v0.3.0 (none, unknown)\n" {
		t.Errorf("Template() = %q", got)
	}
}
