package remote

import "testing"

func TestFindCommandSpec(t *testing.T) {
	spec, ok := findCommandSpec("get_statistics")
	if !ok || spec.Name != "get_statistics" {
		t.Fatalf("expected to find get_statistics, got %+v ok=%v", spec, ok)
	}

	if _, ok := findCommandSpec("nonexistent"); ok {
		t.Fatal("expected nonexistent command to not be found")
	}
}

func TestCommandSpecs_AllNamesUnique(t *testing.T) {
	seen := make(map[string]bool, len(commandSpecs))
	for _, c := range commandSpecs {
		if seen[c.Name] {
			t.Fatalf("duplicate command name %q", c.Name)
		}
		seen[c.Name] = true
	}
}
