package allgather

import "testing"

func TestNaiveAllgatherer(t *testing.T) {
	RunAllgathererTests(t, NaiveAllgatherer{})
}

func TestTreeAllgatherer(t *testing.T) {
	RunAllgathererTests(t, TreeAllgatherer{})
}

func TestByName(t *testing.T) {
	for _, name := range []string{"", "naive", "tree"} {
		if _, ok := ByName(name); !ok {
			t.Errorf("expected allgatherer for %q", name)
		}
	}
	if _, ok := ByName("ring"); ok {
		t.Error("unexpected allgatherer for \"ring\"")
	}
}
