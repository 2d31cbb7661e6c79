package cmdlib

import (
	"sort"
	"testing"
)

func TestTopicsSorted(t *testing.T) {
	topics := Topics()
	if len(topics) == 0 {
		t.Fatal("no topics")
	}
	if !sort.StringsAreSorted(topics) {
		t.Errorf("topics not sorted: %v", topics)
	}
}

func TestFragments(t *testing.T) {
	for _, topic := range Topics() {
		frags, err := Fragments(topic)
		if err != nil {
			t.Errorf("Fragments(%q): %v", topic, err)
			continue
		}
		if len(frags) == 0 {
			t.Errorf("topic %q has no fragments", topic)
		}
		for _, f := range frags {
			if f.Command == "" || f.Purpose == "" {
				t.Errorf("topic %q has an incomplete fragment: %+v", topic, f)
			}
		}
	}

	if _, err := Fragments("no-such-topic"); err == nil {
		t.Error("unknown topic accepted")
	}
}
