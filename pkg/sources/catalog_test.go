package sources

import (
	"testing"

	"github.com/pulsemon/pulsemon/pkg/monitor"
)

func TestCatalogDefinitionsValid(t *testing.T) {
	seen := make(map[monitor.SourceID]bool)

	for _, d := range Catalog() {
		if d.ID == "" {
			t.Error("definition with empty ID")
		}
		if seen[d.ID] {
			t.Errorf("duplicate ID %q", d.ID)
		}
		seen[d.ID] = true

		if d.Description == "" {
			t.Errorf("%s: missing description", d.ID)
		}
		if err := d.Config.Validate(); err != nil {
			t.Errorf("%s: invalid debounce config: %v", d.ID, err)
		}
		if d.newProbe == nil {
			t.Errorf("%s: missing probe constructor", d.ID)
		}
		if d.Every < 0 {
			t.Errorf("%s: negative stride %d", d.ID, d.Every)
		}
	}
}

func TestSpecBuildsProbe(t *testing.T) {
	for _, d := range Catalog() {
		spec := d.Spec()
		if spec.ID != d.ID {
			t.Errorf("spec ID %q != definition ID %q", spec.ID, d.ID)
		}
		if spec.Probe == nil {
			t.Errorf("%s: Spec() produced nil probe", d.ID)
		}
		if spec.Config != d.Config {
			t.Errorf("%s: config not carried into spec", d.ID)
		}
	}
}

func TestFind(t *testing.T) {
	d, ok := Find(SourceDropbox)
	if !ok {
		t.Fatal("Find(dropbox) not found")
	}
	if d.ID != SourceDropbox {
		t.Errorf("got %q, want %q", d.ID, SourceDropbox)
	}

	if _, ok := Find("no-such-source"); ok {
		t.Error("Find returned ok for unknown ID")
	}
}

func TestIDsMatchCatalogOrder(t *testing.T) {
	catalog := Catalog()
	ids := IDs()
	if len(ids) != len(catalog) {
		t.Fatalf("IDs length %d != catalog length %d", len(ids), len(catalog))
	}
	for i, d := range catalog {
		if ids[i] != d.ID {
			t.Errorf("ids[%d] = %q, want %q", i, ids[i], d.ID)
		}
	}
}
