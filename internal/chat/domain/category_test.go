package domain

import "testing"

func TestNormalize_SynonymTable(t *testing.T) {
	cases := []struct {
		raw  string
		want Category
	}{
		{"그래픽카드", CategoryVGA},
		{"GPU", CategoryVGA},
		{"video_card", CategoryVGA},
		{"메모리", CategoryRAM},
		{"Motherboard", CategoryMainboard},
		{"마더보드", CategoryMainboard},
		{"PSU", CategoryPower},
		{"파워", CategoryPower},
		{"쿨러", CategoryCooler},
		{"케이스", CategoryCase},
		{"  CPU  ", CategoryCPU},
		{"하드디스크", CategoryHDD},
		{"NVMe", CategorySSD},
	}

	for _, tc := range cases {
		if got := Normalize(tc.raw); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestNormalize_UnknownLabelPassesThroughLowercased(t *testing.T) {
	if got := Normalize("  Keyboard "); got != Category("keyboard") {
		t.Fatalf("expected lowercased passthrough, got %q", got)
	}
	if Normalize("keyboard").IsCanonical() {
		t.Fatal("passthrough label must not be canonical")
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"그래픽카드", "gpu", "cpu", "keyboard", "메인보드", ""}
	for _, input := range inputs {
		once := Normalize(input)
		twice := Normalize(string(once))
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}

func TestCategoryMatches_CrossAlias(t *testing.T) {
	if !CategoryVGA.Matches("gpu") {
		t.Fatal("vga must match gpu metadata")
	}
	if !CategoryVGA.Matches("VGA") {
		t.Fatal("vga must match its own token case-insensitively")
	}
	if CategoryVGA.Matches("cpu") {
		t.Fatal("vga must not match cpu")
	}
	if CategoryRAM.Matches("gpu") {
		t.Fatal("ram must not match gpu")
	}
}

func TestHDDDenied(t *testing.T) {
	denied := []string{
		"Seagate IronWolf 8TB",
		"WD Red Plus 4TB",
		"Seagate Exos Enterprise 16TB",
		"외장 하드 2TB",
		"Surveillance HDD 6TB",
	}
	for _, name := range denied {
		if !HDDDenied(name) {
			t.Errorf("expected %q to be denied", name)
		}
	}

	if HDDDenied("Seagate Barracuda 2TB") {
		t.Error("desktop drive must not be denied")
	}
}

func TestCategories_FixedSet(t *testing.T) {
	set := Categories()
	if len(set) != 9 {
		t.Fatalf("expected 9 canonical categories, got %d", len(set))
	}
	for _, category := range set {
		if !category.IsCanonical() {
			t.Errorf("category %q reported non-canonical", category)
		}
		if Normalize(string(category)) != category {
			t.Errorf("canonical token %q must normalize to itself", category)
		}
	}
}
