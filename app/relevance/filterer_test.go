package relevance

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestFilterer(t *testing.T) *Filterer {
	t.Helper()
	rules, err := DefaultRules()
	if err != nil {
		t.Fatalf("Failed to parse default rules: %v", err)
	}
	return NewFilterer(rules)
}

func TestFilterer_IsAccessory(t *testing.T) {
	filterer := newTestFilterer(t)

	tests := []struct {
		title    string
		expected bool
	}{
		{"EXACOMPTA Laptophülle Business 13-14", true},
		{"Lenovo IdeaPad 3 15ITL6 Laptop", false},
		{"Spigen Ultra Hybrid Case für iPhone 15", true},
		{"Anker USB-C Kabel 2m", true},
		{"Samsung Galaxy S24 128GB", false},
		{"Logitech MX Master 3S Maus", true},
		{"Fellowes Laptop-Arm Ergänzung Vista", true},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := filterer.IsAccessory(tt.title); got != tt.expected {
				t.Errorf("IsAccessory(%q) = %v, want %v", tt.title, got, tt.expected)
			}
		})
	}
}

func TestFilterer_IsAccessoryRequested(t *testing.T) {
	filterer := newTestFilterer(t)

	if !filterer.IsAccessoryRequested("Laptop Tasche 15 Zoll") {
		t.Error("Query for a laptop bag should request an accessory")
	}
	if filterer.IsAccessoryRequested("günstiger Laptop") {
		t.Error("Plain laptop query should not request an accessory")
	}
}

func TestFilterer_IsRelevantProduct(t *testing.T) {
	filterer := newTestFilterer(t)

	tests := []struct {
		name     string
		title    string
		keyword  string
		expected bool
	}{
		{"laptop arm is not a laptop", "Fellowes Laptop-Arm Ergänzung Vista", "laptop", false},
		{"brand match", "Dell Latitude 5420 Notebook", "laptop", true},
		{"alias resolution notebook", "Lenovo ThinkPad E14", "notebook", true},
		{"alias resolution handy", "Xiaomi Redmi Note 13", "handy", true},
		{"exclusion beats brand", "Samsung Galaxy S24 Hülle transparent", "smartphone", false},
		{"no brand or spec", "Universal Tischgerät Schwarz", "smartphone", false},
		{"spec match", "Refurbished 5G Smartphone 6,5 Zoll", "smartphone", true},
		{"unknown category is permissive", "Irgendein Gartenschlauch 20m", "gartenschlauch", true},
		{"empty keyword is permissive", "Irgendwas", "", true},
		{"multi word keyword", "LG 27GP850 27 Zoll Gaming", "gaming monitor", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := filterer.IsRelevantProduct(tt.title, tt.keyword); got != tt.expected {
				t.Errorf("IsRelevantProduct(%q, %q) = %v, want %v", tt.title, tt.keyword, got, tt.expected)
			}
		})
	}
}

func TestFilterer_PureFunctions(t *testing.T) {
	filterer := newTestFilterer(t)

	titles := []string{"Dell Latitude 5420 Notebook", "EXACOMPTA Laptophülle Business 13-14", "Fellowes Laptop-Arm Ergänzung Vista"}
	for _, title := range titles {
		firstAccessory := filterer.IsAccessory(title)
		firstRelevant := filterer.IsRelevantProduct(title, "laptop")
		for i := 0; i < 5; i++ {
			if filterer.IsAccessory(title) != firstAccessory {
				t.Errorf("IsAccessory(%q) changed between calls", title)
			}
			if filterer.IsRelevantProduct(title, "laptop") != firstRelevant {
				t.Errorf("IsRelevantProduct(%q) changed between calls", title)
			}
		}
	}
}

func TestFilterer_Keep(t *testing.T) {
	filterer := newTestFilterer(t)

	if keep, reason := filterer.Keep("EXACOMPTA Laptophülle Business 13-14", "laptop", "laptop"); keep || reason != "accessory" {
		t.Errorf("Expected accessory to be dropped, got keep=%v reason=%q", keep, reason)
	}

	if keep, _ := filterer.Keep("Universal Laptop Tasche Schwarz", "laptop tasche", "tasche"); !keep {
		t.Error("Expected accessory to be kept when the query asks for it")
	}

	if keep, _ := filterer.Keep("Universal Laptop Tasche Schwarz", "laptop tasche", "laptop tasche"); !keep {
		t.Error("Requested accessory should not be rejected by the laptop exclusions")
	}

	if keep, reason := filterer.Keep("Noname Rechenmaschine", "laptop", "laptop"); keep || reason != "irrelevant" {
		t.Errorf("Expected irrelevant item to be dropped, got keep=%v reason=%q", keep, reason)
	}
}

func TestLoadRulesFromFile(t *testing.T) {
	tempDir := t.TempDir()
	content := `
accessory_terms: [Hülle]
accessory_intents: [hülle]
aliases:
  Rad: fahrrad
categories:
  Fahrrad:
    brands: [Cube, Canyon]
    specs: [shimano]
    exclusions: [Klingel]
`
	path := filepath.Join(tempDir, "rules.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatal(err)
	}
	filterer := NewFilterer(rules)

	if !filterer.IsRelevantProduct("CUBE Aim Race 29", "rad") {
		t.Error("Expected brand match through alias to be relevant")
	}
	if filterer.IsRelevantProduct("Cube Klingel", "fahrrad") {
		t.Error("Expected exclusion to reject")
	}
	if !filterer.IsAccessory("Handyhülle") {
		t.Error("Expected lowercased accessory term to match")
	}
}

func TestParseRulesValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no accessory terms", "categories: {}"},
		{"empty category", "accessory_terms: [x]\ncategories:\n  laptop: {exclusions: [tasche]}"},
		{"dangling alias", "accessory_terms: [x]\naliases: {handy: smartphone}"},
		{"broken yaml", "accessory_terms: [x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseRules([]byte(tt.content)); err == nil {
				t.Error("Expected error for invalid rules")
			}
		})
	}
}
