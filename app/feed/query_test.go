package feed

import "testing"

func TestBuildMatchQuery(t *testing.T) {
	tests := []struct {
		query    string
		expected string
	}{
		{"Laptop-tasche -hülle", `"laptop-tasche"* NOT "hülle"*`},
		{"laptop -tasche", `"laptop"* NOT "tasche"*`},
		{"  Samsung   Galaxy S24 ", `"samsung"* AND "galaxy"* AND "s24"*`},
		{"TV 55\" OLED!", `"oled"*`},
		{"iPhone, 15 Pro?", `"iphone"* AND "pro"*`},
		{"monitor 500€", `"monitor"* AND "500€"*`},
		{"-hülle", ""},
		{"ab in", ""},
		{"€€€ ---", ""},
		{"$$$a", ""},
		{"laptop €€a -$$b", `"laptop"*`},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := BuildMatchQuery(tt.query); got != tt.expected {
				t.Errorf("BuildMatchQuery(%q) = %q, want %q", tt.query, got, tt.expected)
			}
		})
	}
}

func TestRowAccessors(t *testing.T) {
	row := make(Row, MinColumns)
	row[colLink] = " https://a.example.com/1 "
	row[colTitle] = "  Dell   Latitude "
	row[colImageFallback] = "https://img.example.com/fallback.jpg"
	row[colPrice] = "1.234,56"
	row[colMerchant] = "Shop"

	if err := row.Validate(); err != nil {
		t.Fatalf("Expected valid row, got %v", err)
	}
	if row.Title() != "Dell Latitude" || row.Link() != "https://a.example.com/1" {
		t.Errorf("Unexpected title/link %q %q", row.Title(), row.Link())
	}
	if row.Image() != "https://img.example.com/fallback.jpg" {
		t.Errorf("Expected fallback image, got %q", row.Image())
	}
	if p := row.Product(); p.Price != "1234.56" {
		t.Errorf("Expected normalized price 1234.56, got %s", p.Price)
	}

	if err := Row([]string{"a", "b"}).Validate(); err == nil {
		t.Error("Expected error for short row")
	}
}
