package civil

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2025-03-19", "2025-03-19", false},
		{"2025-03-19T23:30:00Z", "2025-03-19", false},
		{"2025-03-19T23:30:00-05:00", "2025-03-20", false},
		{"19/03/2025", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Parse(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil || got.String() != tt.want {
			t.Errorf("Parse(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestDate_JSON(t *testing.T) {
	type payload struct {
		Admitted  Date  `json:"admissionDate"`
		Discharge *Date `json:"dischargeDate,omitempty"`
	}

	var p payload
	if err := json.Unmarshal([]byte(`{"admissionDate":"2025-03-19","dischargeDate":null}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Admitted != NewDate(2025, time.March, 19) {
		t.Errorf("unexpected admission date %v", p.Admitted)
	}
	if p.Discharge != nil {
		t.Errorf("expected nil discharge date, got %v", p.Discharge)
	}

	out, _ := json.Marshal(p)
	if string(out) != `{"admissionDate":"2025-03-19"}` {
		t.Errorf("unexpected JSON %s", out)
	}

	if err := json.Unmarshal([]byte(`{"admissionDate":"soon"}`), &p); err == nil {
		t.Error("expected error for bad date")
	}
	if err := json.Unmarshal([]byte(`{"admissionDate":20250319}`), &p); err == nil {
		t.Error("expected error for numeric date")
	}
}

func TestDate_Zero(t *testing.T) {
	var d Date
	if !d.IsZero() || d.String() != "" {
		t.Error("expected zero date")
	}
	out, _ := json.Marshal(d)
	if string(out) != "null" {
		t.Errorf("expected null, got %s", out)
	}
	if d.TimePtr() != nil {
		t.Error("expected nil time pointer for zero date")
	}
	var nilDate *Date
	if nilDate.TimePtr() != nil {
		t.Error("expected nil time pointer for nil date")
	}
}

func TestFromTimePtr(t *testing.T) {
	if FromTimePtr(nil) != nil {
		t.Error("expected nil")
	}
	ts := time.Date(2024, 12, 31, 22, 0, 0, 0, time.UTC)
	if got := FromTimePtr(&ts); got == nil || got.String() != "2024-12-31" {
		t.Errorf("unexpected %v", got)
	}
}
