package transforms

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  interface{}
	}{
		{"nil", nil, nil},
		{"float string", "12.5", 12.5},
		{"int string", "4674", float64(4674)},
		{"blank string", "  ", float64(0)},
		{"garbage", "abc", nil},
		{"int64", int64(7), float64(7)},
		{"bool", true, float64(1)},
		{"json number", json.Number("3.25"), 3.25},
		{"bytes", []byte("9"), float64(9)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Number(tt.input)
			if got != tt.want {
				t.Errorf("Number(%v) = %v (%T), want %v (%T)", tt.input, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestNumberIfTruthy(t *testing.T) {
	if got := NumberIfTruthy(nil); got != nil {
		t.Errorf("nil should pass through, got %v", got)
	}
	if got := NumberIfTruthy(""); got != "" {
		t.Errorf("empty string should pass through, got %v", got)
	}
	if got := NumberIfTruthy(int64(0)); got != int64(0) {
		t.Errorf("zero should pass through unchanged, got %v (%T)", got, got)
	}
	if got := NumberIfTruthy("-9999"); got != float64(-9999) {
		t.Errorf("truthy string should be cast, got %v (%T)", got, got)
	}
	if got := NumberIfTruthy("0"); got != float64(0) {
		t.Errorf("\"0\" is truthy and should be cast, got %v (%T)", got, got)
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		input interface{}
		want  bool
	}{
		{nil, false},
		{false, false},
		{true, true},
		{"", false},
		{"0", true},
		{0, false},
		{int64(3), true},
		{0.0, false},
		{map[string]interface{}{}, true},
	}
	for _, tt := range tests {
		if got := Truthy(tt.input); got != tt.want {
			t.Errorf("Truthy(%#v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestToInt64(t *testing.T) {
	tests := []struct {
		input   interface{}
		want    int64
		wantErr bool
	}{
		{"42", 42, false},
		{" 42 ", 42, false},
		{"42.9", 42, false},
		{float64(3), 3, false},
		{int32(5), 5, false},
		{json.Number("11"), 11, false},
		{"x", 0, true},
		{struct{}{}, 0, true},
	}
	for _, tt := range tests {
		got, err := ToInt64(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ToInt64(%#v) err = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ToInt64(%#v) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestToString(t *testing.T) {
	tests := []struct {
		input interface{}
		want  string
	}{
		{"a", "a"},
		{float64(2), "2"},
		{2.5, "2.5"},
		{int64(-1), "-1"},
		{true, "true"},
	}
	for _, tt := range tests {
		got, err := ToString(tt.input)
		if err != nil {
			t.Fatalf("ToString(%#v): %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ToString(%#v) = %q, want %q", tt.input, got, tt.want)
		}
	}
	if _, err := ToString(nil); err == nil {
		t.Error("expected error for nil")
	}
}

func TestOptionalID(t *testing.T) {
	if got := OptionalID(nil); got != nil {
		t.Errorf("OptionalID(nil) = %v", got)
	}
	if got := OptionalID("12"); got != int64(12) {
		t.Errorf("OptionalID(\"12\") = %v (%T)", got, got)
	}
	if got := OptionalID("abc"); got != nil {
		t.Errorf("OptionalID(\"abc\") = %v", got)
	}
}

func TestIDList(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  []int64
	}{
		{"nil", nil, []int64{}},
		{"interfaces", []interface{}{float64(1), "2", "x"}, []int64{1, 2}},
		{"pg array", "{3,4}", []int64{3, 4}},
		{"empty pg array", "{}", []int64{}},
		{"ints", []int{5}, []int64{5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IDList(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("IDList(%#v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2017, 3, 1, 12, 30, 0, 0, time.UTC)

	if got := FormatTimestamp(ts); got != "2017-03-01T12:30:00.000Z" {
		t.Errorf("FormatTimestamp(time) = %v", got)
	}
	if got := FormatTimestamp("2017-03-01 12:30:00"); got != "2017-03-01T12:30:00.000Z" {
		t.Errorf("FormatTimestamp(pg string) = %v", got)
	}
	if got := FormatTimestamp("not a date"); got != "not a date" {
		t.Errorf("unparsable strings should pass through, got %v", got)
	}
	if got := FormatTimestamp(""); got != nil {
		t.Errorf("empty string should become nil, got %v", got)
	}
	if got := FormatTimestamp(time.Time{}); got != nil {
		t.Errorf("zero time should become nil, got %v", got)
	}
}
