package transforms

import (
	"reflect"
	"testing"
)

func TestOmit(t *testing.T) {
	src := map[string]interface{}{"id": 1, "legend_id": 2, "name": "low"}
	got := Omit(src, "id", "legend_id")

	want := map[string]interface{}{"name": "low"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Omit() = %v, want %v", got, want)
	}
	if _, ok := src["id"]; !ok {
		t.Error("Omit must not modify its input")
	}
}

func TestDeepCopy(t *testing.T) {
	src := map[string]interface{}{
		"nested": map[string]interface{}{"k": "v"},
		"list":   []interface{}{map[string]interface{}{"x": 1}},
	}
	dst := DeepCopy(src)

	dst["nested"].(map[string]interface{})["k"] = "changed"
	dst["list"].([]interface{})[0].(map[string]interface{})["x"] = 2

	if src["nested"].(map[string]interface{})["k"] != "v" {
		t.Error("nested map shared with copy")
	}
	if src["list"].([]interface{})[0].(map[string]interface{})["x"] != 1 {
		t.Error("nested slice shared with copy")
	}
	empty := DeepCopy(map[string]interface{}{"attributes": []string{}})["attributes"].([]string)
	if empty == nil || len(empty) != 0 {
		t.Errorf("empty string list copied as %#v, want []string{}", empty)
	}
	if DeepCopy(nil) != nil {
		t.Error("DeepCopy(nil) should be nil")
	}
}

func TestKeyValueMap(t *testing.T) {
	rows := []map[string]interface{}{
		{"key": "number_of_neighbors", "value": "3"},
		{"key": "power_factor", "value": "2"},
		{"key": "", "value": "ignored"},
	}

	got := KeyValueMap(rows, nil)
	want := map[string]interface{}{"number_of_neighbors": "3", "power_factor": "2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("KeyValueMap() = %v, want %v", got, want)
	}

	numeric := KeyValueMap(rows, Number)
	if numeric["number_of_neighbors"] != float64(3) {
		t.Errorf("value transform not applied: %v", numeric)
	}
}

func TestStringMap(t *testing.T) {
	got := StringMap(map[string]interface{}{"a": float64(1), "b": nil, "c": "x", "d": true})
	want := map[string]interface{}{"a": "1", "b": "", "c": "x", "d": "true"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("StringMap() = %v, want %v", got, want)
	}
}
