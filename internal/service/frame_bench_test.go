package service

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/TerraMA2/terrama2-sub002/internal/model"
)

func benchBatch(n int) *Batch {
	b := NewBatch()
	for i := 0; i < n; i++ {
		b.Add(model.NewCollector(map[string]interface{}{
			"id":                 i + 1,
			"project_id":         1,
			"data_series_input":  2,
			"data_series_output": 3,
			"schedule_type":      "1",
			"Schedule":           map[string]interface{}{"id": i + 1, "frequency": 15, "frequency_unit": "min"},
		}))
		b.Add(model.NewStorage(map[string]interface{}{
			"id":        i + 1,
			"name":      fmt.Sprintf("retention-%d", i),
			"keep_data": 30,
		}))
	}
	return b
}

func BenchmarkBatchPayload_100(b *testing.B) {
	batch := benchBatch(50)
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = batch.Payload()
	}
}

func BenchmarkEncode_AddData_100(b *testing.B) {
	payload := benchBatch(50).Payload()
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Encode(SignalAddData, payload); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkReadFrame_AddData_100(b *testing.B) {
	data, err := Encode(SignalAddData, benchBatch(50).Payload())
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := ReadFrame(bytes.NewReader(data), 0); err != nil {
			b.Fatal(err)
		}
	}
}
