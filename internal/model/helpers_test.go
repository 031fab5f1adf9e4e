package model

import (
	"github.com/TerraMA2/terrama2-sub002/internal/semantics"
)

// row mimics a storage row.
type row map[string]interface{}

func (r row) Get() map[string]interface{} {
	return map[string]interface{}(r)
}

func testRegistry() *semantics.Registry {
	return semantics.NewRegistry(
		semantics.Descriptor{
			Code:           "DCP-generic",
			Name:           "DCP Generic",
			Driver:         "DCP-generic",
			DataSeriesType: semantics.TypeDCP,
			AllowStorage:   true,
			CustomFormat:   true,
			GUI: &semantics.GUI{
				Schema: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"mask":     map[string]interface{}{"type": "string"},
						"timezone": map[string]interface{}{"type": "string"},
					},
					"required": []interface{}{"mask"},
				},
			},
		},
		semantics.Descriptor{
			Code:           "OCCURRENCE-wfp",
			DataSeriesType: semantics.TypeOccurrence,
			GUI:            &semantics.GUI{},
		},
		semantics.Descriptor{
			Code:           "GRID-gdal",
			DataSeriesType: semantics.TypeGrid,
			GUI:            &semantics.GUI{},
		},
	)
}

func ptr[T any](v T) *T {
	return &v
}
