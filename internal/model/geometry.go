package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
)

// splitEWKT separates an optional "SRID=n;" prefix from a WKT string.
func splitEWKT(s string) (srid string, body string) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(strings.ToUpper(s), "SRID=") {
		if i := strings.Index(s, ";"); i > 0 {
			return s[len("SRID="):i], strings.TrimSpace(s[i+1:])
		}
	}
	return "", s
}

// ParseGeometry reads a geometry given as WKT, EWKT or GeoJSON (text or
// decoded mapping).
func ParseGeometry(value interface{}) (orb.Geometry, error) {
	switch v := value.(type) {
	case nil:
		return nil, fmt.Errorf("no geometry")
	case string:
		trimmed := strings.TrimSpace(v)
		if strings.HasPrefix(trimmed, "{") {
			return parseGeoJSON([]byte(trimmed))
		}
		_, body := splitEWKT(trimmed)
		g, err := wkt.Unmarshal(body)
		if err != nil {
			return nil, fmt.Errorf("parse wkt: %w", err)
		}
		return g, nil
	case []byte:
		return ParseGeometry(string(v))
	case map[string]interface{}, Params:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode geojson: %w", err)
		}
		return parseGeoJSON(data)
	default:
		return nil, fmt.Errorf("unsupported geometry value %T", value)
	}
}

func parseGeoJSON(data []byte) (orb.Geometry, error) {
	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}
	return g.Geometry(), nil
}

// ParsePoint reads a point geometry.
func ParsePoint(value interface{}) (orb.Point, error) {
	g, err := ParseGeometry(value)
	if err != nil {
		return orb.Point{}, err
	}
	p, ok := g.(orb.Point)
	if !ok {
		return orb.Point{}, fmt.Errorf("expected a point, got %s", g.GeoJSONType())
	}
	return p, nil
}

// geometryText renders a geometry mapping as WKT when possible and returns
// other values unchanged.
func geometryText(value interface{}) interface{} {
	switch value.(type) {
	case map[string]interface{}, Params:
		g, err := ParseGeometry(value)
		if err != nil {
			return value
		}
		return wkt.MarshalString(g)
	}
	return value
}
