package model

import (
	"fmt"

	"github.com/TerraMA2/terrama2-sub002/internal/common"
)

// ErrUnknownKind is returned by Build for kinds it cannot construct.
var ErrUnknownKind = fmt.Errorf("unknown entity kind: %w", common.ErrValidation)

// Build constructs the entity of the given kind from any accepted input
// shape. Only data series and data sets can fail on their content.
func Build(kind Kind, input interface{}, registry SemanticsLookup) (Entity, error) {
	switch kind {
	case KindDataProvider:
		return NewDataProvider(input), nil
	case KindDataSeries:
		if registry == nil {
			return nil, fmt.Errorf("build %s: no semantics registry", kind)
		}
		ds, err := NewDataSeries(input, registry)
		if err != nil {
			return nil, err
		}
		return ds, nil
	case KindDataSet:
		ds, err := NewDataSet(input)
		if err != nil {
			return nil, err
		}
		return ds, nil
	case KindSchedule:
		return NewSchedule(input), nil
	case KindAutomaticSchedule:
		return NewAutomaticSchedule(input), nil
	case KindConditionalSchedule:
		return NewConditionalSchedule(input), nil
	case KindReprocessingHistoricalData:
		return NewReprocessingHistoricalData(input), nil
	case KindFilter:
		return NewFilter(input), nil
	case KindIntersection:
		return NewIntersection(input), nil
	case KindCollector:
		return NewCollector(input), nil
	case KindAnalysis:
		return NewAnalysis(input), nil
	case KindAnalysisDataSeries:
		return NewAnalysisDataSeries(input), nil
	case KindAnalysisOutputGrid, OutputGridClass:
		return NewAnalysisOutputGrid(input), nil
	case KindLegend:
		return NewLegend(input), nil
	case KindRisk:
		return NewRisk(input), nil
	case KindAlert:
		return NewAlert(input), nil
	case KindAlertAttachedView:
		return NewAlertAttachedView(input), nil
	case KindStorage:
		return NewStorage(input), nil
	case KindView:
		return NewView(input), nil
	case KindViewStyleLegend:
		return NewViewStyleLegend(input), nil
	case KindRegisteredView:
		return NewRegisteredView(input), nil
	case KindInterpolator:
		return NewInterpolator(input), nil
	case KindLog:
		return NewLog(input), nil
	case KindAbstract, "":
		return nil, NewDomainError(ErrAbstractInstantiation, fmt.Sprintf("cannot build %q", kind))
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// BuildTagged reads the kind from the "class" key of input.
func BuildTagged(input interface{}, registry SemanticsLookup) (Entity, error) {
	p := ToParams(input)
	return Build(Kind(p.Text(KindKey)), p, registry)
}

// Kinds lists every concrete kind Build accepts.
func Kinds() []Kind {
	return []Kind{
		KindDataProvider, KindDataSeries, KindDataSet, KindSchedule, KindAutomaticSchedule,
		KindConditionalSchedule, KindReprocessingHistoricalData, KindFilter, KindIntersection,
		KindCollector, KindAnalysis, KindAnalysisDataSeries, KindAnalysisOutputGrid, KindLegend,
		KindRisk, KindAlert, KindAlertAttachedView, KindStorage, KindView, KindViewStyleLegend,
		KindRegisteredView, KindInterpolator, KindLog,
	}
}
