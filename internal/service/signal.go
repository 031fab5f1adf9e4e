package service

import (
	"fmt"

	"github.com/TerraMA2/terrama2-sub002/internal/common"
)

// Signal identifies the kind of a framed message exchanged with a native
// TerraMA2 service.
type Signal uint32

const (
	SignalTerminateService Signal = 0
	SignalStatus           Signal = 1
	SignalAddData          Signal = 2
	SignalStartProcess     Signal = 3
	SignalLog              Signal = 4
	SignalRemoveData       Signal = 5
	SignalProcessFinished  Signal = 6
	SignalUpdateService    Signal = 7
	SignalValidateProcess  Signal = 8
)

var signalNames = map[Signal]string{
	SignalTerminateService: "TERMINATE_SERVICE",
	SignalStatus:           "STATUS",
	SignalAddData:          "ADD_DATA",
	SignalStartProcess:     "START_PROCESS",
	SignalLog:              "LOG",
	SignalRemoveData:       "REMOVE_DATA",
	SignalProcessFinished:  "PROCESS_FINISHED",
	SignalUpdateService:    "UPDATE_SERVICE",
	SignalValidateProcess:  "VALIDATE_PROCESS",
}

func (s Signal) String() string {
	if name, ok := signalNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SIGNAL(%d)", uint32(s))
}

// Valid reports whether s is a known signal.
func (s Signal) Valid() bool {
	_, ok := signalNames[s]
	return ok
}

// ParseSignal validates a raw signal read off the wire.
func ParseSignal(v uint32) (Signal, error) {
	s := Signal(v)
	if !s.Valid() {
		return 0, fmt.Errorf("%w: invalid signal %d", common.ErrProtocol, v)
	}
	return s, nil
}

// Type is a native service type.
type Type string

const (
	TypeCollector    Type = "COLLECTOR"
	TypeAnalysis     Type = "ANALYSIS"
	TypeView         Type = "VIEW"
	TypeAlert        Type = "ALERT"
	TypeInterpolator Type = "INTERPOLATOR"
	TypeStorage      Type = "STORAGE"
)
