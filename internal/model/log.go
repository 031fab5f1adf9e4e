package model

// LogStatus is the state of one process execution.
type LogStatus int64

const (
	LogStatusError       LogStatus = 1
	LogStatusStart       LogStatus = 2
	LogStatusDownloaded  LogStatus = 3
	LogStatusDone        LogStatus = 4
	LogStatusOnQueue     LogStatus = 5
	LogStatusInterrupted LogStatus = 6
	LogStatusWarning     LogStatus = 7
)

// LogMessage is a message emitted during a process execution.
type LogMessage struct {
	Type        *int64
	Description string
	Timestamp   *string
}

// Log is one execution record of a process, as reported by a native service.
type Log struct {
	Base
	ID                   *int64
	ProcessID            *int64
	InstanceID           *int64
	Status               *int64
	StartTimestamp       *string
	DataTimestamp        *string
	LastProcessTimestamp *string
	Data                 *string
	Messages             []LogMessage
}

func NewLog(input interface{}) *Log {
	p := ToParams(input)
	l := &Log{
		Base:                 mustBase(KindLog),
		ID:                   p.Int64("id"),
		ProcessID:            p.Int64("process_id"),
		InstanceID:           p.Int64("instance_id", "service_instance_id"),
		Status:               p.Int64("status"),
		StartTimestamp:       p.Timestamp("start_timestamp"),
		DataTimestamp:        p.Timestamp("data_timestamp"),
		LastProcessTimestamp: p.Timestamp("last_process_timestamp"),
		Data:                 p.TextPtr("data"),
		Messages:             []LogMessage{},
	}
	items, _ := p.RelationList("messages", "Messages")
	for _, m := range items {
		l.Messages = append(l.Messages, LogMessage{
			Type:        m.Int64("type"),
			Description: m.Text("description"),
			Timestamp:   m.Timestamp("timestamp"),
		})
	}
	return l
}

// HasErrors reports whether the execution failed.
func (l *Log) HasErrors() bool {
	return l.Status != nil && LogStatus(*l.Status) == LogStatusError
}

func (l *Log) ToObject() Object {
	messages := make([]interface{}, 0, len(l.Messages))
	for _, m := range l.Messages {
		messages = append(messages, Object{
			"type":        valueOf(m.Type),
			"description": m.Description,
			"timestamp":   valueOf(m.Timestamp),
		})
	}
	return l.object(Object{
		"id":                     valueOf(l.ID),
		"process_id":             valueOf(l.ProcessID),
		"instance_id":            valueOf(l.InstanceID),
		"status":                 valueOf(l.Status),
		"start_timestamp":        valueOf(l.StartTimestamp),
		"data_timestamp":         valueOf(l.DataTimestamp),
		"last_process_timestamp": valueOf(l.LastProcessTimestamp),
		"data":                   valueOf(l.Data),
		"messages":               messages,
	})
}

// NewLogs flattens a LOG reply, a list of {instance_id, process_id, log}
// groups, into one Log per execution.
func NewLogs(reply []interface{}) []*Log {
	logs := []*Log{}
	for _, item := range reply {
		group := ToParams(item)
		entries, _ := group.RelationList("log")
		for _, entry := range entries {
			if _, ok := entry.Value("instance_id"); !ok {
				entry["instance_id"] = group.Raw("instance_id")
			}
			if _, ok := entry.Value("process_id"); !ok {
				entry["process_id"] = group.Raw("process_id")
			}
			logs = append(logs, NewLog(entry))
		}
	}
	return logs
}
