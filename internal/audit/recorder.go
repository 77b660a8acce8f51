package audit

// Recorder receives provisioning and teardown events for one run.
type Recorder interface {
	Record(eventType EventType, detail map[string]string)
}

// RunRecorder appends events to a Logger under a fixed run UUID.
type RunRecorder struct {
	logger   *Logger
	runUUID  string
	operator string
	// OnError is called when an audit write fails; the run itself continues.
	OnError func(error)
}

// ForRun returns a Recorder that tags every record with runUUID.
func (al *Logger) ForRun(runUUID, operator string) *RunRecorder {
	return &RunRecorder{logger: al, runUUID: runUUID, operator: operator}
}

func (r *RunRecorder) Record(eventType EventType, detail map[string]string) {
	if err := r.logger.Log(eventType, r.operator, r.runUUID, detail); err != nil && r.OnError != nil {
		r.OnError(err)
	}
}

// Nop discards every event.
type Nop struct{}

func (Nop) Record(EventType, map[string]string) {}
