package record

// Device is one device attribute slot of a state record.
type Device struct {
	SampleRate uint64
	ID         int64
	BitWidth   uint64
	Channels   uint64
}

// StateRecord is the fixed base part of a PAL state queue entry.
type StateRecord struct {
	Timestamp     uint64
	Handle        uint64
	Devices       [3]Device
	QueueState    int64
	ErrorCode     int64
	StreamType    int64
	Direction     int64
	SessionHandle uint64
}

// Idle reports whether the queue state is the idle/closed value.
func (s StateRecord) Idle() bool {
	return s.QueueState == 0
}

// Failed reports whether the logged transition returned an error.
func (s StateRecord) Failed() bool {
	return s.ErrorCode != 0
}

// ACDInfo is the variant sub-record logged for ACD streams.
type ACDInfo struct {
	StateID       int64
	EngineStateID int64
	EventID       uint64
	ContextID     uint64
	ProfileName   string
	ModelID       uint64
}

// Record is a decoded state queue entry: either BaseRecord or ACDRecord.
type Record interface {
	State() StateRecord
	isRecord()
}

// BaseRecord carries no variant data.
type BaseRecord struct {
	StateRecord
}

func (r BaseRecord) State() StateRecord { return r.StateRecord }
func (BaseRecord) isRecord()            {}

// ACDRecord carries the ACD variant sub-record.
type ACDRecord struct {
	StateRecord
	ACD ACDInfo
}

func (r ACDRecord) State() StateRecord { return r.StateRecord }
func (ACDRecord) isRecord()            {}

// positional indices into the PAL_STATE_QUEUE value list
const (
	idxTimestamp = iota
	idxHandle
	idxDevices
	idxQueueState = idxDevices + 3*4
	idxErrorCode  = idxQueueState + 1
	idxStreamType = idxErrorCode + 1
	idxDirection  = idxStreamType + 1
	idxSession    = idxDirection + 1

	stateValueCount = idxSession + 1
)

// positional indices into the acd_info value list
const (
	idxACDState = iota
	idxACDEngineState
	idxACDEvent
	idxACDContext
	idxACDProfile
	idxACDModel

	acdValueCount = idxACDModel + 1
)

func stateFromValues(v []Value) StateRecord {
	s := StateRecord{
		Timestamp:     v[idxTimestamp].Uint(),
		Handle:        v[idxHandle].Uint(),
		QueueState:    v[idxQueueState].Int(),
		ErrorCode:     v[idxErrorCode].Int(),
		StreamType:    v[idxStreamType].Int(),
		Direction:     v[idxDirection].Int(),
		SessionHandle: v[idxSession].Uint(),
	}
	for i := range s.Devices {
		base := idxDevices + i*4
		s.Devices[i] = Device{
			SampleRate: v[base].Uint(),
			ID:         v[base+1].Int(),
			BitWidth:   v[base+2].Uint(),
			Channels:   v[base+3].Uint(),
		}
	}
	return s
}

func acdFromValues(v []Value) ACDInfo {
	return ACDInfo{
		StateID:       v[idxACDState].Int(),
		EngineStateID: v[idxACDEngineState].Int(),
		EventID:       v[idxACDEvent].Uint(),
		ContextID:     v[idxACDContext].Uint(),
		ProfileName:   v[idxACDProfile].Text,
		ModelID:       v[idxACDModel].Uint(),
	}
}

// StateValues flattens s into PAL_STATE_QUEUE positional order.
func StateValues(s StateRecord) []Value {
	out := make([]Value, stateValueCount)
	out[idxTimestamp] = Uint(s.Timestamp)
	out[idxHandle] = Uint(s.Handle)
	for i, d := range s.Devices {
		base := idxDevices + i*4
		out[base] = Uint(d.SampleRate)
		out[base+1] = Int(d.ID)
		out[base+2] = Uint(d.BitWidth)
		out[base+3] = Uint(d.Channels)
	}
	out[idxQueueState] = Int(s.QueueState)
	out[idxErrorCode] = Int(s.ErrorCode)
	out[idxStreamType] = Int(s.StreamType)
	out[idxDirection] = Int(s.Direction)
	out[idxSession] = Uint(s.SessionHandle)
	return out
}

// ACDValues flattens a into acd_info positional order.
func ACDValues(a ACDInfo) []Value {
	return []Value{
		Int(a.StateID),
		Int(a.EngineStateID),
		Uint(a.EventID),
		Uint(a.ContextID),
		Text(a.ProfileName),
		Uint(a.ModelID),
	}
}
