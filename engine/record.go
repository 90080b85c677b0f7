package engine

import "time"

// Record is one log call. The engine never retains it past Log.
type Record struct {
	Level int
	File  string
	Line  int
	Func  string

	// Msg is the text payload. Ignored when Binary is set.
	Msg string
	// Data is the raw payload rendered as a hex dump when Binary is set.
	Data   []byte
	Binary bool

	// Time defaults to time.Now() when zero.
	Time time.Time
}

// Msg is handed to a RecordFunc. Buf is only valid for the duration of the call.
type Msg struct {
	Buf      []byte
	Param    string
	Category string
	Level    int
}

// RecordFunc receives records routed to a `$name` output.
type RecordFunc func(msg *Msg) error
