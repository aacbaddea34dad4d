package logic

// Command is an output the loop forwards to a display or indicator sink.
// The Machine emits a full set every tick; sinks are fire-and-forget.
type Command interface {
	command()
}

// CmdRender asks the display to show the given state.
type CmdRender struct {
	State   ProcessState
	Context RuntimeContext
	Stage   StageSpec // stage selected in Menu or active in Running
}

// CmdHeater drives the heater output.
type CmdHeater struct {
	Heater HeaterCommand
}

// CmdCompletionLamp drives the stage-complete lamp.
type CmdCompletionLamp struct {
	On bool
}

// CmdAlarm drives the audible alarm.
type CmdAlarm struct {
	Active bool
}

// CmdFlameAnimation drives the flame animation on the LED matrix.
type CmdFlameAnimation struct {
	Active    bool
	Intensity float64
	Frame     int
}

func (CmdRender) command()         {}
func (CmdHeater) command()         {}
func (CmdCompletionLamp) command() {}
func (CmdAlarm) command()          {}
func (CmdFlameAnimation) command() {}
