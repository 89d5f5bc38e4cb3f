package domain

// Op names a render instruction.
type Op string

const (
	OpPlace   Op = "place"
	OpRemove  Op = "remove"
	OpRestyle Op = "restyle"
)

// Instruction tells the renderer how a card's visual changed. Under marks a
// card re-exposed beneath the top card of a peek window.
type Instruction struct {
	Op     Op     `json:"op"`
	Card   string `json:"card"`
	Pile   string `json:"pile,omitempty"`
	FaceUp bool   `json:"face_up,omitempty"`
	Under  bool   `json:"under,omitempty"`
	Offset int    `json:"offset,omitempty"`
	Z      int    `json:"z,omitempty"`
}

// Sink receives render instructions in the order they happen.
type Sink interface {
	Emit(Instruction)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Instruction)

func (f SinkFunc) Emit(in Instruction) { f(in) }

type discardSink struct{}

func (discardSink) Emit(Instruction) {}
