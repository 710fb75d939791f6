package surfaces

import (
	"encoding/json"
	"github.com/kcz17/clockface/face"
)

// Payload is the wire form of a published face state, shared by every
// external surface so that consumers can decode either source.
type Payload struct {
	Text    string `json:"text"`
	Seconds int    `json:"--start-seconds"`
	Minutes int    `json:"--start-minutes"`
	Hours   int    `json:"--start-hours"`
}

func NewPayload(state face.State) Payload {
	return Payload{
		Text:    state.Text,
		Seconds: state.Hands.Seconds,
		Minutes: state.Hands.Minutes,
		Hours:   state.Hands.Hours,
	}
}

func (p Payload) State() face.State {
	return face.State{
		Text:  p.Text,
		Hands: face.Hands{Seconds: p.Seconds, Minutes: p.Minutes, Hours: p.Hours},
	}
}

func (p Payload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

// Fields flattens the payload into hash fields keyed by style property name.
func (p Payload) Fields() map[string]interface{} {
	fields := map[string]interface{}{"text": p.Text}
	for name, value := range p.State().Hands.Properties() {
		fields[name] = value
	}
	return fields
}
