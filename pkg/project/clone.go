package project

import (
	"github.com/gdexport/gdexport/pkg/types"
)

// Clone returns a deep copy of p. Mutating the copy never affects p.
func Clone(p *types.Project) *types.Project {
	if p == nil {
		return nil
	}

	c := *p
	c.UsedExtensions = cloneStrings(p.UsedExtensions)
	if p.Resources != nil {
		c.Resources = append([]types.Resource(nil), p.Resources...)
	}
	c.GlobalObjects = cloneObjects(p.GlobalObjects)

	if p.Scenes != nil {
		c.Scenes = make([]types.Scene, len(p.Scenes))
		for i, s := range p.Scenes {
			s.InitialObjects = cloneObjects(s.InitialObjects)
			s.Events = cloneEvents(s.Events)
			c.Scenes[i] = s
		}
	}
	if p.ExternalEvents != nil {
		c.ExternalEvents = make([]types.ExternalEvents, len(p.ExternalEvents))
		for i, e := range p.ExternalEvents {
			e.Events = cloneEvents(e.Events)
			c.ExternalEvents[i] = e
		}
	}
	return &c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

func cloneObjects(objects []types.Object) []types.Object {
	if objects == nil {
		return nil
	}
	out := make([]types.Object, len(objects))
	for i, o := range objects {
		o.Files = cloneStrings(o.Files)
		out[i] = o
	}
	return out
}

func cloneEvents(events []types.Event) []types.Event {
	if events == nil {
		return nil
	}
	out := make([]types.Event, len(events))
	for i, e := range events {
		e.Conditions = cloneInstructions(e.Conditions)
		e.Actions = cloneInstructions(e.Actions)
		e.SubEvents = cloneEvents(e.SubEvents)
		out[i] = e
	}
	return out
}

func cloneInstructions(instructions []types.Instruction) []types.Instruction {
	if instructions == nil {
		return nil
	}
	out := make([]types.Instruction, len(instructions))
	for i, in := range instructions {
		if in.Parameters != nil {
			in.Parameters = append([]types.Parameter(nil), in.Parameters...)
		}
		out[i] = in
	}
	return out
}
