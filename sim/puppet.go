package sim

import (
	"github.com/google/uuid"
	"github.com/milk9111/lurker/ecs/component"
)

const maxCues = 8

// Puppet stands in for an animation rig. It remembers the last locomotion
// signal, counts attacks and keeps the most recent cues.
type Puppet struct {
	agent      uuid.UUID
	locomotion component.Locomotion
	attacks    int
	cues       []string
	onAttack   func(uuid.UUID)
}

func newPuppet(id uuid.UUID, onAttack func(uuid.UUID)) *Puppet {
	return &Puppet{agent: id, onAttack: onAttack}
}

func (p *Puppet) SetLocomotion(l component.Locomotion) { p.locomotion = l }

func (p *Puppet) TriggerAttack() {
	p.attacks++
	if p.onAttack != nil {
		p.onAttack(p.agent)
	}
}

func (p *Puppet) Cue(name string) {
	p.cues = append(p.cues, name)
	if len(p.cues) > maxCues {
		p.cues = p.cues[len(p.cues)-maxCues:]
	}
}

func (p *Puppet) Locomotion() component.Locomotion { return p.locomotion }
func (p *Puppet) Attacks() int                     { return p.attacks }

// Cues returns recent cues, oldest first.
func (p *Puppet) Cues() []string { return append([]string(nil), p.cues...) }
