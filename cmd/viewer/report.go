package main

import (
	"fmt"
	"strings"

	"github.com/milk9111/lurker/sim"
)

// report renders a snapshot as plain text for pasting into bug reports.
func report(snap sim.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "level %s  tick %d  t=%.2fs\n", snap.Level, snap.Tick, snap.Time)
	writeAgent(&b, snap.Primary)
	for _, a := range snap.Secondaries {
		writeAgent(&b, a)
	}
	for _, r := range snap.Rooms {
		status := "free"
		switch {
		case r.Occupied:
			status = "occupied"
		case r.InCooldown:
			status = fmt.Sprintf("cooling %.1fs", r.CooldownRemaining)
		}
		fmt.Fprintf(&b, "room %-10s %-14s spawns=%d\n", r.Name, status, r.Spawns)
	}
	for _, s := range snap.Sources {
		state := "off"
		if s.Active {
			state = "on"
		}
		kind := "source"
		if s.Trap {
			kind = "trap"
		}
		fmt.Fprintf(&b, "%s %-12s %-3s intensity=%.1f\n", kind, s.Name, state, s.Intensity)
	}
	for _, p := range snap.Players {
		fmt.Fprintf(&b, "player %s alive=%t at (%.1f, %.1f)\n", p.Name, p.Alive, p.Position.X, p.Position.Y)
	}
	st := snap.Stats
	fmt.Fprintf(&b, "spawns=%d despawns=%d attacks=%d traps=%d killed=%d\n",
		st.Spawns, st.Despawns, st.Attacks, st.TrapsTriggered, st.PlayersKilled)
	return b.String()
}

func writeAgent(b *strings.Builder, a sim.AgentView) {
	fmt.Fprintf(b, "%s %s %s", a.Kind, a.ID.String()[:8], a.State)
	if a.Room != "" {
		fmt.Fprintf(b, " room=%s", a.Room)
	}
	if a.Lockdown {
		b.WriteString(" LOCKDOWN")
	}
	fmt.Fprintf(b, " vol=%.3f at (%.1f, %.1f)", a.Volume, a.Position.X, a.Position.Y)
	if a.Target != nil {
		fmt.Fprintf(b, " target=%s@(%.1f, %.1f)", a.Target.Kind, a.Target.Position.X, a.Target.Position.Y)
	}
	if a.RemainingLifetime != nil {
		fmt.Fprintf(b, " left=%.1fs", *a.RemainingLifetime)
	}
	b.WriteByte('\n')
}
