package main

import "github.com/milk9111/lurker/common"

// camera maps the level's X/Y plane onto the screen below the HUD. World Y
// grows downward on screen.
type camera struct {
	min   common.Vec3
	scale float64
	top   float64
}

func (c camera) toScreen(p common.Vec3) (float32, float32) {
	return float32((p.X - c.min.X) * c.scale), float32(c.top + (p.Y-c.min.Y)*c.scale)
}

func (c camera) length(d float64) float32 {
	return float32(d * c.scale)
}
