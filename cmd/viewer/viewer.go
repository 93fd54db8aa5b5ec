package main

import (
	"fmt"
	"image/color"
	"math"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/lurker/common"
	"github.com/milk9111/lurker/sim"
	"golang.org/x/image/font/basicfont"
)

const (
	tps       = 60
	hudHeight = 64
	walkSpeed = 4.0
	statusTTL = 2 * tps
)

var (
	bgColor      = color.RGBA{R: 0x14, G: 0x16, B: 0x1a, A: 0xff}
	routeColor   = color.RGBA{R: 0x50, G: 0x50, B: 0x58, A: 0xff}
	rangeColor   = color.RGBA{R: 0xe5, G: 0xc0, B: 0x7b, A: 0x60}
	sourceOff    = color.RGBA{R: 0x70, G: 0x70, B: 0x70, A: 0xff}
	sourceOn     = color.RGBA{R: 0xff, G: 0xd7, B: 0x00, A: 0xff}
	playerColor  = color.RGBA{R: 0x56, G: 0xb6, B: 0xc2, A: 0xff}
	deadColor    = color.RGBA{R: 0x5c, G: 0x2b, B: 0x2b, A: 0xff}
	lockColor    = color.RGBA{R: 0xff, G: 0x30, B: 0x30, A: 0xff}
	defaultRooms = []color.Color{
		color.RGBA{R: 0xe0, G: 0x6c, B: 0x75, A: 0xff},
		color.RGBA{R: 0x61, G: 0xaf, B: 0xef, A: 0xff},
		color.RGBA{R: 0x98, G: 0xc3, B: 0x79, A: 0xff},
		color.RGBA{R: 0xc6, G: 0x78, B: 0xdd, A: 0xff},
	}
	stateColors = map[string]color.Color{
		"patrol":      color.RGBA{R: 0xab, G: 0xb2, B: 0xbf, A: 0xff},
		"investigate": color.RGBA{R: 0xe5, G: 0xc0, B: 0x7b, A: 0xff},
		"idle":        color.RGBA{R: 0x61, G: 0xaf, B: 0xef, A: 0xff},
		"pursue":      color.RGBA{R: 0xd1, G: 0x9a, B: 0x66, A: 0xff},
		"attack":      color.RGBA{R: 0xff, G: 0x30, B: 0x30, A: 0xff},
	}
)

var digitKeys = []ebiten.Key{
	ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4, ebiten.Key5,
	ebiten.Key6, ebiten.Key7, ebiten.Key8, ebiten.Key9,
}

// Viewer is the ebiten.Game driving a session from the keyboard.
type Viewer struct {
	sim        *sim.Sim
	cam        camera
	width      int
	height     int
	face       ebtext.Face
	roomColors map[string]color.Color
	pauseUI    *ebitenui.UI

	paused bool
	quit   bool
	status string
	ttl    int

	copy    func(report string)
	publish func(sim.Snapshot)
}

func NewViewer(s *sim.Sim, scale float64) *Viewer {
	lo, hi := s.Bounds()
	v := &Viewer{
		sim:        s,
		cam:        camera{min: lo, scale: scale, top: hudHeight},
		width:      int(math.Ceil((hi.X - lo.X) * scale)),
		height:     int(math.Ceil((hi.Y-lo.Y)*scale)) + hudHeight,
		face:       ebtext.NewGoXFace(basicfont.Face7x13),
		roomColors: make(map[string]color.Color),
	}
	for i, r := range s.Spec().Rooms {
		if r.Color != nil {
			v.roomColors[r.Name] = r.Color.Color
		} else {
			v.roomColors[r.Name] = defaultRooms[i%len(defaultRooms)]
		}
	}
	v.pauseUI = newPauseUI(v, v.face, v.width, v.height)
	return v
}

func (v *Viewer) Update() error {
	if v.quit {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyP) {
		v.paused = !v.paused
	}
	if v.ttl > 0 {
		v.ttl--
	}
	if v.paused {
		v.pauseUI.Update()
		return nil
	}

	v.handleInput()
	if err := v.sim.Tick(1.0 / tps); err != nil {
		return err
	}
	if v.publish != nil && v.sim.Ticks()%6 == 0 {
		v.publish(v.sim.Snapshot())
	}
	return nil
}

func (v *Viewer) handleInput() {
	players := v.sim.Players()
	if len(players) == 0 {
		return
	}
	player := players[0]

	var d common.Vec3
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		d.X--
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		d.X++
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		d.Y--
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		d.Y++
	}
	if n := d.Len(); n > 0 {
		_ = v.sim.MovePlayerBy(player, d.Scale(walkSpeed/tps/n))
	}

	sources := v.sim.Sources()
	for i, key := range digitKeys {
		if i >= len(sources) {
			break
		}
		if inpututil.IsKeyJustPressed(key) {
			if on, err := v.sim.ToggleSource(sources[i]); err == nil {
				v.say(fmt.Sprintf("%s %s", sources[i], onOff(on)))
			}
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyT) {
		v.triggerNearestTrap(player)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		v.copyReport()
	}
}

func (v *Viewer) triggerNearestTrap(player string) {
	var pos common.Vec3
	for _, p := range v.sim.PlayerViews() {
		if p.Name == player {
			pos = p.Position
		}
	}
	trap, ok := v.sim.NearestTrap(pos)
	if !ok {
		v.say("no traps in this level")
		return
	}
	fired, err := v.sim.TriggerTrap(trap, player)
	switch {
	case err != nil:
		v.say(err.Error())
	case fired:
		v.say(trap + " triggered")
	default:
		v.say(trap + " is cooling down")
	}
}

func (v *Viewer) copyReport() {
	if v.copy == nil {
		v.say("clipboard unavailable")
		return
	}
	v.copy(report(v.sim.Snapshot()))
	v.say("report copied")
}

func (v *Viewer) say(msg string) {
	v.status = msg
	v.ttl = statusTTL
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(bgColor)
	snap := v.sim.Snapshot()

	v.drawRoute(screen)
	for _, r := range snap.Rooms {
		v.drawRoom(screen, r.Name, r.Waypoints, r.Occupied, r.InCooldown)
	}
	for i, s := range snap.Sources {
		v.drawSource(screen, i, s)
	}
	for _, p := range snap.Players {
		x, y := v.cam.toScreen(p.Position)
		c := color.Color(playerColor)
		if !p.Alive {
			c = deadColor
		}
		vector.FillRect(screen, x-4, y-4, 8, 8, c, false)
	}

	v.drawAgent(screen, snap.Primary, true)
	for _, a := range snap.Secondaries {
		v.drawAgent(screen, a, false)
	}

	v.drawHUD(screen, snap)
	if v.paused {
		v.pauseUI.Draw(screen)
	}
}

func (v *Viewer) drawRoute(screen *ebiten.Image) {
	wps := v.sim.Primary().Waypoints()
	for i := range wps {
		x0, y0 := v.cam.toScreen(wps[i])
		x1, y1 := v.cam.toScreen(wps[(i+1)%len(wps)])
		vector.StrokeLine(screen, x0, y0, x1, y1, 1, routeColor, false)
	}
}

func (v *Viewer) drawRoom(screen *ebiten.Image, name string, wps []common.Vec3, occupied, cooling bool) {
	c := v.roomColors[name]
	for i, wp := range wps {
		x, y := v.cam.toScreen(wp)
		if len(wps) > 1 {
			x1, y1 := v.cam.toScreen(wps[(i+1)%len(wps)])
			vector.StrokeLine(screen, x, y, x1, y1, 1, c, false)
		}
		vector.FillCircle(screen, x, y, 3, c, false)
	}
	if len(wps) == 0 {
		return
	}
	x, y := v.cam.toScreen(wps[0])
	label := name
	switch {
	case occupied:
		label += " *"
	case cooling:
		label += " ~"
	}
	ebitenutil.DebugPrintAt(screen, label, int(x)+4, int(y)-16)
}

func (v *Viewer) drawSource(screen *ebiten.Image, index int, s sim.SourceView) {
	x, y := v.cam.toScreen(s.Position)
	r := float32(3 + s.Intensity)
	c := color.Color(sourceOff)
	if s.Active {
		c = sourceOn
	}
	if s.Trap {
		vector.StrokeRect(screen, x-r, y-r, 2*r, 2*r, 1.5, c, false)
	} else {
		vector.StrokeCircle(screen, x, y, r, 1.5, c, true)
	}
	if s.Active {
		vector.FillCircle(screen, x, y, r/2, c, true)
	}
	if index < 9 {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%d %s", index+1, s.Name), int(x+r)+2, int(y)-6)
	}
}

func (v *Viewer) drawAgent(screen *ebiten.Image, a sim.AgentView, primary bool) {
	x, y := v.cam.toScreen(a.Position)
	c, ok := stateColors[a.State]
	if !ok {
		c = color.White
	}
	if a.DetectionRange != nil {
		vector.StrokeCircle(screen, x, y, v.cam.length(*a.DetectionRange), 1, rangeColor, true)
	}
	if a.Destination != nil {
		dx, dy := v.cam.toScreen(*a.Destination)
		vector.StrokeLine(screen, x, y, dx, dy, 1, c, false)
	}
	radius := float32(6)
	if !primary {
		radius = 4.5
	}
	vector.FillCircle(screen, x, y, radius, c, true)
	if a.Lockdown {
		vector.StrokeCircle(screen, x, y, radius+3, 2, lockColor, true)
	}
}

func (v *Viewer) drawHUD(screen *ebiten.Image, snap sim.Snapshot) {
	vector.FillRect(screen, 0, 0, float32(v.width), hudHeight, color.RGBA{A: 0xd0}, false)

	lines := []string{
		fmt.Sprintf("%s  t=%.1fs  primary %s  vol %.3f  secondaries %d",
			snap.Level, snap.Time, snap.Primary.State, snap.Primary.Volume, len(snap.Secondaries)),
		fmt.Sprintf("spawns %d  despawns %d  attacks %d  traps %d  killed %d",
			snap.Stats.Spawns, snap.Stats.Despawns, snap.Stats.Attacks, snap.Stats.TrapsTriggered, snap.Stats.PlayersKilled),
		"arrows move  1-9 toggle  T trap  C copy  P pause",
	}
	if v.ttl > 0 {
		lines[2] = v.status
	}
	for i, line := range lines {
		op := &ebtext.DrawOptions{}
		op.GeoM.Translate(8, float64(6+i*18))
		op.ColorScale.ScaleWithColor(color.White)
		ebtext.Draw(screen, line, v.face, op)
	}
}

func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return v.width, v.height
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
