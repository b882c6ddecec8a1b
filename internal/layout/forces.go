package layout

import "math"

// applyLinks pulls connected nodes toward their target distance. The
// correction is split between the endpoints by degree so hubs move less.
func (s *Simulation) applyLinks() {
	for _, l := range s.links {
		src, tgt := &s.bodies[l.source], &s.bodies[l.target]
		x := tgt.x + tgt.vx - src.x - src.vx
		y := tgt.y + tgt.vy - src.y - src.vy
		if x == 0 {
			x = s.jiggle()
		}
		if y == 0 {
			y = s.jiggle()
		}
		d := math.Sqrt(x*x + y*y)
		k := (d - l.distance) / d * s.alpha * l.strength
		x *= k
		y *= k
		tgt.vx -= x * l.bias
		tgt.vy -= y * l.bias
		src.vx += x * (1 - l.bias)
		src.vy += y * (1 - l.bias)
	}
}

// applyCharge makes every node repel every other node. A node's charge acts on
// the others, so influential tags push harder. Distances below one are
// softened to keep the force bounded.
func (s *Simulation) applyCharge() {
	n := len(s.bodies)
	for i := 0; i < n; i++ {
		bi := &s.bodies[i]
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			bj := &s.bodies[j]
			x := bj.x - bi.x
			y := bj.y - bi.y
			if x == 0 {
				x = s.jiggle()
			}
			if y == 0 {
				y = s.jiggle()
			}
			d2 := x*x + y*y
			if d2 < 1 {
				d2 = math.Sqrt(d2)
			}
			w := bj.charge * s.alpha / d2
			bi.vx += x * w
			bi.vy += y * w
		}
	}
}

// applyCenter translates all nodes so their centroid moves toward the canvas
// center.
func (s *Simulation) applyCenter() {
	n := len(s.bodies)
	if n == 0 {
		return
	}
	var sx, sy float64
	for _, b := range s.bodies {
		sx += b.x
		sy += b.y
	}
	c := s.params.Center()
	dx := (sx/float64(n) - c.X) * s.params.CenterStrength
	dy := (sy/float64(n) - c.Y) * s.params.CenterStrength
	for i := range s.bodies {
		s.bodies[i].x -= dx
		s.bodies[i].y -= dy
	}
}

// applyCollide separates overlapping nodes using their predicted positions.
// The smaller node of a pair absorbs more of the correction.
func (s *Simulation) applyCollide() {
	n := len(s.bodies)
	for i := 0; i < n; i++ {
		bi := &s.bodies[i]
		for j := i + 1; j < n; j++ {
			bj := &s.bodies[j]
			r := bi.radius + bj.radius
			x := (bj.x + bj.vx) - (bi.x + bi.vx)
			y := (bj.y + bj.vy) - (bi.y + bi.vy)
			d2 := x*x + y*y
			if d2 >= r*r {
				continue
			}
			if x == 0 {
				x = s.jiggle()
				d2 += x * x
			}
			if y == 0 {
				y = s.jiggle()
				d2 += y * y
			}
			d := math.Sqrt(d2)
			k := (r - d) / d * s.params.CollideStrength
			x *= k
			y *= k
			ri2 := bi.radius * bi.radius
			rj2 := bj.radius * bj.radius
			share := rj2 / (ri2 + rj2)
			bi.vx -= x * share
			bi.vy -= y * share
			bj.vx += x * (1 - share)
			bj.vy += y * (1 - share)
		}
	}
}
