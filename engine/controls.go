package engine

import "github.com/chewxy/math32"

// OrbitControls rotates, zooms and idles a camera around a target point.
//
// It does not depend on any input system: callers translate pointer input into
// Rotate and Dolly calls and call Update once per frame.
type OrbitControls struct {
	Camera *PerspectiveCamera
	Target Vec3

	EnableDamping bool
	DampingFactor float32

	AutoRotate      bool
	AutoRotateSpeed float32 // 2.0 is one turn every 30s at 60 frames per second

	MinDistance float32
	MaxDistance float32

	MinPolarAngle float32
	MaxPolarAngle float32

	RotateSpeed float32
	ZoomSpeed   float32

	deltaTheta float32
	deltaPhi   float32
	scale      float32
}

// NewOrbitControls creates controls for cam orbiting the origin.
func NewOrbitControls(cam *PerspectiveCamera) *OrbitControls {
	return &OrbitControls{
		Camera:          cam,
		DampingFactor:   0.05,
		AutoRotateSpeed: 2,
		MaxDistance:     math32.Inf(1),
		MaxPolarAngle:   math32.Pi,
		RotateSpeed:     1,
		ZoomSpeed:       1,
		scale:           1,
	}
}

// autoRotateAngle returns the per-frame idle rotation.
func (c *OrbitControls) autoRotateAngle() float32 {
	return 2 * math32.Pi / 60 / 60 * c.AutoRotateSpeed
}

// RotateLeft orbits the camera around the vertical axis.
func (c *OrbitControls) RotateLeft(angle float32) { c.deltaTheta -= angle }

// RotateUp orbits the camera towards the top pole.
func (c *OrbitControls) RotateUp(angle float32) { c.deltaPhi -= angle }

// Dolly scales the camera's distance to the target by 1/factor.
func (c *OrbitControls) Dolly(factor float32) {
	if factor <= 0 {
		return
	}
	c.scale /= factor
}

// Drag applies a pointer drag of (dx, dy) pixels on a surface height pixels tall.
func (c *OrbitControls) Drag(dx, dy, height float32) {
	if height <= 0 {
		return
	}
	c.RotateLeft(2 * math32.Pi * dx / height * c.RotateSpeed)
	c.RotateUp(2 * math32.Pi * dy / height * c.RotateSpeed)
}

// Wheel applies a scroll of dy notches; positive values zoom in.
func (c *OrbitControls) Wheel(dy float32) {
	if dy == 0 {
		return
	}
	f := math32.Pow(0.95, c.ZoomSpeed)
	if dy > 0 {
		c.Dolly(1 / f)
	} else {
		c.Dolly(f)
	}
}

// Distance returns the camera's distance to the target.
func (c *OrbitControls) Distance() float32 {
	if c.Camera == nil {
		return 0
	}
	return Len(c.Camera.Position.Sub(c.Target))
}

// Update advances damping and auto-rotation and repositions the camera.
// It reports whether the camera moved.
func (c *OrbitControls) Update() bool {
	cam := c.Camera
	if cam == nil {
		return false
	}
	before := cam.Position
	offset := cam.Position.Sub(c.Target)

	radius := Len(offset)
	var theta, phi float32
	if radius > 0 {
		theta = math32.Atan2(offset.X, offset.Z)
		phi = math32.Acos(clamp(offset.Y/radius, -1, 1))
	}

	if c.AutoRotate {
		c.RotateLeft(c.autoRotateAngle())
	}

	if c.EnableDamping {
		theta += c.deltaTheta * c.DampingFactor
		phi += c.deltaPhi * c.DampingFactor
	} else {
		theta += c.deltaTheta
		phi += c.deltaPhi
	}

	const eps = 1e-6
	phi = clamp(phi, math32.Max(eps, c.MinPolarAngle), math32.Min(math32.Pi-eps, c.MaxPolarAngle))

	radius = clamp(radius*c.scale, c.MinDistance, c.MaxDistance)

	sinPhi := math32.Sin(phi)
	offset = Vec3{
		X: radius * sinPhi * math32.Sin(theta),
		Y: radius * math32.Cos(phi),
		Z: radius * sinPhi * math32.Cos(theta),
	}
	cam.Position = c.Target.Add(offset)
	cam.LookAt(c.Target)

	if c.EnableDamping {
		c.deltaTheta *= 1 - c.DampingFactor
		c.deltaPhi *= 1 - c.DampingFactor
	} else {
		c.deltaTheta = 0
		c.deltaPhi = 0
	}
	c.scale = 1

	return Len(cam.Position.Sub(before)) > eps
}

// Reset drops any pending rotation or zoom.
func (c *OrbitControls) Reset() {
	c.deltaTheta = 0
	c.deltaPhi = 0
	c.scale = 1
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
