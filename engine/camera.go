package engine

// PerspectiveCamera describes a pinhole camera looking at a target point.
type PerspectiveCamera struct {
	FOV    float32 // vertical field of view in degrees
	Aspect float32
	Near   float32
	Far    float32

	Position Vec3
	Up       Vec3

	target     Vec3
	projection Mat4
}

// NewPerspectiveCamera creates a camera at the origin looking down -Z.
func NewPerspectiveCamera(fov, aspect, near, far float32) *PerspectiveCamera {
	c := &PerspectiveCamera{
		FOV:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
		Up:     V3(0, 1, 0),
		target: V3(0, 0, -1),
	}
	c.UpdateProjectionMatrix()
	return c
}

// FOVRadians returns the vertical field of view in radians.
func (c *PerspectiveCamera) FOVRadians() float32 { return DegToRad(c.FOV) }

// UpdateProjectionMatrix must be called after changing FOV, Aspect, Near or Far.
func (c *PerspectiveCamera) UpdateProjectionMatrix() {
	c.projection = Mat4Perspective(c.FOVRadians(), c.Aspect, c.Near, c.Far)
}

func (c *PerspectiveCamera) ProjectionMatrix() Mat4 { return c.projection }

// LookAt orients the camera towards t.
func (c *PerspectiveCamera) LookAt(t Vec3) { c.target = t }

func (c *PerspectiveCamera) Target() Vec3 { return c.target }

// ViewMatrix returns the world-to-camera transform.
func (c *PerspectiveCamera) ViewMatrix() Mat4 {
	up := c.Up
	if up == (Vec3{}) {
		up = V3(0, 1, 0)
	}
	return Mat4LookAt(c.Position, c.target, up)
}
