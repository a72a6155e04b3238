package engine

// Light is a light source. Irradiance returns the RGB light arriving at a
// surface with the given world-space unit normal.
type Light interface {
	Irradiance(normal Vec3) Vec3
}

// AmbientLight lights every surface equally.
type AmbientLight struct {
	Color     Color
	Intensity float32
}

func NewAmbientLight(c Color, intensity float32) *AmbientLight {
	return &AmbientLight{Color: c, Intensity: intensity}
}

func (l *AmbientLight) Irradiance(Vec3) Vec3 {
	return l.Color.Vec().Mul(l.Intensity)
}

// DirectionalLight shines from Position towards Target as if infinitely far away.
type DirectionalLight struct {
	Color     Color
	Intensity float32
	Position  Vec3
	Target    Vec3
}

func NewDirectionalLight(c Color, intensity float32) *DirectionalLight {
	return &DirectionalLight{Color: c, Intensity: intensity, Position: V3(0, 1, 0)}
}

func (l *DirectionalLight) Irradiance(n Vec3) Vec3 {
	toLight := Normalize(l.Position.Sub(l.Target))
	d := Dot(n, toLight)
	if d <= 0 {
		return Vec3{}
	}
	return l.Color.Vec().Mul(l.Intensity * d)
}

// HemisphereLight blends a sky color (from +Y) and a ground color (from -Y).
type HemisphereLight struct {
	Sky       Color
	Ground    Color
	Intensity float32
}

func NewHemisphereLight(sky, ground Color, intensity float32) *HemisphereLight {
	return &HemisphereLight{Sky: sky, Ground: ground, Intensity: intensity}
}

func (l *HemisphereLight) Irradiance(n Vec3) Vec3 {
	w := n.Y*0.5 + 0.5
	sky := l.Sky.Vec().Mul(w)
	ground := l.Ground.Vec().Mul(1 - w)
	return sky.Add(ground).Mul(l.Intensity)
}
