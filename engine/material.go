package engine

// Material describes how a surface is shaded.
type Material interface {
	// BaseColor returns the unlit surface color.
	BaseColor() Color
}

// StandardMaterial is a lit surface with metal/rough parameters.
type StandardMaterial struct {
	Name      string
	Color     Color
	Metalness float32 // 0..1
	Roughness float32 // 0..1

	resource
}

// NewStandardMaterial creates a lit material.
func NewStandardMaterial(c Color, metalness, roughness float32) *StandardMaterial {
	return &StandardMaterial{
		Color:     c,
		Metalness: Clamp01(metalness),
		Roughness: Clamp01(roughness),
	}
}

func (m *StandardMaterial) BaseColor() Color { return m.Color }

// diffuse returns the fraction of incoming light scattered diffusely.
// Metals reflect mostly specularly, which this renderer does not model.
func (m *StandardMaterial) diffuse() float32 {
	return 1 - 0.6*m.Metalness
}

// Dispose releases the material. It is safe to call more than once.
func (m *StandardMaterial) Dispose() {
	if m == nil {
		return
	}
	m.release()
}

// Disposed reports whether Dispose was called.
func (m *StandardMaterial) Disposed() bool { return m != nil && m.disposed }

// BasicMaterial is an unlit flat color. It owns no renderer-side state and
// therefore has no Dispose method.
type BasicMaterial struct {
	Color Color
}

func (m BasicMaterial) BaseColor() Color { return m.Color }
