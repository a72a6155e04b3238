package engine

// Scene is the root of a scene graph plus its lights and background.
type Scene struct {
	Background Color

	root   Object
	lights []Light
}

// NewScene creates an empty scene.
func NewScene(background Color) *Scene {
	s := &Scene{Background: background}
	s.root.Name = "scene"
	s.root.Scale = V3(1, 1, 1)
	s.root.Visible = true
	return s
}

// Add attaches o to the scene root.
func (s *Scene) Add(o *Object) { s.root.Add(o) }

// Remove detaches o from the scene root. It reports whether o was attached.
func (s *Scene) Remove(o *Object) bool { return s.root.Remove(o) }

// Children returns the objects attached to the scene root.
func (s *Scene) Children() []*Object { return s.root.Children() }

// Contains reports whether o is attached directly to the scene root.
func (s *Scene) Contains(o *Object) bool {
	return o != nil && o.parent == &s.root
}

// Traverse visits every object in the scene, excluding the root itself.
func (s *Scene) Traverse(fn func(*Object)) {
	for _, c := range s.root.children {
		c.Traverse(fn)
	}
}

// AddLight adds a light source.
func (s *Scene) AddLight(l Light) {
	if l != nil {
		s.lights = append(s.lights, l)
	}
}

func (s *Scene) Lights() []Light { return s.lights }

// irradiance sums the light arriving at a surface with normal n.
func (s *Scene) irradiance(n Vec3) Vec3 {
	var sum Vec3
	for _, l := range s.lights {
		sum = sum.Add(l.Irradiance(n))
	}
	return sum
}
