// Package engine provides a small, predictable software 3D engine for the viewer.
//
// It covers what an embedded model viewport needs and nothing more: a scene graph
// of Objects, indexed triangle Geometry with material groups, a perspective camera,
// ambient/directional/hemisphere lights, orbit controls with damping and idle
// auto-rotation, axis-aligned bounding boxes and a flat-shading rasterizer.
//
// Pipeline (fixed):
//
//	Scene → World transform → Projection → Clipping → Rasterization → Canvas.
//
// The Renderer draws into a back buffer and publishes finished frames to its
// Canvas, which other goroutines may snapshot at any time. Everything else in
// the package is single-owner: a scene, its camera and its controls must only be
// mutated by one goroutine.
//
// Geometry and StandardMaterial carry explicit Dispose methods. Releasing them
// drops their buffers and removes them from every Renderer that uploaded them,
// which is what Renderer.Info reports.
package engine
