// Package camera provides camera implementations for 3D rendering.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/rtr-gl/pkg/math"
)

// Field of view limits in degrees.
const (
	MinZoom float32 = 1
	MaxZoom float32 = 45
)

var worldUp = math.V3(0, 1, 0)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Center math.Vec3

	// Spherical coordinates
	Distance  float32 // Distance from center
	RotationX float32 // Pitch (vertical angle, radians)
	RotationY float32 // Yaw (horizontal angle, radians)

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32

	// FOV is the vertical field of view in degrees.
	FOV float32
}

// NewOrbitCamera creates a new orbit camera with default settings.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        10.0,
		RotationX:       0.3,
		MinDistance:     5.0,
		MaxDistance:     100.0,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
		FOV:             MaxZoom,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	sinX, cosX := math32.Sincos(c.RotationX)
	sinY, cosY := math32.Sincos(c.RotationY)
	return c.Center.Add(math.V3(cosX*sinY, sinX, cosX*cosY).Scale(c.Distance))
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, worldUp)
}

// Zoom returns the field of view in degrees.
func (c *OrbitCamera) Zoom() float32 {
	return c.FOV
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.RotationY -= deltaX * c.DragSensitivity
	c.RotationX = math.Clamp(c.RotationX+deltaY*c.DragSensitivity, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance = math.Clamp(c.Distance-delta*c.Distance*c.ZoomSensitivity, c.MinDistance, c.MaxDistance)
}

// Movement is a keyboard direction for FlyCamera.
type Movement int

const (
	Forward Movement = iota
	Backward
	Left
	Right
	Up
	Down
)

// FlyCamera is a free camera steered by yaw and pitch.
type FlyCamera struct {
	position math.Vec3
	front    math.Vec3
	up       math.Vec3
	right    math.Vec3

	// Euler angles in degrees.
	Yaw   float32
	Pitch float32

	MovementSpeed    float32
	MouseSensitivity float32
	zoom             float32
}

// NewFlyCamera creates a camera at position looking along yaw and pitch
// (degrees). Yaw -90 looks down -Z.
func NewFlyCamera(position math.Vec3, yaw, pitch float32) *FlyCamera {
	c := &FlyCamera{
		position:         position,
		Yaw:              yaw,
		Pitch:            pitch,
		MovementSpeed:    2.5,
		MouseSensitivity: 0.1,
		zoom:             MaxZoom,
	}
	c.updateVectors()
	return c
}

// Position returns the camera position.
func (c *FlyCamera) Position() math.Vec3 { return c.position }

// SetPosition moves the camera without changing where it looks.
func (c *FlyCamera) SetPosition(p math.Vec3) { c.position = p }

// Front returns the unit view direction.
func (c *FlyCamera) Front() math.Vec3 { return c.front }

// Zoom returns the field of view in degrees.
func (c *FlyCamera) Zoom() float32 { return c.zoom }

// ViewMatrix returns the view matrix for this camera.
func (c *FlyCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.position, c.position.Add(c.front), c.up)
}

// ProcessKeyboard moves the camera along its own axes.
func (c *FlyCamera) ProcessKeyboard(dir Movement, dt float32) {
	v := c.MovementSpeed * dt
	switch dir {
	case Forward:
		c.position = c.position.Add(c.front.Scale(v))
	case Backward:
		c.position = c.position.Sub(c.front.Scale(v))
	case Left:
		c.position = c.position.Sub(c.right.Scale(v))
	case Right:
		c.position = c.position.Add(c.right.Scale(v))
	case Up:
		c.position = c.position.Add(worldUp.Scale(v))
	case Down:
		c.position = c.position.Sub(worldUp.Scale(v))
	}
}

// ProcessMouseMovement turns the camera. With constrainPitch the pitch
// stays within ±89 degrees so the view never flips.
func (c *FlyCamera) ProcessMouseMovement(dx, dy float32, constrainPitch bool) {
	c.Yaw += dx * c.MouseSensitivity
	c.Pitch += dy * c.MouseSensitivity
	if constrainPitch {
		c.Pitch = math.Clamp(c.Pitch, -89, 89)
	}
	c.updateVectors()
}

// ProcessMouseScroll narrows or widens the field of view.
func (c *FlyCamera) ProcessMouseScroll(dy float32) {
	c.zoom = math.Clamp(c.zoom-dy, MinZoom, MaxZoom)
}

// Orbit places the camera on a horizontal circle of radius around the
// origin at angleDeg, keeping its height, and points it at the origin.
func (c *FlyCamera) Orbit(angleDeg, radius float32) {
	sin, cos := math32.Sincos(math.Radians(angleDeg))
	c.position = math.V3(sin*radius, c.position.Y, cos*radius)

	dir := c.position.Scale(-1).Normalize()
	if dir == (math.Vec3{}) {
		return
	}
	c.Pitch = math32.Asin(math.Clamp(dir.Y, -1, 1)) * 180 / math.Pi
	c.Yaw = math32.Atan2(dir.Z, dir.X) * 180 / math.Pi
	c.updateVectors()
}

func (c *FlyCamera) updateVectors() {
	sinYaw, cosYaw := math32.Sincos(math.Radians(c.Yaw))
	sinPitch, cosPitch := math32.Sincos(math.Radians(c.Pitch))
	c.front = math.V3(cosYaw*cosPitch, sinPitch, sinYaw*cosPitch).Normalize()
	c.right = c.front.Cross(worldUp).Normalize()
	c.up = c.right.Cross(c.front).Normalize()
}
