package catalog

import "fmt"

// Motion describes the kinematic relation of a joint once two parts are
// connected at a joint origin.
type Motion string

const (
	MotionRigid       Motion = "Rigid"
	MotionRevolute    Motion = "Revolute"
	MotionSlider      Motion = "Slider"
	MotionCylindrical Motion = "Cylindrical"
	MotionPinSlot     Motion = "PinSlot"
	MotionPlanar      Motion = "Planar"
	MotionBall        Motion = "Ball"
)

// IsValid returns true if the motion is a known motion class.
func (m Motion) IsValid() bool {
	switch m {
	case MotionRigid, MotionRevolute, MotionSlider, MotionCylindrical, MotionPinSlot, MotionPlanar, MotionBall:
		return true
	default:
		return false
	}
}

// CombineMotions composes the motion a part provides with the motion of
// one of its required joint origins. Rigid is the identity; identical
// motions compose to themselves; otherwise the child's motion wins.
func CombineMotions(parent, child Motion) Motion {
	switch {
	case parent == MotionRigid || parent == "":
		return child
	case child == MotionRigid || child == "":
		return parent
	default:
		return child
	}
}

// CombineMotionsStrict is CombineMotions but refuses to compose two
// different non-rigid motions.
func CombineMotionsStrict(parent, child Motion) (Motion, error) {
	if parent != child && parent != MotionRigid && child != MotionRigid && parent != "" && child != "" {
		return "", fmt.Errorf("%w: %s with %s", ErrIncompatibleMotion, parent, child)
	}
	return CombineMotions(parent, child), nil
}
