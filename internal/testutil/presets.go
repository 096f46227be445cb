package testutil

import "github.com/zjrosen/clsforge/internal/catalog"

// ArmProject is the project id of the arm preset.
const ArmProject = "arm"

// ArmTaxonomy is the subtype environment of the arm preset:
//
//	M6Screw <= Screw <= Fastener
//	RevoluteJoint <= Joint
func ArmTaxonomy() map[string][]string {
	return map[string][]string{
		"M6Screw":       {"Screw"},
		"Screw":         {"Fastener"},
		"RevoluteJoint": {"Joint"},
	}
}

// WithArmParts adds a small robot arm catalog:
//
//	base     provides Base, requires a Joint on top
//	link     Joint -> RevoluteJoint, either end may be the result
//	gripper  requires a Joint, provides Tool
//	screw    provides M6Screw
//	plate    requires two Screw slots, provides Plate
func (b *Builder) WithArmParts() *Builder {
	b.t.Helper()
	return b.
		WithPart(ArmProject, "base",
			Joint("top", Requires("Joint")),
			Joint("floor", Provides("Base")),
			Config("floor", "top")).
		WithPart(ArmProject, "link",
			Joint("a", Requires("Joint"), Provides("RevoluteJoint"), Motion(catalog.MotionRevolute)),
			Joint("b", Requires("Joint"), Provides("RevoluteJoint"), Motion(catalog.MotionRevolute)),
			Config("a", "b"),
			Config("b", "a")).
		WithPart(ArmProject, "gripper",
			Joint("mount", Requires("Joint"), Provides("Tool")),
			Config("mount")).
		WithPart(ArmProject, "screw",
			Joint("head", Provides("M6Screw")),
			Config("head")).
		WithPart(ArmProject, "plate",
			Joint("left", Requires("Fastener"), Provides("Screw")),
			Joint("right", Requires("Fastener"), Provides("Screw")),
			Joint("face", Provides("Plate")),
			Config("face", "left", "right"))
}
