package builder

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"

	"github.com/google/uuid"

	"github.com/zjrosen/clsforge/internal/catalog"
	"github.com/zjrosen/clsforge/internal/types"
)

// Virtual substitute metadata.
const (
	// NoInsert marks document references that must not be placed in an
	// assembly; a real connector is spliced in at that point instead.
	NoInsert = "NoInsert"
	// MarkerPrefix starts the name of every virtual substitute.
	MarkerPrefix = "clsconnectmarker_"
)

// markerNamespace seeds the deterministic marker uuids.
var markerNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("clsforge/connect-marker"))

// Slot is a required joint origin of a configuration, in argument order.
type Slot struct {
	JointOriginID string         `json:"id"`
	Requires      []string       `json:"requires"`
	Provides      []string       `json:"provides"`
	Motion        catalog.Motion `json:"motion"`
	Count         int            `json:"count"`
}

// Part is a combinator identity: one part used in one configuration.
// Parts are immutable and compare by content; Key is the sha256 of the
// canonical JSON encoding.
type Part struct {
	meta     catalog.Meta
	provides string
	offers   []string
	motion   catalog.Motion
	slots    []Slot
	key      string
}

// partContent is the canonical encoding. Field order is fixed by the
// struct, slot order by the configuration.
type partContent struct {
	Name            string         `json:"name"`
	ForgeDocumentID string         `json:"forgeDocumentId"`
	ForgeFolderID   string         `json:"forgeFolderId"`
	ForgeProjectID  string         `json:"forgeProjectId"`
	Provides        string         `json:"provides"`
	Offers          []string       `json:"providedTypes"`
	Motion          catalog.Motion `json:"motion"`
	Slots           []Slot         `json:"requiredJointOrigins"`
}

// NewPart builds the identity of a part providing the joint origin
// provides with motion, and requiring slots in order. The slots are copied.
func NewPart(meta catalog.Meta, provides string, motion catalog.Motion, slots []Slot) Part {
	p := Part{
		meta:     meta,
		provides: provides,
		offers:   []string{},
		motion:   motion,
		slots:    make([]Slot, len(slots)),
	}
	for i, s := range slots {
		s.Requires = nonNil(s.Requires)
		s.Provides = nonNil(s.Provides)
		p.slots[i] = s
	}
	p.key = p.computeKey()
	return p
}

// WithOffers returns a copy of p that also records the capability names
// its provided joint origin offers. They are part of the identity, so two
// catalog parts that differ only in what they provide get distinct keys.
func (p Part) WithOffers(names []string) Part {
	p.offers = nonNil(names)
	p.slots = p.Slots()
	p.key = p.computeKey()
	return p
}

// NewVirtualSubstitute returns the connector marker standing in for a
// blacklisted required type. Only the structure of required feeds the
// identity, so every slot demanding the same type shares one marker.
func NewVirtualSubstitute(required types.Type) Part {
	name := MarkerPrefix + uuid.NewSHA1(markerNamespace, []byte(types.Key(required))).String()
	return NewPart(catalog.Meta{
		Name:            name,
		ForgeDocumentID: NoInsert,
		ForgeFolderID:   NoInsert,
		ForgeProjectID:  NoInsert,
	}, name, catalog.MotionRigid, nil)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}

func (p Part) computeKey() string {
	b, err := json.Marshal(p.content())
	if err != nil {
		// partContent holds only strings, ints and slices of them.
		panic("builder: encode part: " + err.Error())
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func (p Part) content() partContent {
	return partContent{
		Name:            p.meta.Name,
		ForgeDocumentID: p.meta.ForgeDocumentID,
		ForgeFolderID:   p.meta.ForgeFolderID,
		ForgeProjectID:  p.meta.ForgeProjectID,
		Provides:        p.provides,
		Offers:          p.offers,
		Motion:          p.motion,
		Slots:           p.slots,
	}
}

// Key is the content hash used as the repository key.
func (p Part) Key() string { return p.key }

// Equal reports whether p and other have identical content.
func (p Part) Equal(other Part) bool { return p.key == other.key }

func (p Part) Meta() catalog.Meta     { return p.meta }
func (p Part) Provides() string       { return p.provides }
func (p Part) Offers() []string       { return slices.Clone(p.offers) }
func (p Part) Motion() catalog.Motion { return p.motion }

// Slots returns a copy of the required slots in argument order.
func (p Part) Slots() []Slot {
	out := make([]Slot, len(p.slots))
	for i, s := range p.slots {
		s.Requires = slices.Clone(s.Requires)
		s.Provides = slices.Clone(s.Provides)
		out[i] = s
	}
	return out
}

// Arity is the number of required slots.
func (p Part) Arity() int { return len(p.slots) }

// IsVirtual reports whether p is a connector marker.
func (p Part) IsVirtual() bool { return p.meta.ForgeDocumentID == NoInsert }

// String renders the part as name[provides].
func (p Part) String() string {
	if p.IsVirtual() {
		return p.meta.Name
	}
	return p.meta.Name + "[" + p.provides + "]"
}

// MarshalJSON encodes the canonical content with the key.
func (p Part) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key string `json:"key"`
		partContent
	}{Key: p.key, partContent: p.content()})
}
