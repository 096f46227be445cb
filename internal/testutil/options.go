// Package testutil provides fixture builders for part catalogs.
package testutil

import "github.com/zjrosen/clsforge/internal/catalog"

// partData holds everything needed to build a part descriptor.
type partData struct {
	meta    catalog.Meta
	jos     []catalog.JointOrigin
	configs []catalog.Configuration
	derive  bool
}

func defaultPart(name string) partData {
	return partData{meta: catalog.Meta{
		Name:            name,
		ForgeDocumentID: "doc-" + name,
		ForgeFolderID:   "folder",
		ForgeProjectID:  "forge-project",
	}}
}

// PartOption configures a part during fixture setup.
type PartOption func(*partData)

// JointOriginOption configures a joint origin during fixture setup.
type JointOriginOption func(*catalog.JointOrigin)

// DocumentID overrides the forge document id (default "doc-<name>").
func DocumentID(id string) PartOption {
	return func(p *partData) { p.meta.ForgeDocumentID = id }
}

// Joint adds a joint origin.
func Joint(id string, opts ...JointOriginOption) PartOption {
	return func(p *partData) {
		jo := catalog.JointOrigin{ID: id}
		for _, opt := range opts {
			opt(&jo)
		}
		p.jos = append(p.jos, jo)
	}
}

// Config adds a configuration providing provides and requiring requires
// in order.
func Config(provides string, requires ...string) PartOption {
	return func(p *partData) {
		p.configs = append(p.configs, catalog.Configuration{Requires: requires, Provides: provides})
	}
}

// Derive generates configurations with catalog.DeriveConfigurations.
func Derive() PartOption {
	return func(p *partData) { p.derive = true }
}

func Requires(names ...string) JointOriginOption {
	return func(jo *catalog.JointOrigin) { jo.Requires = names }
}

func Provides(names ...string) JointOriginOption {
	return func(jo *catalog.JointOrigin) { jo.Provides = names }
}

func Motion(m catalog.Motion) JointOriginOption {
	return func(jo *catalog.JointOrigin) { jo.Motion = m }
}

func Count(n int) JointOriginOption {
	return func(jo *catalog.JointOrigin) { jo.Count = n }
}
