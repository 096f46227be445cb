package tracing

// Span attribute keys recorded by the repository builder.
const (
	AttrProjectID          = "project.id"
	AttrPartName           = "part.name"
	AttrPartDocumentID     = "part.forge_document_id"
	AttrConfigurations     = "build.configurations"
	AttrEntries            = "build.entries"
	AttrSkippedBlacklisted = "build.skipped_blacklisted"
	AttrSubstitutes        = "build.substitutes"
	AttrBlacklist          = "build.blacklist"
	AttrPropagatedTypes    = "build.propagated_types"
	AttrConnectJointOrigin = "build.connect_joint_origin"
	AttrParallel           = "build.parallel"
	AttrWorkers            = "build.workers"

	AttrErrorMessage = "error.message"
)

// Span names.
const (
	SpanBuildProject = "builder.add_all"
	SpanBuildPart    = "builder.add_part"
	SpanCatalogFetch = "catalog.fetch"
)

// Event names for span events.
const (
	EventConfigurationSkipped = "configuration.skipped"
	EventSubstituteInserted   = "substitute.inserted"
)
