package guards

import (
	"context"
	"regexp"
)

// idFormatRegex matches the required entity/relationship id format:
// alphanumeric plus `-` and `_` (spec.md §4.8).
var idFormatRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// RelationshipTypeKnown hard-blocks a candidate relationship whose type
// is not a member of the catalog.
var RelationshipTypeKnown = NewGuardFunc("relationship_type_known", func(_ context.Context, gctx *GuardContext) Result {
	if gctx.RelationshipType == "" || gctx.RelationshipTypeKnown {
		return Pass("relationship_type_known")
	}
	return Fail("relationship_type_known", HardBlock,
		"relationship type \""+gctx.RelationshipType+"\" is not in the relationship catalog",
		"use a type from the catalog returned by the schema introspection tool",
	)
})

// EndpointsExist hard-blocks when src or tgt reference an entity that is
// not present in the engine.
var EndpointsExist = NewGuardFunc("endpoints_exist", func(_ context.Context, gctx *GuardContext) Result {
	if gctx.RelationshipType == "" {
		return Pass("endpoints_exist")
	}
	if !gctx.SourceExists {
		return Fail("endpoints_exist", HardBlock, "source entity does not exist", "create the source entity first")
	}
	if !gctx.TargetExists {
		return Fail("endpoints_exist", HardBlock, "target entity does not exist", "create the target entity first")
	}
	return Pass("endpoints_exist")
})

// DomainRange hard-blocks a relationship whose (source kind, target
// kind) pair falls outside the type's declared domain x range.
var DomainRange = NewGuardFunc("domain_range", func(_ context.Context, gctx *GuardContext) Result {
	if gctx.RelationshipType == "" || gctx.DomainRangeOK {
		return Pass("domain_range")
	}
	return Fail("domain_range", HardBlock,
		"("+gctx.SourceKind+" -> "+gctx.TargetKind+") is outside the domain/range declared for "+gctx.RelationshipType,
		"check the catalog entry for this relationship type's allowed source and target kinds",
	)
})

// MetadataRange hard-blocks weight/confidence values outside [0, 1].
var MetadataRange = NewGuardFunc("metadata_range", func(_ context.Context, gctx *GuardContext) Result {
	if gctx.RelationshipType == "" {
		return Pass("metadata_range")
	}
	if gctx.Weight < 0 || gctx.Weight > 1 {
		return Fail("metadata_range", HardBlock, "weight must be in [0, 1]", "clamp or recompute the weight before retrying")
	}
	if gctx.Confidence < 0 || gctx.Confidence > 1 {
		return Fail("metadata_range", HardBlock, "confidence must be in [0, 1]", "clamp or recompute the confidence before retrying")
	}
	return Pass("metadata_range")
})

// IDFormat hard-blocks an id that doesn't match the required format.
var IDFormat = NewGuardFunc("id_format", func(_ context.Context, gctx *GuardContext) Result {
	if gctx.ID == "" {
		return Pass("id_format")
	}
	if idFormatRegex.MatchString(gctx.ID) {
		return Pass("id_format")
	}
	return Fail("id_format", HardBlock,
		"id \""+gctx.ID+"\" must be alphanumeric plus '-' and '_', 1-128 characters",
		"generate a conforming id, e.g. via a slug of the entity name",
	)
})

// BatchSizeLimit hard-blocks a batch larger than MaxBatchSize (500 per
// spec.md §4.8).
var BatchSizeLimit = NewGuardFunc("batch_size_limit", func(_ context.Context, gctx *GuardContext) Result {
	if gctx.MaxBatchSize <= 0 || gctx.BatchSize <= gctx.MaxBatchSize {
		return Pass("batch_size_limit")
	}
	return Fail("batch_size_limit", HardBlock,
		"batch size exceeds the maximum",
		"split the batch into chunks of at most the configured maximum",
	)
})

// RelationshipGuards returns the guards run against every relationship
// item of add_relationship / add_relationships_batch, in validation
// order: catalog membership, endpoint existence, domain/range, metadata
// range, and id format.
func RelationshipGuards() []Guard {
	return []Guard{
		RelationshipTypeKnown,
		EndpointsExist,
		DomainRange,
		MetadataRange,
		IDFormat,
	}
}

// BatchGuards returns the guards run once per batch call, ahead of the
// per-item RelationshipGuards sweep.
func BatchGuards() []Guard {
	return []Guard{BatchSizeLimit}
}
