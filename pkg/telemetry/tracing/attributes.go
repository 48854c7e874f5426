package tracing

import "go.opentelemetry.io/otel/attribute"

// Attribute keys of curator spans.
const (
	AttrJob        = "curator.job"
	AttrRunID      = "curator.run_id"
	AttrGroup      = "curator.rule_group"
	AttrLibrary    = "curator.library"
	AttrCollection = "curator.collection"
	AttrItem       = "curator.item"
	AttrMatched    = "curator.matched"
	AttrPages      = "curator.pages"
	AttrStep       = "curator.step"
)

// JobAttributes describes a scheduled job run.
func JobAttributes(job, runID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrJob, job),
		attribute.String(AttrRunID, runID),
	}
}

// GroupAttributes describes a rule group evaluation.
func GroupAttributes(group, libraryID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrGroup, group),
		attribute.String(AttrLibrary, libraryID),
	}
}

// ResultAttributes describes the outcome of an evaluation.
func ResultAttributes(matched, pages int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrMatched, matched),
		attribute.Int(AttrPages, pages),
	}
}

// ItemAttributes describes one collection item.
func ItemAttributes(collection, itemID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrCollection, collection),
		attribute.String(AttrItem, itemID),
	}
}
