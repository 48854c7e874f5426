// Package engine evaluates rule groups against a media library.
//
// The library is read one page at a time. Every rule of the group is applied
// to a page before the next page is fetched, and the matches of each page are
// appended to the group result.
//
// # Sections
//
// Rules are grouped into sections by their Section number. The first rule of
// a section filters the full page. Later rules in the same section either
// widen the section result (OR: matching page items are added) or refine it
// (AND: items failing the comparison are removed). When a section ends, its
// result is merged into the page result using the operator of the section's
// first rule: OR takes the union, AND the intersection. The first section of
// a group is always merged as OR.
//
// # Absent values
//
// An item whose first or second operand is absent is skipped by that rule:
// it is neither added nor removed.
//
// # Operators
//
//	BIGGER, SMALLER   strict ordering of numbers or dates
//	EQUALS            scalar equality; lists: every element of the first is in the second
//	CONTAINS          first list holds the scalar; lists: second is non-empty and a subset of the first
//	BEFORE, AFTER     inclusive ordering
//	IN_LAST           second <= first <= now
//	IN_NEXT           now <= first <= second
//
// Operands of different kinds never match.
package engine
