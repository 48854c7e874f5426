package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"curator-hq/curator/pkg/media"
	"curator-hq/curator/pkg/rules"
	"curator-hq/curator/pkg/rules/types"
)

// ValueSource resolves a property reference for an item.
type ValueSource interface {
	Resolve(ctx context.Context, ref types.PropertyRef, item media.Item) (any, bool)
}

// Library lists the items of a library server library page by page.
type Library interface {
	Library(ctx context.Context, libraryID string, offset, size int) (media.Page, error)
}

// Result is the outcome of evaluating one rule group.
type Result struct {
	// Items are the matching items in first-match order.
	Items []media.Item

	// Pages is the number of library pages fetched.
	Pages int

	// Scanned is the number of library items evaluated.
	Scanned int

	// Skipped counts operand resolutions that came back absent.
	Skipped int
}

// Evaluator applies rule groups to a library.
type Evaluator struct {
	config  *Config
	table   *types.Table
	library Library
	values  ValueSource
	logger  *slog.Logger
	now     func() time.Time
}

// NewEvaluator creates an evaluator. A nil config uses DefaultConfig.
func NewEvaluator(config *Config, table *types.Table, library Library, values ValueSource) (*Evaluator, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if table == nil {
		table = types.NewTable()
	}
	return &Evaluator{
		config:  config,
		table:   table,
		library: library,
		values:  values,
		logger:  slog.Default().With("component", "rules.engine"),
		now:     time.Now,
	}, nil
}

// outcome is the effect of one rule on one item.
type outcome int

const (
	skipped outcome = iota
	matched
	failed
)

// run holds the state of one group evaluation.
type run struct {
	ctx     context.Context
	defs    []rules.Definition
	literal []any
	now     time.Time
	skipped int
}

// Evaluate applies the rules of a group, in order, to every page of the
// library and returns the matching items.
func (e *Evaluator) Evaluate(ctx context.Context, libraryID string, defs []rules.Definition) (*Result, error) {
	if len(defs) == 0 {
		return nil, ErrNoRules
	}

	r := &run{
		ctx:     ctx,
		defs:    defs,
		literal: make([]any, len(defs)),
		now:     e.now(),
	}
	for i, d := range defs {
		if d.CustomVal == nil {
			continue
		}
		v, err := Coerce(*d.CustomVal)
		if err != nil {
			e.logger.Warn("rule literal unusable, rule matches nothing",
				"rule", i,
				"property", e.table.Name(d.FirstVal),
				"error", err,
			)
			continue
		}
		r.literal[i] = v
	}

	result := &Result{}
	matches := newItemSet()
	size := e.config.PageSize
	for page := 0; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("evaluating library %s: %w", libraryID, err)
		}

		offset := page * size
		p, err := e.library.Library(ctx, libraryID, offset, size)
		if err != nil {
			return nil, &LibraryError{LibraryID: libraryID, Offset: offset, Cause: err}
		}
		result.Pages++
		result.Scanned += len(p.Items)

		matches.union(e.evaluatePage(r, p.Items))

		e.logger.Debug("page evaluated",
			"library", libraryID,
			"offset", offset,
			"items", len(p.Items),
			"total", p.TotalSize,
			"matches", matches.len(),
		)

		if (page+1)*size >= p.TotalSize || len(p.Items) == 0 {
			break
		}
	}

	result.Items = matches.list()
	result.Skipped = r.skipped
	return result, nil
}

// evaluatePage applies every rule to one page.
func (e *Evaluator) evaluatePage(r *run, page []media.Item) *itemSet {
	pageResult := newItemSet()
	var section *itemSet
	sectionAnd := false

	for i, d := range r.defs {
		opening := i == 0 || d.Section != r.defs[i-1].Section
		if opening {
			if section != nil {
				merge(pageResult, section, sectionAnd)
			}
			section = newItemSet()
			sectionAnd = i > 0 && d.OperatorOr(types.Or) == types.And
			if sectionAnd {
				// Candidates are the running result, so absent operands keep their item.
				section.union(pageResult)
				e.refine(r, i, section)
			} else {
				e.widen(r, i, section, page)
			}
			continue
		}

		if d.OperatorOr(types.Or) == types.And {
			e.refine(r, i, section)
		} else {
			e.widen(r, i, section, page)
		}
	}
	if section != nil {
		merge(pageResult, section, sectionAnd)
	}
	return pageResult
}

func merge(pageResult, section *itemSet, and bool) {
	if and {
		pageResult.intersect(section)
		return
	}
	pageResult.union(section)
}

// widen adds the page items matching rule i that are not in set yet.
func (e *Evaluator) widen(r *run, i int, set *itemSet, page []media.Item) {
	candidates := make([]media.Item, 0, len(page))
	for _, item := range page {
		if !set.has(item.ID) {
			candidates = append(candidates, item)
		}
	}
	for j, o := range e.check(r, i, candidates) {
		if o == matched {
			set.add(candidates[j])
		}
	}
}

// refine removes the items of set failing rule i.
func (e *Evaluator) refine(r *run, i int, set *itemSet) {
	candidates := set.list()
	for j, o := range e.check(r, i, candidates) {
		if o == failed {
			set.remove(candidates[j].ID)
		}
	}
}

// check evaluates rule i for each item. Results are positional.
func (e *Evaluator) check(r *run, i int, items []media.Item) []outcome {
	out := make([]outcome, len(items))
	if e.config.Concurrency < 2 || len(items) < 2 {
		for j, item := range items {
			out[j] = e.checkItem(r, i, item)
		}
	} else {
		sem := make(chan struct{}, e.config.Concurrency)
		var wg sync.WaitGroup
		for j, item := range items {
			sem <- struct{}{}
			wg.Go(func() {
				defer func() { <-sem }()
				out[j] = e.checkItem(r, i, item)
			})
		}
		wg.Wait()
	}
	for _, o := range out {
		if o == skipped {
			r.skipped++
		}
	}
	return out
}

func (e *Evaluator) checkItem(r *run, i int, item media.Item) outcome {
	d := r.defs[i]
	first, ok := e.values.Resolve(r.ctx, d.FirstVal, item)
	if !ok {
		return skipped
	}

	var second any
	switch {
	case d.LastVal != nil:
		second, ok = e.values.Resolve(r.ctx, *d.LastVal, item)
	case r.literal[i] != nil:
		second, ok = r.literal[i], true
	default:
		ok = false
	}
	if !ok {
		return skipped
	}

	if compare(d.Action, first, second, r.now) {
		return matched
	}
	return failed
}
