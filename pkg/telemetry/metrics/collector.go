package metrics

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"curator-hq/curator/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// Collection change label values.
const (
	ChangeAdded   = "added"
	ChangeRemoved = "removed"
)

// maxLabelSets bounds the number of distinct user supplied label values.
const maxLabelSets = 1000

// Collector owns every curator metric and the registry they live in.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	ruleMetrics   *RuleMetrics
	workerMetrics *WorkerMetrics
	jobMetrics    *JobMetrics
	clientMetrics *ClientMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a collector. If registry is nil a fresh registry is
// created. An empty namespace falls back to "curator".
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg == nil {
		cfg = &config.MetricsConfig{}
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		ruleMetrics:        NewRuleMetrics(cfg.Namespace, registry),
		workerMetrics:      NewWorkerMetrics(cfg.Namespace, registry),
		jobMetrics:         NewJobMetrics(cfg.Namespace, registry),
		clientMetrics:      NewClientMetrics(cfg.Namespace, registry),
		cardinalityLimiter: NewCardinalityLimiter(maxLabelSets),
	}
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// limit returns value, or "other" once the label budget is spent.
func (c *Collector) limit(kind, value string) string {
	if c.cardinalityLimiter.Allow(fmt.Sprintf("%s:%s", kind, value)) {
		return value
	}
	return "other"
}

// RecordEvaluation records one rule group evaluation.
//
// Parameters:
//   - group: rule group name
//   - status: StatusSuccess, StatusError or StatusSkipped
//   - duration: time spent evaluating the group
//   - matched: number of items the group matched
func (c *Collector) RecordEvaluation(group, status string, duration time.Duration, matched int) {
	if !c.enabled() {
		return
	}
	c.ruleMetrics.RecordEvaluation(c.limit("group", group), status, duration, matched)
}

// RecordCollectionChange records items added to or removed from a collection.
func (c *Collector) RecordCollectionChange(collection, change string, n int) {
	if !c.enabled() || n <= 0 {
		return
	}
	c.ruleMetrics.RecordCollectionChange(c.limit("collection", collection), change, n)
}

// RecordRemovalStep records the outcome of one removal step for one item.
//
// Parameters:
//   - step: "store", "manager", "requests" or "media_server"
//   - outcome: StatusSuccess, StatusError or StatusSkipped
func (c *Collector) RecordRemovalStep(step, outcome string) {
	if !c.enabled() {
		return
	}
	c.workerMetrics.RecordStep(step, outcome)
}

// RecordExpired records expired items handed to the removal worker.
func (c *Collector) RecordExpired(collection string, n int) {
	if !c.enabled() || n <= 0 {
		return
	}
	c.workerMetrics.RecordExpired(c.limit("collection", collection), n)
}

// JobStarted marks a scheduled job as running.
func (c *Collector) JobStarted(job string) {
	if !c.enabled() {
		return
	}
	c.jobMetrics.Started(job)
}

// JobFinished records the end of a scheduled job run.
func (c *Collector) JobFinished(job, status string, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.jobMetrics.Finished(job, status, duration)
}

// ObserveRequest records one HTTP attempt of an API client. It satisfies
// clients.Observer.
func (c *Collector) ObserveRequest(client string, status int, duration time.Duration) {
	if !c.enabled() {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	c.clientMetrics.Observe(client, code, duration)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether a label set may be used: it is already known or
// the limit has not been reached.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
