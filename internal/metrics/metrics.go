package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Simple Prometheus-style metrics for the supervisor.
// This is intentionally minimal and in-memory only.

var (
	mu             sync.RWMutex
	requestsTotal  = make(map[reqKey]int64)
	latencyMsSum   = make(map[latKey]int64)
	latencyMsCount = make(map[latKey]int64)

	pollsTotal         int64
	pollErrorsTotal    int64
	claimsTotal        int64
	spawnsTotal        int64
	retriesTotal       int64
	workerExitsTotal   = make(map[string]int64)
	workersGarbageColl int64
)

type reqKey struct {
	Method string
	Path   string
	Status int
}

type latKey struct {
	Method string
	Path   string
}

// RecordRequest increments request counter and records latency.
func RecordRequest(method, path string, status int, latencyMs int64) {
	mu.Lock()
	defer mu.Unlock()

	rk := reqKey{Method: method, Path: path, Status: status}
	requestsTotal[rk]++

	lk := latKey{Method: method, Path: path}
	latencyMsSum[lk] += latencyMs
	latencyMsCount[lk]++
}

// RecordPoll counts one queue-poller iteration and whether it failed.
func RecordPoll(err bool) {
	mu.Lock()
	defer mu.Unlock()
	pollsTotal++
	if err {
		pollErrorsTotal++
	}
}

// RecordClaim counts a successful pending-to-running claim.
func RecordClaim() {
	mu.Lock()
	defer mu.Unlock()
	claimsTotal++
}

// RecordSpawn counts a worker process launch.
func RecordSpawn() {
	mu.Lock()
	defer mu.Unlock()
	spawnsTotal++
}

// RecordRetry counts a failed job rescheduled by the retry loop.
func RecordRetry() {
	mu.Lock()
	defer mu.Unlock()
	retriesTotal++
}

// RecordWorkerExit counts worker terminations by outcome
// (completed, failed, killed).
func RecordWorkerExit(outcome string) {
	mu.Lock()
	defer mu.Unlock()
	workerExitsTotal[outcome]++
}

// RecordGC counts finished worker records pruned by garbage collection.
func RecordGC(pruned int) {
	if pruned <= 0 {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	workersGarbageColl += int64(pruned)
}

// Export returns Prometheus-style metrics text.
func Export() string {
	mu.RLock()
	defer mu.RUnlock()

	var b strings.Builder

	b.WriteString("# HELP geocrawl_http_requests_total Total HTTP requests\n")
	b.WriteString("# TYPE geocrawl_http_requests_total counter\n")

	// Sort keys for stable output
	var reqKeys []reqKey
	for k := range requestsTotal {
		reqKeys = append(reqKeys, k)
	}
	sort.Slice(reqKeys, func(i, j int) bool {
		if reqKeys[i].Method != reqKeys[j].Method {
			return reqKeys[i].Method < reqKeys[j].Method
		}
		if reqKeys[i].Path != reqKeys[j].Path {
			return reqKeys[i].Path < reqKeys[j].Path
		}
		return reqKeys[i].Status < reqKeys[j].Status
	})

	for _, k := range reqKeys {
		v := requestsTotal[k]
		fmt.Fprintf(&b, "geocrawl_http_requests_total{method=\"%s\",path=\"%s\",status=\"%d\"} %d\n",
			k.Method, k.Path, k.Status, v)
	}

	b.WriteString("# HELP geocrawl_http_request_duration_ms_sum Total request duration in milliseconds\n")
	b.WriteString("# TYPE geocrawl_http_request_duration_ms_sum counter\n")
	b.WriteString("# HELP geocrawl_http_request_duration_ms_count Request count for latency metric\n")
	b.WriteString("# TYPE geocrawl_http_request_duration_ms_count counter\n")

	var latKeys []latKey
	for k := range latencyMsSum {
		latKeys = append(latKeys, k)
	}
	sort.Slice(latKeys, func(i, j int) bool {
		if latKeys[i].Method != latKeys[j].Method {
			return latKeys[i].Method < latKeys[j].Method
		}
		return latKeys[i].Path < latKeys[j].Path
	})

	for _, k := range latKeys {
		sum := latencyMsSum[k]
		cnt := latencyMsCount[k]
		fmt.Fprintf(&b, "geocrawl_http_request_duration_ms_sum{method=\"%s\",path=\"%s\"} %d\n",
			k.Method, k.Path, sum)
		fmt.Fprintf(&b, "geocrawl_http_request_duration_ms_count{method=\"%s\",path=\"%s\"} %d\n",
			k.Method, k.Path, cnt)
	}

	b.WriteString("# HELP geocrawl_queue_polls_total Total queue-poller iterations\n")
	b.WriteString("# TYPE geocrawl_queue_polls_total counter\n")
	fmt.Fprintf(&b, "geocrawl_queue_polls_total %d\n", pollsTotal)

	b.WriteString("# HELP geocrawl_queue_poll_errors_total Queue-poller iterations that failed\n")
	b.WriteString("# TYPE geocrawl_queue_poll_errors_total counter\n")
	fmt.Fprintf(&b, "geocrawl_queue_poll_errors_total %d\n", pollErrorsTotal)

	b.WriteString("# HELP geocrawl_job_claims_total Jobs claimed from pending\n")
	b.WriteString("# TYPE geocrawl_job_claims_total counter\n")
	fmt.Fprintf(&b, "geocrawl_job_claims_total %d\n", claimsTotal)

	b.WriteString("# HELP geocrawl_worker_spawns_total Worker processes launched\n")
	b.WriteString("# TYPE geocrawl_worker_spawns_total counter\n")
	fmt.Fprintf(&b, "geocrawl_worker_spawns_total %d\n", spawnsTotal)

	b.WriteString("# HELP geocrawl_job_retries_total Failed jobs rescheduled\n")
	b.WriteString("# TYPE geocrawl_job_retries_total counter\n")
	fmt.Fprintf(&b, "geocrawl_job_retries_total %d\n", retriesTotal)

	b.WriteString("# HELP geocrawl_worker_exits_total Worker terminations by outcome\n")
	b.WriteString("# TYPE geocrawl_worker_exits_total counter\n")

	var outcomes []string
	for o := range workerExitsTotal {
		outcomes = append(outcomes, o)
	}
	sort.Strings(outcomes)
	for _, o := range outcomes {
		fmt.Fprintf(&b, "geocrawl_worker_exits_total{outcome=\"%s\"} %d\n", o, workerExitsTotal[o])
	}

	b.WriteString("# HELP geocrawl_worker_records_pruned_total Finished worker records removed by GC\n")
	b.WriteString("# TYPE geocrawl_worker_records_pruned_total counter\n")
	fmt.Fprintf(&b, "geocrawl_worker_records_pruned_total %d\n", workersGarbageColl)

	return b.String()
}
