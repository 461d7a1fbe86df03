package services

import (
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"content-platform-api/models"
)

// ResourceJob samples process health on a schedule and raises
// METRIC_THRESHOLD alerts to administrators when a bound is breached. A
// per-category cooldown keeps a sustained breach from flooding the store.
type ResourceJob struct {
	broadcaster   *Broadcaster
	maxHeapMB     uint64
	maxGoroutines int

	mu        sync.Mutex
	lastAlert map[string]time.Time
}

const resourceAlertCooldown = 30 * time.Minute

func NewResourceJob(broadcaster *Broadcaster, maxHeapMB uint64, maxGoroutines int) *ResourceJob {
	if maxHeapMB == 0 {
		maxHeapMB = 1024
	}
	if maxGoroutines <= 0 {
		maxGoroutines = 5000
	}
	return &ResourceJob{
		broadcaster:   broadcaster,
		maxHeapMB:     maxHeapMB,
		maxGoroutines: maxGoroutines,
		lastAlert:     make(map[string]time.Time),
	}
}

// Run executes one sampling pass.
func (j *ResourceJob) Run() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	heapMB := ms.HeapAlloc >> 20

	if heapMB > j.maxHeapMB {
		category := "MEMORY_HIGH"
		if heapMB > j.maxHeapMB*2 {
			category = "MEMORY_CRITICAL"
		}
		j.raise(category, fmt.Sprintf("Heap usage at %d MB exceeds the %d MB bound", heapMB, j.maxHeapMB),
			fmt.Sprintf(`{"heap_mb":%d,"limit_mb":%d}`, heapMB, j.maxHeapMB))
	}

	if n := runtime.NumGoroutine(); n > j.maxGoroutines {
		j.raise("GOROUTINES_HIGH", fmt.Sprintf("%d goroutines exceed the %d bound", n, j.maxGoroutines),
			fmt.Sprintf(`{"goroutines":%d,"limit":%d}`, n, j.maxGoroutines))
	}
}

func (j *ResourceJob) raise(category, message, metadata string) {
	j.mu.Lock()
	if last, ok := j.lastAlert[category]; ok && time.Since(last) < resourceAlertCooldown {
		j.mu.Unlock()
		return
	}
	j.lastAlert[category] = time.Now()
	j.mu.Unlock()

	alert := NewMetricAlert(category, message, metadata)
	if _, err := j.broadcaster.RaiseForRole(models.RoleAdmin, func(string) models.Notification {
		return alert
	}); err != nil {
		log.Printf("resource alert %s not raised: %v", category, err)
	}
}
