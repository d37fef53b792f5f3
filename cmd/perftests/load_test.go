package perftests

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	bidding "auction-house/internal/biddingService"
	model "auction-house/internal/models"
	repository "auction-house/internal/repository"
	"auction-house/internal/rules"

	"github.com/shopspring/decimal"
)

// LoadScenario defines configurable benchmark parameters
type LoadScenario struct {
	Name            string
	NumUsers        int
	NumListings     int
	BidsPerUser     int
	ReadRatio       int
	MaxBidIncrement int
	Burst           bool // if true, no delay between ops
}

// OperationMetrics collects latencies safely
type OperationMetrics struct {
	mu        sync.Mutex
	latencies []time.Duration
}

func (om *OperationMetrics) Record(d time.Duration) {
	om.mu.Lock()
	om.latencies = append(om.latencies, d)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (min, max, avg, p95, p99 time.Duration) {
	om.mu.Lock()
	latencies := append([]time.Duration(nil), om.latencies...)
	om.mu.Unlock()
	if len(latencies) == 0 {
		return
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	min = latencies[0]
	max = latencies[len(latencies)-1]

	var total time.Duration
	for _, d := range latencies {
		total += d
	}
	avg = total / time.Duration(len(latencies))
	p95 = latencies[int(0.95*float64(len(latencies)))]
	p99 = latencies[int(0.99*float64(len(latencies)))]
	return
}

// newListing builds an active listing owned by a benchmark seller
func newListing(id, title, description string, startingBid int64) model.Listing {
	return model.Listing{
		ListingID:   id,
		AuthorID:    "seller",
		Title:       title,
		Description: description,
		StartingBid: decimal.NewFromInt(startingBid),
		DatePosted:  time.Now().UTC(),
		IsActive:    true,
		ImageRef:    model.DefaultImageRef,
	}
}

// setupRepo creates repository and bidding service with listings
func setupRepo(numListings int) (*repository.MemoryRepo, *bidding.BiddingService) {
	repo := repository.NewMemoryRepo()
	svc := bidding.NewBiddingService(repo, rules.NewEngine(rules.Policy{}))
	for i := 0; i < numListings; i++ {
		repo.AddListing(newListing(fmt.Sprintf("listing_%d", i), fmt.Sprintf("title_%d", i), "Load test listing", 100))
	}
	return repo, svc
}

// Benchmark_Load_BiddingSystem runs multiple scenarios
func Benchmark_Load_BiddingSystem(b *testing.B) {
	scenarios := []LoadScenario{
		{"Low-Contention-WriteHeavy", 200, 200, 10, 0, 50, false},
		{"High-Contention-WriteHeavy", 500, 10, 20, 0, 20, false},
		{"Mixed-Workload", 300, 50, 15, 7, 30, false},
		{"ReadHeavy", 200, 50, 5, 9, 20, false},
		{"Edge-Case-SingleListing", 100, 1, 10, 5, 10, false},
		{"Peak-Burst", 500, 50, 50, 0, 20, true},
	}

	for _, s := range scenarios {
		b.Run(s.Name, func(b *testing.B) {
			runParallelScenario(b, s)
		})
	}
}

func runParallelScenario(b *testing.B, s LoadScenario) {
	b.ReportAllocs()

	_, svc := setupRepo(s.NumListings)
	ctx := context.Background()

	var totalOps, successfulBids, failedBids, totalReads int64
	listingSuccess := make([]int64, s.NumListings)
	metrics := &OperationMetrics{}

	start := time.Now()

	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano() + int64(time.Now().Nanosecond())))

		for pb.Next() {
			listingIndex := rnd.Intn(s.NumListings)
			listingID := fmt.Sprintf("listing_%d", listingIndex)
			opType := rnd.Intn(10)

			opStart := time.Now()
			if opType < s.ReadRatio {
				// no bids yet is a valid outcome for a read
				_, _ = svc.GetWinningBid(ctx, listingID)
				atomic.AddInt64(&totalReads, 1)
			} else {
				amount := decimal.NewFromInt(int64(100 + rnd.Intn(s.MaxBidIncrement)))
				userID := fmt.Sprintf("user_%d", rnd.Intn(s.NumUsers))
				if _, err := svc.PlaceBid(ctx, userID, listingID, amount); err != nil {
					atomic.AddInt64(&failedBids, 1)
				} else {
					atomic.AddInt64(&successfulBids, 1)
					atomic.AddInt64(&listingSuccess[listingIndex], 1)
				}
			}

			metrics.Record(time.Since(opStart))
			atomic.AddInt64(&totalOps, 1)

			if !s.Burst {
				time.Sleep(time.Millisecond)
			}
		}
	})

	elapsed := time.Since(start)
	throughput := float64(totalOps) / elapsed.Seconds()
	min, max, avg, p95, p99 := metrics.Stats()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	b.Logf(
		"Scenario: %s | Listings: %d | Total Ops: %d | Success Bids: %d | Failed Bids: %d | Reads: %d | Elapsed: %s | Throughput: %.2f ops/sec | Latency(us) min: %.2f avg: %.2f max: %.2f p95: %.2f p99: %.2f | Memory Alloc: %.2f MB",
		s.Name, s.NumListings, totalOps, successfulBids, failedBids, totalReads, elapsed,
		throughput,
		float64(min.Microseconds()), float64(avg.Microseconds()), float64(max.Microseconds()),
		float64(p95.Microseconds()), float64(p99.Microseconds()),
		float64(mem.Alloc)/1024/1024,
	)

	for i, v := range listingSuccess {
		if v > 0 {
			b.Logf("Listing %d successful bids: %d", i, v)
		}
	}
}
