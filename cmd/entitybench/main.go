// entitybench microbenchmarks entity registry publish throughput.
// Mirrors the pack's own bench-CLI shape (phroun-garland's
// cmd/garland-bench): a BenchResult per measured phase, a small
// runBench helper, and a printed summary at the end.
package main

import (
	"context"
	"flag"
	"fmt"
	"runtime"
	"time"

	"github.com/jtomasevic/entityctl/entity"
	"github.com/jtomasevic/entityctl/registry"
)

type Student struct {
	entity.Base
	Name string
	GPA  float64
}

func (s *Student) EntityBase() *entity.Base { return &s.Base }
func (s *Student) EntityTypeName() string   { return "Student" }

type BenchResult struct {
	Name     string
	Duration time.Duration
	Ops      int
}

func (r BenchResult) String() string {
	opsPerSec := float64(r.Ops) / r.Duration.Seconds()
	return fmt.Sprintf("%-45s %12v  (%d ops, %.0f ops/sec)", r.Name, r.Duration.Round(time.Microsecond), r.Ops, opsPerSec)
}

func main() {
	n := flag.Int("n", 10000, "number of publishes per phase")
	flag.Parse()

	fmt.Println("Entity Registry Publish Benchmark")
	fmt.Println("==================================")
	fmt.Printf("Iterations per phase: %d\n", *n)
	fmt.Printf("Go version: %s\n", runtime.Version())
	fmt.Println()

	var results []BenchResult

	runBench := func(name string, fn func() BenchResult) {
		fmt.Printf("  %-45s ", name+"...")
		result := fn()
		fmt.Printf("%v\n", result.Duration.Round(time.Microsecond))
		results = append(results, result)
	}

	runBench("First-publish throughput (fresh lineages)", func() BenchResult {
		return benchFreshPublishes(*n)
	})
	runBench("Re-publish throughput (changed field, same lineage)", func() BenchResult {
		return benchChangedRepublishes(*n)
	})
	runBench("Re-publish throughput (unchanged, same lineage)", func() BenchResult {
		return benchUnchangedRepublishes(*n)
	})

	fmt.Println("\nSUMMARY")
	fmt.Println("=======")
	for _, r := range results {
		fmt.Println(r)
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	fmt.Printf("\nHeap in use: %.1f MiB   Total allocated: %.1f MiB   GC cycles: %d\n",
		float64(mem.HeapInuse)/(1<<20), float64(mem.TotalAlloc)/(1<<20), mem.NumGC)
}

func benchFreshPublishes(n int) BenchResult {
	reg := registry.New(registry.Options{})
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < n; i++ {
		s := &Student{Base: entity.NewBase(), Name: "Ada", GPA: 3.9}
		if _, err := reg.Publish(ctx, s); err != nil {
			fmt.Printf("publish failed: %v\n", err)
		}
	}
	return BenchResult{Name: "First-publish (fresh lineages)", Duration: time.Since(start), Ops: n}
}

func benchChangedRepublishes(n int) BenchResult {
	reg := registry.New(registry.Options{})
	ctx := context.Background()
	s := &Student{Base: entity.NewBase(), Name: "Ada", GPA: 3.9}
	if _, err := reg.Publish(ctx, s); err != nil {
		fmt.Printf("seed publish failed: %v\n", err)
	}

	start := time.Now()
	for i := 0; i < n; i++ {
		s.GPA += 0.001
		if _, err := reg.Publish(ctx, s); err != nil {
			fmt.Printf("publish failed: %v\n", err)
		}
	}
	return BenchResult{Name: "Re-publish (changed field)", Duration: time.Since(start), Ops: n}
}

func benchUnchangedRepublishes(n int) BenchResult {
	reg := registry.New(registry.Options{})
	ctx := context.Background()
	s := &Student{Base: entity.NewBase(), Name: "Ada", GPA: 3.9}
	if _, err := reg.Publish(ctx, s); err != nil {
		fmt.Printf("seed publish failed: %v\n", err)
	}

	start := time.Now()
	for i := 0; i < n; i++ {
		if _, err := reg.Publish(ctx, s); err != nil {
			fmt.Printf("publish failed: %v\n", err)
		}
	}
	return BenchResult{Name: "Re-publish (unchanged)", Duration: time.Since(start), Ops: n}
}
