// bench-prep measures prep pipeline throughput and heap usage across worker
// counts on a synthetic corpus, keeping parse, transform, and window encoding
// on the hot path exactly as the prep command runs them.
//
// Usage:
//
//	go run ./scripts/bench-prep --trees 20000 --nodes 400 --max-len 500 \
//	  --emit values --workers 1,2,4,8 --profile-dir docs/profiles/prep
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/treefeed/pkg/ancestry"
	"github.com/Sumatoshi-tech/treefeed/pkg/ast"
	"github.com/Sumatoshi-tech/treefeed/pkg/parallel"
	"github.com/Sumatoshi-tech/treefeed/pkg/separate"
	"github.com/Sumatoshi-tech/treefeed/pkg/window"
)

func main() {
	trees := flag.Int("trees", 10000, "Number of synthetic trees")
	nodes := flag.Int("nodes", 200, "Nodes per tree")
	maxLen := flag.Int("max-len", 500, "Window length")
	emit := flag.String("emit", "values", "Transformation to benchmark (trees, values, ancestors)")
	workersFlag := flag.String("workers", "1,2,4", "Comma-separated worker counts")
	seed := flag.Int64("seed", 1, "Corpus generator seed")
	profileDir := flag.String("profile-dir", "", "Directory to write heap profiles (empty = no profiles)")
	cpuProfile := flag.Bool("cpu-profile", false, "Write CPU profile to profile-dir/cpu.prof")

	flag.Parse()

	workerCounts, err := parseWorkers(*workersFlag)
	if err != nil {
		log.Fatalf("parse --workers: %v", err)
	}

	transform, err := newTransform(*emit, *maxLen)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if *profileDir != "" {
		if mkErr := os.MkdirAll(*profileDir, 0o755); mkErr != nil {
			log.Fatalf("mkdir profile-dir: %v", mkErr)
		}
	}

	if *cpuProfile {
		if *profileDir == "" {
			log.Fatal("--cpu-profile requires --profile-dir")
		}

		cpuPath := filepath.Join(*profileDir, "cpu.prof")

		cpuFile, cpuErr := os.Create(cpuPath)
		if cpuErr != nil {
			log.Fatalf("create cpu profile: %v", cpuErr)
		}
		defer cpuFile.Close()

		if startErr := pprof.StartCPUProfile(cpuFile); startErr != nil {
			log.Fatalf("start cpu profile: %v", startErr)
		}

		defer pprof.StopCPUProfile()

		log.Printf("CPU profiling enabled -> %s", cpuPath)
	}

	corpus := genCorpus(rand.New(rand.NewSource(*seed)), *trees, *nodes)
	log.Printf("generated %s trees of %s nodes (emit=%s max-len=%d)",
		humanize.Comma(int64(*trees)), humanize.Comma(int64(*nodes)), *emit, *maxLen)

	takeSnapshot := newHeapReporter()
	takeSnapshot("after corpus generation")

	for _, w := range workerCounts {
		runtime.GC()

		started := time.Now()

		costs, mapErr := parallel.Map(corpus, transform, parallel.Options{Workers: w})
		if mapErr != nil {
			log.Fatalf("workers=%d: %v", w, mapErr)
		}

		elapsed := time.Since(started)

		var windows, bytes int
		for _, c := range costs {
			windows += c.windows
			bytes += c.bytes
		}

		rate := float64(len(corpus)) / elapsed.Seconds()
		log.Printf("workers=%-2d %10s trees/s  windows=%s  out=%s  in %s",
			w, humanize.Comma(int64(rate)), humanize.Comma(int64(windows)),
			humanize.Bytes(uint64(bytes)), elapsed.Round(time.Millisecond))

		takeSnapshot(fmt.Sprintf("after workers=%d", w))

		if *profileDir != "" {
			writeHeapProfile(*profileDir, fmt.Sprintf("heap-workers-%d.prof", w))
		}
	}
}

func parseWorkers(s string) ([]int, error) {
	var counts []int

	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}

		if n < 1 {
			return nil, fmt.Errorf("worker count must be positive, got %d", n)
		}

		counts = append(counts, n)
	}

	return counts, nil
}

// treeCost is what one corpus line cost to transform.
type treeCost struct {
	windows int
	bytes   int
}

func newTransform(emit string, maxLen int) (func([]byte) (treeCost, error), error) {
	switch emit {
	case "trees":
		return func(line []byte) (treeCost, error) {
			tree, err := ast.Parse(line)
			if err != nil {
				return treeCost{}, err
			}

			return segmentCost(tree, maxLen)
		}, nil
	case "values":
		return func(line []byte) (treeCost, error) {
			tree, err := ast.Parse(line)
			if err != nil {
				return treeCost{}, err
			}

			_, values := separate.TypesValues(tree, nil, separate.ModeAll)

			return segmentCost(values, maxLen)
		}, nil
	case "ancestors":
		return func(line []byte) (treeCost, error) {
			tree, err := ast.Parse(line)
			if err != nil {
				return treeCost{}, err
			}

			chains, err := ancestry.Build(tree)
			if err != nil {
				return treeCost{}, err
			}

			return segmentCost(chains, maxLen)
		}, nil
	}

	return nil, fmt.Errorf("unknown emit: %s (supported: trees, values, ancestors)", emit)
}

func segmentCost[T any](items []T, maxLen int) (treeCost, error) {
	windows, err := window.Segment(items, maxLen)
	if err != nil {
		return treeCost{}, err
	}

	cost := treeCost{windows: len(windows)}

	for _, w := range windows {
		data, err := json.Marshal([]any{w.Items, w.Offset})
		if err != nil {
			return treeCost{}, err
		}

		cost.bytes += len(data)
	}

	return cost, nil
}

var innerTypes = []string{"Module", "FunctionDef", "If", "For", "Call", "Assign"}

var leafKinds = []struct {
	typ   string
	value string
}{
	{"Name", "result"},
	{"Name", "getUserID"},
	{"Name", "i"},
	{"Str", "utf-8"},
	{"Str", ""},
	{"Num", "42"},
	{"Num", "3.14"},
}

// genCorpus builds count marshaled pre-order trees of the given size.
func genCorpus(rng *rand.Rand, count, nodes int) [][]byte {
	corpus := make([][]byte, count)

	for i := range corpus {
		data, err := json.Marshal(genTree(rng, nodes))
		if err != nil {
			log.Fatalf("marshal tree: %v", err)
		}

		corpus[i] = data
	}

	return corpus
}

// genTree wires node i under a random earlier parent, so children stay
// ascending and every non-root node has a parent. Childless nodes become
// valued leaves afterwards.
func genTree(rng *rand.Rand, nodes int) []ast.Node {
	tree := make([]ast.Node, nodes)
	tree[0] = ast.Node{Type: "Module"}

	for i := 1; i < nodes; i++ {
		parent := rng.Intn(i)
		tree[parent].Children = append(tree[parent].Children, i)
		tree[i] = ast.Node{Type: innerTypes[rng.Intn(len(innerTypes))]}
	}

	for i := range tree {
		if tree[i].Children != nil {
			continue
		}

		kind := leafKinds[rng.Intn(len(leafKinds))]
		value := kind.value
		tree[i].Type = kind.typ
		tree[i].Value = &value
	}

	return tree
}

func newHeapReporter() func(label string) {
	return func(label string) {
		runtime.GC()

		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		log.Printf("  [heap] %-28s inuse=%6.1f MB  sys=%6.1f MB",
			label, float64(m.HeapInuse)/1e6, float64(m.HeapSys)/1e6)
	}
}

func writeHeapProfile(dir, name string) {
	runtime.GC()

	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		log.Printf("warning: create heap profile %s: %v", path, err)

		return
	}
	defer f.Close()

	if err := pprof.WriteHeapProfile(f); err != nil {
		log.Printf("warning: write heap profile %s: %v", path, err)
	}
}
