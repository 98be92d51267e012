//go:build test

package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/lzwseg/pkg/segment"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

var memLines = []string{
	"the cat sat on the mat",
	"cats and dogs chase the catalog of dogs",
	"segmentation segments segmented segmenting",
	"international nationalisation rationale",
	"supercalifragilisticexpialidocious internationalisation",
}

func TestMemoryCacheSaturates(t *testing.T) {
	m := learn(t, strings.Join(memLines, "\n"), 5)
	seg, err := segment.New(m, segment.Options{TopK: 5, Alpha: 0.1}, segment.NewSource(1), nil)
	if err != nil {
		t.Fatalf("segment.New() error = %v", err)
	}

	for _, line := range memLines {
		SegmentLine(seg, line)
	}
	scores, topK := seg.Cache().Len()

	var baseline runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&baseline)

	iterations := 2000
	for i := 0; i < iterations; i++ {
		for _, line := range memLines {
			SegmentLine(seg, line)
		}
	}

	var final runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&final)

	memDelta := int64(final.Alloc) - int64(baseline.Alloc)
	totalOps := iterations * len(memLines)
	memPerOp := float64(memDelta) / float64(totalOps)
	t.Logf("ops=%d mem_delta=%d bytes mem_per_op=%.2f", totalOps, memDelta, memPerOp)

	if s, k := seg.Cache().Len(); s != scores || k != topK {
		t.Errorf("cache grew on repeated input: scores %d -> %d, top-k %d -> %d", scores, s, topK, k)
	}
	if memPerOp > 1000 {
		t.Errorf("excessive memory retained per operation: %.2f bytes", memPerOp)
	}
}

func TestMemoryShardedNoGoroutineLeak(t *testing.T) {
	m := learn(t, strings.Join(memLines, "\n"), 4)
	factory := func(shard int) *segment.Segmenter {
		seg, _ := segment.New(m, segment.Options{TopK: 3, Alpha: 0.1}, segment.NewSource(uint64(shard)), nil)
		return seg
	}
	input := strings.Repeat(strings.Join(memLines, "\n")+"\n", 200)

	configs := []struct {
		workers   int
		shardSize int
	}{
		{1, 0},
		{2, 50},
		{4, 10},
		{8, 1},
	}
	for _, config := range configs {
		t.Run(fmt.Sprintf("workers_%d_shard_%d", config.workers, config.shardSize), func(t *testing.T) {
			runtime.GC()
			baselineGoroutines := runtime.NumGoroutine()

			d := Driver{Workers: config.workers, ShardSize: config.shardSize}
			if err := d.Run(context.Background(), strings.NewReader(input), &bytes.Buffer{}, factory); err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			runtime.GC()
			if delta := runtime.NumGoroutine() - baselineGoroutines; delta > 2 {
				t.Errorf("goroutine leak detected: %d goroutines leaked", delta)
			}
		})
	}
}
