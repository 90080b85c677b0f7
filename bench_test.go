package catlog

import (
	"context"
	"io"
	"testing"
)

func newBenchCategory(b *testing.B, rules string) (*Service, *Category) {
	b.Helper()
	cfg := DefaultConfig()
	cfg.Stdout = io.Discard
	svc, err := NewService(cfg)
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(svc.Finalize)
	if err := svc.InitFromString(rules); err != nil {
		b.Fatal(err)
	}
	c, ok := svc.GetCategory("bench")
	if !ok {
		b.Fatal("category not found")
	}
	return svc, c
}

func BenchmarkCategory_Log(b *testing.B) {
	_, c := newBenchCategory(b, "bench.* >stdout")
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Log(ctx, LevelInfo, "bench.go", 10, "fn", "benchmark message")
	}
}

func BenchmarkCategory_Infof(b *testing.B) {
	_, c := newBenchCategory(b, "bench.* >stdout")
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Infof(ctx, "iteration %d", i)
	}
}

func BenchmarkCategory_InfofGated(b *testing.B) {
	_, c := newBenchCategory(b, "bench.ERROR >stdout")
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Infof(ctx, "iteration %d", i)
	}
}

func BenchmarkCategory_LogWithMDC(b *testing.B) {
	svc, c := newBenchCategory(b, "[formats]\nm = \"%d %V %M(req) %m%n\"\n[rules]\nbench.* >stdout; m\n")
	ctx := WithMDC(context.Background())
	if err := svc.MDCPut(ctx, "req", "abc123"); err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Log(ctx, LevelInfo, "bench.go", 10, "fn", "benchmark message")
	}
}

func BenchmarkService_LookupCategory(b *testing.B) {
	svc, _ := newBenchCategory(b, "bench.* >stdout")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = svc.LookupCategory("bench")
	}
}
