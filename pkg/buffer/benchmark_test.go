package buffer

import (
	"testing"
)

func BenchmarkWrite(b *testing.B) {
	buf, err := NewCircularBuffer[int](1000)
	if err != nil {
		b.Fatal(err)
	}
	defer buf.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = buf.Write(i)
	}
}

func BenchmarkWriteAtCapacity(b *testing.B) {
	// Every write evicts, the steady state for telemetry history
	buf, err := NewCircularBuffer[int](100)
	if err != nil {
		b.Fatal(err)
	}
	defer buf.Close()

	for i := 0; i < 100; i++ {
		_ = buf.Write(i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = buf.Write(i)
	}
}

func BenchmarkLatest(b *testing.B) {
	buf, err := NewCircularBuffer[int](100)
	if err != nil {
		b.Fatal(err)
	}
	defer buf.Close()

	for i := 0; i < 100; i++ {
		_ = buf.Write(i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = buf.Latest()
	}
}

func BenchmarkRecent10(b *testing.B) {
	buf, err := NewCircularBuffer[int](100)
	if err != nil {
		b.Fatal(err)
	}
	defer buf.Close()

	for i := 0; i < 100; i++ {
		_ = buf.Write(i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = buf.Recent(10)
	}
}

func BenchmarkSnapshot(b *testing.B) {
	buf, err := NewCircularBuffer[int](100)
	if err != nil {
		b.Fatal(err)
	}
	defer buf.Close()

	for i := 0; i < 100; i++ {
		_ = buf.Write(i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = buf.Snapshot()
	}
}

func BenchmarkConcurrentWriteAndView(b *testing.B) {
	buf, err := NewCircularBuffer[int](100)
	if err != nil {
		b.Fatal(err)
	}
	defer buf.Close()

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if i%2 == 0 {
				_ = buf.Write(i)
			} else {
				_ = buf.Recent(10)
			}
			i++
		}
	})
}
