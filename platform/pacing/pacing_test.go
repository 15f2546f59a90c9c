package pacing

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestJitterStaysWithinBand(t *testing.T) {
	s := New(0.4)
	base := 2 * time.Second
	lo := time.Duration(float64(base) * 0.6)
	hi := time.Duration(float64(base) * 1.4)

	for i := 0; i < 1000; i++ {
		d := s.Jitter(base)
		if d < lo || d > hi {
			t.Fatalf("Jitter(%v) = %v, outside [%v, %v]", base, d, lo, hi)
		}
	}
}

func TestJitterZeroFraction(t *testing.T) {
	s := New(0)
	base := 500 * time.Millisecond
	for i := 0; i < 10; i++ {
		if d := s.Jitter(base); d != base {
			t.Fatalf("Jitter with zero fraction = %v, want %v", d, base)
		}
	}
}

func TestNewRejectsInvalidFraction(t *testing.T) {
	for _, frac := range []float64{-0.1, 1.0, 2.5} {
		s := New(frac)
		base := time.Second
		if d := s.Jitter(base); d != base {
			t.Fatalf("New(%v) should disable jitter, got %v", frac, d)
		}
	}
}

func TestSleepHonorsContextCancellation(t *testing.T) {
	s := New(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := s.Sleep(ctx, time.Hour)
	if err == nil {
		t.Fatal("Sleep on cancelled context should return its error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Sleep did not return promptly: %v", elapsed)
	}
}

func TestJitterConcurrentUse(t *testing.T) {
	s := New(0.4)
	base := time.Millisecond

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				d := s.Jitter(base)
				if d < time.Duration(float64(base)*0.6) || d > time.Duration(float64(base)*1.4) {
					t.Errorf("Jitter out of band under concurrency: %v", d)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestSleepConcurrentUse(t *testing.T) {
	s := New(0.4)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if err := s.Sleep(context.Background(), time.Microsecond); err != nil {
					t.Errorf("Sleep: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestSleepCompletesShortDelay(t *testing.T) {
	s := New(0.4)
	if err := s.Sleep(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("Sleep: %v", err)
	}
}
