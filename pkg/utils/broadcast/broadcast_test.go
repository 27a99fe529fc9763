package broadcast

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/racesim/log"
)

func collect(ch <-chan int, wg *sync.WaitGroup) *[]int {
	ret := []int{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for v := range ch {
			ret = append(ret, v)
		}
	}()
	return &ret
}

func TestServer_DistributesToAllListeners(t *testing.T) {
	source := make(chan int)
	srv := NewServer("test", source,
		WithLogger[int](log.NewNop()), WithSkipTimeout[int](time.Second))

	var wg sync.WaitGroup
	a := collect(srv.Subscribe(), &wg)
	b := collect(srv.Subscribe(), &wg)
	for i := 1; i <= 3; i++ {
		source <- i
	}
	stats := srv.Stats()
	close(source)
	wg.Wait()
	<-srv.Done()

	assert.Equal(t, []int{1, 2, 3}, *a)
	assert.Equal(t, []int{1, 2, 3}, *b)
	assert.Equal(t, 3, stats.Received)
	assert.Equal(t, 6, stats.Sent)
	assert.Equal(t, 2, stats.Listeners)
}

func TestServer_SkipsSlowListener(t *testing.T) {
	source := make(chan int)
	srv := NewServer("test", source,
		WithLogger[int](log.NewNop()), WithSkipTimeout[int](5*time.Millisecond))
	defer srv.Close()

	_ = srv.Subscribe() // never read
	source <- 1
	source <- 2
	stats := srv.Stats()
	assert.Equal(t, 2, stats.Received)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, 0, stats.Sent)
}

func TestServer_CancelSubscription(t *testing.T) {
	source := make(chan int)
	srv := NewServer("test", source, WithLogger[int](log.NewNop()))
	defer srv.Close()

	ch := srv.Subscribe()
	srv.CancelSubscription(ch)
	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, srv.Stats().Listeners)
}

func TestServer_SubscribeAfterClose(t *testing.T) {
	srv := NewServer("test", make(chan int), WithLogger[int](log.NewNop()))
	srv.Close()
	_, ok := <-srv.Subscribe()
	assert.False(t, ok)
}
