package quiz

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestKeyedMutexSerialisesPerKey(t *testing.T) {
	k := newKeyedMutex()
	var wg sync.WaitGroup
	counter := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("quiz:alice")
			counter++
			unlock()
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("esperado 50, recebido %d", counter)
	}
	if len(k.locks) != 0 {
		t.Errorf("chaves sem dono deveriam ser removidas, restaram %d", len(k.locks))
	}
}

func TestInflightCancel(t *testing.T) {
	in := newInflight()
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.New()
	in.add(id, cancel)

	if in.count() != 1 || !in.has(id) {
		t.Fatalf("esperado 1 chamada em andamento, recebido %d", in.count())
	}
	if !in.cancel(id) {
		t.Fatal("cancel deveria encontrar a chamada")
	}
	if ctx.Err() == nil {
		t.Error("contexto deveria estar cancelado")
	}
	if in.cancel(id) {
		t.Error("segundo cancel não deveria encontrar nada")
	}

	in.add(id, func() {})
	in.done(id)
	if in.count() != 0 || in.has(id) {
		t.Error("done deveria remover a chamada")
	}
}
