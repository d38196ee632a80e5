package cli

import (
	"context"
	"fmt"
	"unsafe"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/tagcast"
	"github.com/wippyai/tagcast/arena"
	"github.com/wippyai/tagcast/linmem"
)

// Foo, Bar and Baz are the three Go shapes of the reference scenario.
type Foo struct {
	tagcast.Marker
	A int32
}

type Bar struct {
	tagcast.Marker
	B int32
}

type Baz struct {
	tagcast.Marker
	C int32
}

// Report summarizes one backend run.
type Report struct {
	Backend    string
	Shapes     int
	Objects    int
	Matches    int
	Mismatches int
	Frees      int
}

func (r Report) String() string {
	return fmt.Sprintf("%-5s %d shapes, %d objects, %d matches, %d mismatches, %d frees",
		r.Backend, r.Shapes, r.Objects, r.Matches, r.Mismatches, r.Frees)
}

// RunHeap runs the scenario with objects on the Go heap.
func RunHeap(count int) (Report, error) {
	return runGo(BackendHeap, nil, count)
}

// RunArena runs the scenario with objects in a fixed arena. size of zero
// sizes the arena to fit exactly.
func RunArena(count, size int) (Report, error) {
	if size == 0 {
		size = count * (block(unsafe.Sizeof(Foo{})) + block(unsafe.Sizeof(Bar{})) + block(unsafe.Sizeof(Baz{})))
	}
	a := arena.New(size)
	r, err := runGo(BackendArena, a, count)
	if err != nil {
		return r, err
	}
	if st := a.Stats(); st.Live != 0 {
		return r, fmt.Errorf("arena: %d blocks still live after free", st.Live)
	}
	return r, nil
}

// block is the arena footprint of an object of n bytes.
func block(n uintptr) int {
	return int(max(n, 8)+7) &^ 7
}

func runGo(name string, a tagcast.Allocator, count int) (Report, error) {
	r := Report{Backend: name, Shapes: 3}

	foos, err := allocN[Foo](a, count)
	if err != nil {
		return r, fmt.Errorf("%s: alloc foo: %w", name, err)
	}
	bars, err := allocN[Bar](a, count)
	if err != nil {
		return r, fmt.Errorf("%s: alloc bar: %w", name, err)
	}
	bazs, err := allocN[Baz](a, count)
	if err != nil {
		return r, fmt.Errorf("%s: alloc baz: %w", name, err)
	}
	r.Objects = 3 * count

	for i := range count {
		for _, row := range [][3]bool{
			castRow(tagcast.RefOf(foos[i])),
			castRow(tagcast.RefOf(bars[i])),
			castRow(tagcast.RefOf(bazs[i])),
		} {
			for _, ok := range row {
				if ok {
					r.Matches++
				} else {
					r.Mismatches++
				}
			}
		}
		if tagcast.Cast[Foo](tagcast.RefOf(foos[i])) != foos[i] ||
			tagcast.Cast[Bar](tagcast.RefOf(bars[i])) != bars[i] ||
			tagcast.Cast[Baz](tagcast.RefOf(bazs[i])) != bazs[i] {
			return r, fmt.Errorf("%s: cast %d did not return the same pointer", name, i)
		}
	}
	if err := checkGrid(r, count); err != nil {
		return r, fmt.Errorf("%s: %w", name, err)
	}

	r.Frees = freeAll(a, foos) + freeAll(a, bars) + freeAll(a, bazs)
	return r, nil
}

// castRow casts one object to each of the three shapes.
func castRow(ref tagcast.Ref) [3]bool {
	return [3]bool{
		tagcast.Cast[Foo](ref) != nil,
		tagcast.Cast[Bar](ref) != nil,
		tagcast.Cast[Baz](ref) != nil,
	}
}

func allocN[T any, P tagcast.Shape[T]](a tagcast.Allocator, n int) ([]*T, error) {
	out := make([]*T, 0, n)
	for range n {
		obj, err := tagcast.New[T, P](a)
		if err != nil {
			freeAll[T, P](a, out)
			return nil, err
		}
		out = append(out, obj)
	}
	return out, nil
}

func freeAll[T any, P tagcast.Shape[T]](a tagcast.Allocator, objs []*T) int {
	for _, obj := range objs {
		tagcast.Free[T, P](a, obj)
	}
	return len(objs)
}

// checkGrid verifies the diagonal: each object matches its own shape only.
// Without checking every cast matches.
func checkGrid(r Report, count int) error {
	want := Report{Matches: r.Shapes * count, Mismatches: r.Shapes * (r.Shapes - 1) * count}
	if !tagcast.Checked {
		want = Report{Matches: r.Shapes * r.Shapes * count}
	}
	if r.Matches != want.Matches || r.Mismatches != want.Mismatches {
		return fmt.Errorf("cast grid: %d matches, %d mismatches; want %d and %d",
			r.Matches, r.Mismatches, want.Matches, want.Mismatches)
	}
	return nil
}

// RunWasm runs the scenario with the configured shapes in a wazero linear
// memory.
func RunWasm(ctx context.Context, cfg Config) (Report, error) {
	r := Report{Backend: BackendWasm}

	shapes, err := cfg.BuildShapes()
	if err != nil {
		return r, err
	}
	r.Shapes = len(shapes)

	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	mod, err := linmem.NewMemoryModule(ctx, rt, "tagdemo", cfg.Memory.MinPages, cfg.Memory.MaxPages)
	if err != nil {
		return r, err
	}
	alloc := linmem.NewPageAllocator(mod.Memory(), 0)
	heap := linmem.NewHeap(linmem.WrapMemory(mod.Memory()), alloc)

	ptrs := make([][]uint32, len(shapes))
	for i, s := range shapes {
		for range cfg.Count {
			ptr, err := heap.New(s)
			if err != nil {
				return r, fmt.Errorf("wasm: alloc %s: %w", s.Name, err)
			}
			ptrs[i] = append(ptrs[i], ptr)
		}
	}
	r.Objects = len(shapes) * cfg.Count

	for i := range shapes {
		for _, ptr := range ptrs[i] {
			for j, target := range shapes {
				got, ok := heap.Cast(ptr, target)
				if ok {
					r.Matches++
				} else {
					r.Mismatches++
				}
				if j == i && got != ptr {
					return r, fmt.Errorf("wasm: cast %#x to %s returned %#x", ptr, target.Name, got)
				}
			}
		}
	}
	if err := checkGrid(r, cfg.Count); err != nil {
		return r, fmt.Errorf("wasm: %w", err)
	}

	for i, s := range shapes {
		for _, ptr := range ptrs[i] {
			heap.Free(ptr, s)
			r.Frees++
		}
	}

	st := alloc.Stats()
	if st.Live != 0 {
		return r, fmt.Errorf("wasm: %d blocks still live after free", st.Live)
	}
	Logger().Debug("wasm backend done",
		zap.Uint32("break", st.Break),
		zap.Uint32("pages_grown", st.Grown),
		zap.Int("reused", st.Reused),
	)
	return r, nil
}
