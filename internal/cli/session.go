package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/tagcast"
	"github.com/wippyai/tagcast/errors"
	"github.com/wippyai/tagcast/linmem"
	"github.com/wippyai/tagcast/resource"
)

// ErrQuit is returned by Exec for the quit command.
var ErrQuit = stderrors.New("quit")

// Session is an interactive heap: objects live in linear memory and are
// named by resource handles.
type Session struct {
	rt      wazero.Runtime
	heap    *linmem.Heap
	alloc   *linmem.PageAllocator
	table   *resource.Table
	byName  map[string]*linmem.Shape
	byID    map[tagcast.ShapeID]*linmem.Shape
	ordered []*linmem.Shape
}

// NewSession creates a linear memory and registers the configured shapes.
func NewSession(ctx context.Context, cfg Config) (*Session, error) {
	shapes, err := cfg.BuildShapes()
	if err != nil {
		return nil, err
	}

	rt := wazero.NewRuntime(ctx)
	mod, err := linmem.NewMemoryModule(ctx, rt, "session", cfg.Memory.MinPages, cfg.Memory.MaxPages)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}

	alloc := linmem.NewPageAllocator(mod.Memory(), 0)
	s := &Session{
		rt:      rt,
		heap:    linmem.NewHeap(linmem.WrapMemory(mod.Memory()), alloc),
		alloc:   alloc,
		table:   resource.NewTable(),
		byName:  make(map[string]*linmem.Shape, len(shapes)),
		byID:    make(map[tagcast.ShapeID]*linmem.Shape, len(shapes)),
		ordered: shapes,
	}
	for _, sh := range shapes {
		s.byName[sh.Name] = sh
		s.byID[sh.ID] = sh
	}
	s.table.Subscribe(releaser{s})
	return s, nil
}

// releaser frees linear memory when its handle is dropped.
type releaser struct{ s *Session }

func (r releaser) OnResourceEvent(e resource.Event) {
	if e.Type != resource.EventDropped {
		return
	}
	sh, ok := r.s.byID[e.Shape]
	if !ok {
		Logger().Warn("dropped handle has no known shape", zap.Uint32("handle", uint32(e.Handle)))
		return
	}
	r.s.heap.Free(e.Rep, sh)
}

// Close drops every handle and tears down the runtime.
func (s *Session) Close(ctx context.Context) error {
	_ = s.table.Close()
	return s.rt.Close(ctx)
}

// Exec runs one command line and returns its output.
func (s *Session) Exec(line string) (string, error) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return "", nil
	}

	switch cmd, rest := args[0], args[1:]; cmd {
	case "alloc", "new":
		return s.cmdAlloc(rest)
	case "cast":
		return s.cmdCast(rest)
	case "get":
		return s.cmdGet(rest)
	case "set":
		return s.cmdSet(rest)
	case "free", "drop":
		return s.cmdFree(rest)
	case "list", "ls":
		return s.cmdList(), nil
	case "shapes":
		return s.cmdShapes(), nil
	case "stats":
		return s.cmdStats(), nil
	case "help", "?":
		return sessionHelp, nil
	case "quit", "exit":
		return "", ErrQuit
	default:
		return "", fmt.Errorf("unknown command %q (try help)", cmd)
	}
}

const sessionHelp = `alloc <shape>              allocate a tagged object
cast <handle> <shape>      check an object against a shape
get <handle> <field>       read a scalar field
set <handle> <field> <n>   write a scalar field
free <handle>              release an object
list                       show live objects
shapes                     show known shapes
stats                      show allocator usage
quit                       leave`

func (s *Session) cmdAlloc(args []string) (string, error) {
	if len(args) != 1 {
		return "", usage("alloc <shape>")
	}
	sh, err := s.shape(args[0])
	if err != nil {
		return "", err
	}

	ptr, err := s.heap.New(sh)
	if err != nil {
		return "", err
	}
	h, err := s.table.InsertRep(sh.ID, ptr)
	if err != nil {
		s.heap.Free(ptr, sh)
		return "", err
	}
	return fmt.Sprintf("h%d = %s @%#x", h, sh.Name, ptr), nil
}

func (s *Session) cmdCast(args []string) (string, error) {
	if len(args) != 2 {
		return "", usage("cast <handle> <shape>")
	}
	h, ptr, err := s.handle(args[0])
	if err != nil {
		return "", err
	}
	sh, err := s.shape(args[1])
	if err != nil {
		return "", err
	}

	got, err := s.heap.As(ptr, sh)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("h%d is %s @%#x", h, sh.Name, got), nil
}

func (s *Session) cmdGet(args []string) (string, error) {
	if len(args) != 2 {
		return "", usage("get <handle> <field>")
	}
	h, ptr, err := s.handle(args[0])
	if err != nil {
		return "", err
	}
	sh := s.shapeOf(h)

	v, err := s.heap.Load(ptr, sh, args[1])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("h%d.%s = %d", h, args[1], v), nil
}

func (s *Session) cmdSet(args []string) (string, error) {
	if len(args) != 3 {
		return "", usage("set <handle> <field> <value>")
	}
	h, ptr, err := s.handle(args[0])
	if err != nil {
		return "", err
	}
	v, err := strconv.ParseInt(args[2], 0, 64)
	if err != nil {
		return "", errors.InvalidInput(errors.PhaseMemory, "value must be an integer: "+args[2])
	}

	if err := s.heap.Store(ptr, s.shapeOf(h), args[1], uint64(v)); err != nil {
		return "", err
	}
	return fmt.Sprintf("h%d.%s <- %d", h, args[1], v), nil
}

func (s *Session) cmdFree(args []string) (string, error) {
	if len(args) != 1 {
		return "", usage("free <handle>")
	}
	h, _, err := s.handle(args[0])
	if err != nil {
		return "", err
	}
	if _, err := s.table.Remove(h); err != nil {
		return "", err
	}
	return fmt.Sprintf("h%d freed", h), nil
}

func (s *Session) cmdList() string {
	var b strings.Builder
	s.table.Each(func(h resource.Handle, id tagcast.ShapeID, _ tagcast.Tagged, rep uint32) bool {
		fmt.Fprintf(&b, "h%d\t%s\t@%#x\n", h, tagcast.ShapeName(id), rep)
		return true
	})
	if b.Len() == 0 {
		return "no live objects"
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *Session) cmdShapes() string {
	names := make([]string, 0, len(s.ordered))
	for _, sh := range s.ordered {
		names = append(names, fmt.Sprintf("%s(%s)", sh.Name, strings.Join(sh.FieldNames(), ", ")))
	}
	sort.Strings(names)
	return strings.Join(names, "\n")
}

func (s *Session) cmdStats() string {
	st := s.alloc.Stats()
	return fmt.Sprintf("live=%d in_use=%dB allocs=%d reused=%d frees=%d failures=%d break=%#x grown=%d",
		st.Live, st.InUse, st.Allocs, st.Reused, st.Frees, st.Failures, st.Break, st.Grown)
}

// Len returns the number of live objects.
func (s *Session) Len() int {
	return s.table.Len()
}

func (s *Session) shape(name string) (*linmem.Shape, error) {
	sh, ok := s.byName[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseConfig, "shape", name)
	}
	return sh, nil
}

// shapeOf is the shape a handle was allocated with.
func (s *Session) shapeOf(h resource.Handle) *linmem.Shape {
	id, _ := s.table.Shape(h)
	return s.byID[id]
}

func (s *Session) handle(arg string) (resource.Handle, uint32, error) {
	n, err := strconv.ParseUint(strings.TrimPrefix(arg, "h"), 10, 32)
	if err != nil {
		return 0, 0, errors.InvalidInput(errors.PhaseCast, "bad handle "+arg)
	}
	h := resource.Handle(n)
	ptr, ok := s.table.Rep(h)
	if !ok {
		return 0, 0, errors.NotFound(errors.PhaseCast, "handle", arg)
	}
	return h, ptr, nil
}

func usage(text string) error {
	return errors.InvalidInput(errors.PhaseConfig, "usage: "+text)
}
