package ftl

// HookPos names a point in the runner where hooks are invoked.
type HookPos struct {
	Name string
}

// Hook positions triggered by the Runner.
var (
	// HookPosBlockWritten fires after every physical write. Detail is a
	// WriteEvent.
	HookPosBlockWritten = &HookPos{Name: "BlockWritten"}

	// HookPosBlockRetired fires after the write that retires a block. Detail
	// is a WriteEvent.
	HookPosBlockRetired = &HookPos{Name: "BlockRetired"}

	// HookPosExhausted fires once when no live block is left. Detail is an
	// ExhaustionEvent.
	HookPosExhausted = &HookPos{Name: "Exhausted"}
)

// HookCtx holds the information about the site that triggered a hook.
type HookCtx struct {
	Runner *Runner
	Pos    *HookPos
	Detail interface{}
}

// A Hook is invoked by a runner at its hook positions.
type Hook interface {
	Func(ctx HookCtx)
}

// WriteEvent describes one logical write and where it landed.
type WriteEvent struct {
	Seq        int
	LBA        int
	Block      int
	Offset     uint64
	PrevBlock  int
	Remapped   bool
	WriteCount uint64
	Retired    bool
}

// ExhaustionEvent describes the request that found no live block.
type ExhaustionEvent struct {
	Seq            int
	LBA            int
	PhysicalWrites uint64
}

// HookableBase provides hook registration for types that invoke hooks.
type HookableBase struct {
	hookList []Hook
}

// NumHooks returns the number of hooks registered.
func (h *HookableBase) NumHooks() int {
	return len(h.hookList)
}

// Hooks returns all the hooks registered.
func (h *HookableBase) Hooks() []Hook {
	return h.hookList
}

// AcceptHook registers a hook. Registering the same hook twice panics.
func (h *HookableBase) AcceptHook(hook Hook) {
	for _, existing := range h.hookList {
		if existing == hook {
			panic("duplicated hook")
		}
	}

	h.hookList = append(h.hookList, hook)
}

// InvokeHook triggers the registered hooks in registration order.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hookList {
		hook.Func(ctx)
	}
}
