// Package demo assembles and runs small end-to-end programs: a constant return, a branch on
// equality, and a call through a register into separately published code.
//
// The programs follow the Go internal register ABI on amd64, so published code can be bound to
// ordinary Go function variables: integer arguments arrive in RAX, RBX, RCX, RDI, RSI, R8-R11
// and the result is returned in RAX. RSP, RBP, R14, and X15 are left untouched.
package demo

import (
	"errors"
	"fmt"
	"runtime"

	x64 "github.com/wdamron/x64jit"
	"github.com/wdamron/x64jit/execmem"
	"github.com/wdamron/x64jit/internal/log"
)

const (
	Arg0    = x64.RAX
	Arg1    = x64.RBX
	Ret     = x64.RAX
	Scratch = x64.R11
)

// Scenario names.
const (
	ReturnConstName = "return-const"
	SelectEqualName = "select-equal"
	CallAddName     = "call-add"
	AddName         = "add"
)

var ErrUnsupported = errors.New("demo: published code can only be invoked on amd64")

// Names lists the scenarios in run order.
var Names = []string{ReturnConstName, SelectEqualName, CallAddName}

// Assemble func() int { return v }.
func ReturnConst(a *x64.Assembler, v int32) error {
	a.RI(x64.MOV, x64.W64, Ret, x64.Imm(v))
	a.Ret()
	return a.Finalize()
}

// Assemble func(x, y int) int which returns x when x == y and y otherwise.
func SelectEqual(a *x64.Assembler) error {
	eq := a.NewLabel()
	a.RR(x64.CMP, x64.W64, Arg0, Arg1)
	a.JccNear(x64.CCEq, eq)
	a.RR(x64.MOV, x64.W64, Ret, Arg1)
	a.Ret()
	a.Bind(eq)
	a.RR(x64.MOV, x64.W64, Ret, Arg0)
	a.Ret()
	return a.Finalize()
}

// Assemble func(x, y int) int { return x + y }.
func Add(a *x64.Assembler) error {
	a.RR(x64.ADD, x64.W64, Arg0, Arg1)
	a.Ret()
	return a.Finalize()
}

// Assemble func() int { return add(x, y) }, calling the code at entry through a scratch register.
func CallAdd(a *x64.Assembler, entry uintptr, x, y int32) error {
	a.RI(x64.MOV, x64.W64, Arg0, x64.Imm(x))
	a.RI(x64.MOV, x64.W64, Arg1, x64.Imm(y))
	a.MovImm64(Scratch, int64(entry))
	a.CallR(Scratch)
	a.Ret()
	return a.Finalize()
}

// Assemble a scenario by name with its default arguments. addEntry is the entry of the add
// function called by the call-add scenario.
func Assemble(name string, addEntry uintptr) ([]byte, error) {
	a := x64.NewAssembler(nil)
	var err error
	switch name {
	case ReturnConstName:
		err = ReturnConst(a, 999)
	case SelectEqualName:
		err = SelectEqual(a)
	case CallAddName:
		err = CallAdd(a, addEntry, 1000, -1)
	case AddName:
		err = Add(a)
	default:
		return nil, fmt.Errorf("demo: unknown scenario %q", name)
	}
	if err != nil {
		return nil, fmt.Errorf("demo: assemble %s: %w", name, err)
	}
	return a.Code(), nil
}

// Result is the outcome of one invocation of a scenario.
type Result struct {
	Scenario string
	Args     []int
	Got      int
	Want     int
}

func (r Result) OK() bool { return r.Got == r.Want }

func (r Result) String() string {
	status := "ok"
	if !r.OK() {
		status = "FAIL"
	}
	return fmt.Sprintf("%-12s %v = %d (want %d) %s", r.Scenario, r.Args, r.Got, r.Want, status)
}

func publish[F any](alloc execmem.Allocator, name string, addEntry uintptr, fn *F) (*execmem.Func, error) {
	code, err := Assemble(name, addEntry)
	if err != nil {
		return nil, err
	}
	f, err := execmem.Publish(alloc, code)
	if err != nil {
		return nil, err
	}
	if err := f.Bind(fn); err != nil {
		f.Release()
		return nil, err
	}
	return f, nil
}

// Run every scenario with code published through alloc.
func Run(alloc execmem.Allocator) ([]Result, error) {
	if runtime.GOARCH != "amd64" {
		return nil, ErrUnsupported
	}
	var results []Result

	var konst func() int
	f, err := publish(alloc, ReturnConstName, 0, &konst)
	if err != nil {
		return nil, err
	}
	results = append(results, Result{ReturnConstName, nil, konst(), 999})
	f.Release()

	var sel func(x, y int) int
	if f, err = publish(alloc, SelectEqualName, 0, &sel); err != nil {
		return results, err
	}
	results = append(results,
		Result{SelectEqualName, []int{1, 1}, sel(1, 1), 1},
		Result{SelectEqualName, []int{1, 2}, sel(1, 2), 2})
	f.Release()

	var add func(x, y int) int
	addFn, err := publish(alloc, AddName, 0, &add)
	if err != nil {
		return results, err
	}
	defer addFn.Release()
	var call func() int
	if f, err = publish(alloc, CallAddName, addFn.Entry(), &call); err != nil {
		return results, err
	}
	results = append(results, Result{CallAddName, nil, call(), 999})
	f.Release()

	for _, r := range results {
		log.Debug(log.Demo, "scenario", "name", r.Scenario, "args", r.Args, "got", r.Got, "want", r.Want)
	}
	return results, nil
}
