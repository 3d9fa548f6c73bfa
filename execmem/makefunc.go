package execmem

import (
	"reflect"
	"unsafe"
)

// Get the address of the first instruction of the published code.
func (f *Func) Entry() uintptr { return uintptr(unsafe.Pointer(&f.chunk.Mem[0])) }

// Set the function variable at fnptr to call code. This function is entirely unsafe.
//
// A Go function value points to a closure record whose first word is the entry address, so a
// fresh record holding the address of code is stored into the variable. code must already be
// executable.
func makeFunc(fnptr any, code []byte) error {
	v := reflect.ValueOf(fnptr)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Func || !v.Elem().CanSet() {
		return ErrNotFunc
	}
	closure := &struct{ entry uintptr }{uintptr(unsafe.Pointer(&code[0]))}
	*(*unsafe.Pointer)(v.UnsafePointer()) = unsafe.Pointer(closure)
	return nil
}
