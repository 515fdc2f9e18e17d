// Package fmtt prints error chains for command-line diagnostics.
package fmtt

import (
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/davecgh/go-spew/spew"
)

// FprintErrChain walks an error chain and prints each layer with its type.
// errors.Join nodes are expanded depth-first.
func FprintErrChain(w io.Writer, err error) {
	if err == nil {
		fmt.Fprintln(w, "<nil>")
		return
	}
	i := 0
	walk(err, func(e error, depth int) {
		fmt.Fprintf(w, "%*s[%d] %T: %v\n", depth*2, "", i, e, e)
		i++
	}, 0)
}

// FprintErrChainDebug is FprintErrChain plus a spew dump and the exported
// struct fields of every layer.
func FprintErrChainDebug(w io.Writer, err error) {
	cfg := spew.ConfigState{Indent: "  ", DisableMethods: true, MaxDepth: 4}

	i := 0
	walk(err, func(e error, depth int) {
		pad := fmt.Sprintf("%*s", depth*2, "")
		fmt.Fprintf(w, "%s[%d] %T\n", pad, i, e)
		fmt.Fprintf(w, "%s   Error(): %v\n", pad, e)
		cfg.Fdump(w, e)

		rv := reflect.ValueOf(e)
		rt := reflect.TypeOf(e)
		if rt.Kind() == reflect.Ptr {
			rv = rv.Elem()
			rt = rt.Elem()
		}
		if rt.Kind() == reflect.Struct {
			for j := 0; j < rt.NumField(); j++ {
				f := rt.Field(j)
				if v := rv.Field(j); v.CanInterface() {
					fmt.Fprintf(w, "%s   Field %s (%s): %+v\n", pad, f.Name, f.Type, v.Interface())
				}
			}
		}
		i++
	}, 0)
}

func walk(err error, visit func(error, int), depth int) {
	for e := err; e != nil; {
		visit(e, depth)
		if j, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range j.Unwrap() {
				walk(inner, visit, depth+1)
			}
			return
		}
		e = errors.Unwrap(e)
	}
}
