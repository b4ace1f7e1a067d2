package object

// Clone deep-copies o and registers every produced value with a. Closure
// bodies are immutable syntax trees and are shared rather than copied.
func Clone(o Object, a Allocator) Object {
	switch v := o.(type) {
	case *Integer:
		return NewInteger(a, v.Value)
	case *Real:
		return NewReal(a, v.Value)
	case *String:
		return NewString(a, v.Value)
	case *Symbol:
		return NewSymbol(a, v.Name)
	case *Error:
		return Alloc(a, &Error{Message: v.Message, Fatal: v.Fatal})
	case *Native:
		return NewNative(a, v.Name, v.Fn)
	case *List:
		elements := make([]Object, len(v.Elements))
		for i, e := range v.Elements {
			elements[i] = Clone(e, a)
		}
		return NewList(a, elements)
	case *Closure:
		params := make([]string, len(v.Parameters))
		copy(params, v.Parameters)
		return Alloc(a, &Closure{
			Parameters: params,
			Body:       v.Body,
			Env:        v.Env,
			Scope:      v.Scope,
		})
	default:
		return NIL
	}
}

// Mark sets the mark bit on o and, for lists, on every element.
func Mark(o Object) {
	if o == nil {
		return
	}
	if l, ok := o.(*List); ok {
		for _, e := range l.Elements {
			Mark(e)
		}
	}
	o.header().marked = true
}

// Unmark clears the mark bit on o and, for lists, on every element.
func Unmark(o Object) {
	if o == nil {
		return
	}
	if l, ok := o.(*List); ok {
		for _, e := range l.Elements {
			Unmark(e)
		}
	}
	o.header().marked = false
}

func IsMarked(o Object) bool {
	return o != nil && o.header().marked
}

// SetMarked flips only o's own mark bit. Collectors that trace beyond list
// elements use it to drive their own traversal.
func SetMarked(o Object, marked bool) {
	if o != nil {
		o.header().marked = marked
	}
}
