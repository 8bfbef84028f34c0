package shared

// Upcast returns a new owner of p's value, viewed through view. view typically returns the address
// of an embedded struct or the value as an interface-backed type. The result shares p's control
// block, so both handles count toward the same value.
func Upcast[D any, B any](p Ptr[D], view func(*D) *B) Ptr[B] {
	if p.cb == nil {
		return Ptr[B]{}
	}

	acquireShared(p.cb)

	var object *B
	if p.object != nil {
		object = view(p.object)
	}

	return Ptr[B]{object: object, cb: p.cb}
}

// Alias returns a new owner of owner's value that dereferences to object, which is usually a field
// or element inside that value. The value stays alive for as long as the alias does. Aliasing an
// empty handle produces an empty handle.
func Alias[U any, T any](owner Ptr[U], object *T) Ptr[T] {
	if owner.cb == nil {
		return Ptr[T]{}
	}

	acquireShared(owner.cb)
	return Ptr[T]{object: object, cb: owner.cb}
}

// UpcastWeak is Upcast for observing handles
func UpcastWeak[D any, B any](w Weak[D], view func(*D) *B) Weak[B] {
	if w.cb == nil {
		return Weak[B]{}
	}

	acquireWeak(w.cb)

	var object *B
	if w.object != nil && !w.Expired() {
		object = view(w.object)
	}

	return Weak[B]{object: object, cb: w.cb}
}
