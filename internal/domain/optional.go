package domain

// Optional holds a value that a server response may legitimately omit.
// The zero value is absent.
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] { return Optional[T]{value: v, set: true} }

// None returns an absent Optional.
func None[T any]() Optional[T] { return Optional[T]{} }

// FromPtr maps a decoded JSON pointer field: nil is absent.
func FromPtr[T any](p *T) Optional[T] {
	if p == nil {
		return None[T]()
	}
	return Some(*p)
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) { return o.value, o.set }

// IsSet reports whether the value is present.
func (o Optional[T]) IsSet() bool { return o.set }

// OrElse returns the value, or def when absent.
func (o Optional[T]) OrElse(def T) T {
	if !o.set {
		return def
	}
	return o.value
}
