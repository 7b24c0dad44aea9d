package store

// Field is an optional value that remembers whether it was supplied.
type Field[T any] struct {
	Value   T
	Present bool
}

// Set returns a present field holding v.
func Set[T any](v T) Field[T] {
	return Field[T]{Value: v, Present: true}
}

// PostPatch carries a partial post update. Absent fields are left alone;
// a present ImageURL with a nil value clears the image.
type PostPatch struct {
	Title    Field[string]
	Content  Field[string]
	ImageURL Field[*string]
}

// Empty reports whether the patch changes nothing.
func (p PostPatch) Empty() bool {
	return !p.Title.Present && !p.Content.Present && !p.ImageURL.Present
}
