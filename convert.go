package atomq

// as converts an engine-side untyped payload to the binding's data type.
// Engine interfaces carry data as any because Go interfaces cannot declare
// generic methods; the typed factories put the type back at the boundary.
func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}
	return v.(T)
}

// pagesAs converts a slice of untyped pages to typed pages.
func pagesAs[T any](pages []any) []T {
	if pages == nil {
		return nil
	}
	out := make([]T, len(pages))
	for i, p := range pages {
		out[i] = as[T](p)
	}
	return out
}
