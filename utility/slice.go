package utility

func Contains[T comparable](array []T, s T) bool {
	for _, v := range array {
		if v == s {
			return true
		}
	}
	return false
}

// Unique keeps the first occurrence of every value.
func Unique[T comparable](array []T) []T {
	seen := make(map[T]struct{}, len(array))
	result := make([]T, 0, len(array))
	for _, v := range array {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
