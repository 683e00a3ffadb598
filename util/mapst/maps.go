// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

// Package mapst contains small generic map helpers.
package mapst

// Keys returns the keys of m in map iteration order.
func Keys[K comparable, V any, M ~map[K]V](m M) []K {
	result := make([]K, 0, len(m))
	for k := range m {
		result = append(result, k)
	}
	return result
}

// Values returns the values of m in map iteration order.
func Values[K comparable, V any, M ~map[K]V](m M) []V {
	result := make([]V, 0, len(m))
	for _, v := range m {
		result = append(result, v)
	}
	return result
}

// Filter returns the entries of m for which fn reports true.
func Filter[K comparable, V any, M ~map[K]V](m M, fn func(K, V) bool) M {
	result := make(M)
	for k, v := range m {
		if fn(k, v) {
			result[k] = v
		}
	}
	return result
}
