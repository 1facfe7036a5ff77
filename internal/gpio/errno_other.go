//go:build !unix

package gpio

func errnoHint(error) string { return "" }
