//go:build !matprofile

package metrics

// liveMats is -1 when the binary was built without the matprofile tag
func liveMats() int { return -1 }
