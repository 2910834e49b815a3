// Package runtime provides the process-wide dependency injection container,
// following the teacher's internal/runtime package: a single global
// *dig.Container other packages register against and resolve from, built
// once at startup by BuildContainer.
package runtime

import (
	"go.uber.org/dig"
)

// container is the application's global dependency injection container.
var container *dig.Container

func init() {
	container = dig.New()
}

// GetContainer returns the global container for registration or resolution.
func GetContainer() *dig.Container {
	return container
}
