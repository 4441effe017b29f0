package module

import "sync"

// ports maps module name to the value its Ports returned. main registers
// every mounted module so siblings can look each other up by name
var ports sync.Map

// Register publishes p under name, replacing any earlier entry
func Register(name string, p any) { ports.Store(name, p) }

// PortsAs looks up name and asserts its ports to T
func PortsAs[T any](name string) (T, bool) {
	v, _ := ports.Load(name)
	out, ok := v.(T)
	return out, ok
}

// Reset forgets every registration
func Reset() { ports.Clear() }
