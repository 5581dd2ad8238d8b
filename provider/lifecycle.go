package provider

import "context"

// Initializable is optionally implemented by providers that need setup
// before handling requests (e.g., dial gRPC, validate binary, warm cache).
// Manager does not call Init: Manager.Initialize only runs the factory
// and stores the instance.
type Initializable interface {
	Init(ctx context.Context) error
}

// Closeable is optionally implemented by providers that hold resources
// requiring explicit cleanup (e.g., gRPC connection, daemon process, LDAP bind).
// Manager has no shutdown method and does not call Close.
type Closeable interface {
	Close(ctx context.Context) error
}
