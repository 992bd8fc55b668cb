package async

import "context"

// Worker is a long-running background loop. Run calls done once it has fully exited.
type Worker interface {
	Run(ctx context.Context, done func())
	Shutdown()
}
