package unitofwork

import "context"

// RepositoryFactory creates unit of work instances bound to a request context.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
