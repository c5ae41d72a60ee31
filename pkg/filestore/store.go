package filestore

import "context"

// Store abstracts the external file storage backend. Upload returns the
// public URL and the backend's storage id, which is what Delete takes.
type Store interface {
	// Upload stores the file content under the given name and returns
	// (url, storageID). The storage id is required to delete the file later.
	Upload(ctx context.Context, data []byte, name string) (string, string, error)

	// Delete removes the stored file. It reports whether the backend
	// actually removed something; deleting an unknown id is not an error.
	Delete(ctx context.Context, storageID string) (bool, error)
}
