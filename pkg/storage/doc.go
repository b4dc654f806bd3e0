// Package storage provides file management for rendered courses.
//
// The Manager type wraps an afero filesystem and provides:
//   - existence checks used to skip assets that were already downloaded
//   - atomic writes through a hidden ".<name>" temporary file and rename
//   - copying of the embedded static assets into the output tree
//
// Usage:
//
//	store := storage.NewManager(afero.NewOsFs())
//	if !store.Exists(dir, "image.png") {
//	    if _, err := store.Save(body, dir, "image.png"); err != nil {
//	        return err
//	    }
//	}
//
// Tests use afero.NewMemMapFs so nothing touches the disk.
package storage
