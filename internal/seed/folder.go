package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/johnwards/treeseed/internal/store"
)

// FolderPrefix prefixes the key of every per-class sample data folder.
const FolderPrefix = "SampleData_"

// FolderKey returns the folder key for a class.
func FolderKey(className string) string {
	return FolderPrefix + className
}

// FolderAllocator finds or creates the per-class folders under a root.
type FolderAllocator struct {
	objects Objects
	rootID  int64
	log     zerolog.Logger
}

// NewFolderAllocator returns an allocator placing folders under rootID.
func NewFolderAllocator(objects Objects, rootID int64, log zerolog.Logger) *FolderAllocator {
	return &FolderAllocator{objects: objects, rootID: rootID, log: log}
}

// Allocate returns the id of the folder for className, creating it on first
// use. When the store fails, the root id is returned together with the error
// so the caller can seed into the root and report the problem.
//
// Lookup and creation are not atomic; concurrent runs can create duplicates.
func (a *FolderAllocator) Allocate(ctx context.Context, className string) (int64, error) {
	key := FolderKey(className)

	folder, err := a.objects.FindFolder(ctx, a.rootID, key)
	switch {
	case err == nil:
		return folder.ID, nil
	case !errors.Is(err, store.ErrNotFound):
		return a.fallback(className, fmt.Errorf("find folder %s: %w", key, err))
	}

	folder, err = a.objects.CreateFolder(ctx, a.rootID, key)
	if err != nil {
		return a.fallback(className, fmt.Errorf("create folder %s: %w", key, err))
	}
	a.log.Debug().Str("class", className).Int64("folder_id", folder.ID).Msg("created sample data folder")
	return folder.ID, nil
}

func (a *FolderAllocator) fallback(className string, err error) (int64, error) {
	a.log.Warn().Err(err).Str("class", className).Msg("could not create or find folder, using root folder")
	return a.rootID, err
}
