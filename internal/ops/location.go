package ops

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/hpungsan/capture/internal/applog"
	"github.com/hpungsan/capture/internal/errors"
	"github.com/hpungsan/capture/internal/storage"
)

// locationTag is the diagnostic log category for location changes.
const locationTag = "Location"

// LocationStore reads and writes the save location preference.
type LocationStore interface {
	Location(ctx context.Context) (string, error)
	LocationDisplay(ctx context.Context) (string, error)
	SetLocation(ctx context.Context, ref, display string) error
}

// SetLocationInput contains parameters for the SetLocation operation.
type SetLocationInput struct {
	Dir string // required, local directory
}

// LocationOutput describes the configured save location.
type LocationOutput struct {
	Ref        string `json:"ref"`
	Display    string `json:"display"`
	Configured bool   `json:"configured"`
}

// SetLocation validates dir as a writable storage root and persists it.
// An invalid directory is rejected with the resolver's error and nothing is stored.
func SetLocation(ctx context.Context, store LocationStore, resolver RootResolver, log *applog.Log, input SetLocationInput) (*LocationOutput, error) {
	dir := strings.TrimSpace(input.Dir)
	if dir == "" {
		return nil, errors.NewInvalidRequest("dir is required")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.NewInvalidRequest("invalid dir: " + err.Error())
	}
	ref, err := storage.RefForPath(abs)
	if err != nil {
		return nil, errors.NewInvalidRequest("invalid dir: " + err.Error())
	}

	if _, err := resolver.Resolve(ref); err != nil {
		log.Error(locationTag, err, "Rejected save location %s", abs)
		return nil, err
	}

	if err := store.SetLocation(ctx, ref, abs); err != nil {
		log.Error(locationTag, err, "Failed to persist save location %s", abs)
		return nil, err
	}

	log.Info(locationTag, "Save location set: %s (%s)", abs, ref)
	return &LocationOutput{Ref: ref, Display: abs, Configured: true}, nil
}

// Location returns the configured save location.
func Location(ctx context.Context, store LocationStore) (*LocationOutput, error) {
	ref, err := store.Location(ctx)
	if err != nil {
		return nil, err
	}
	display, err := store.LocationDisplay(ctx)
	if err != nil {
		return nil, err
	}
	return &LocationOutput{Ref: ref, Display: display, Configured: ref != ""}, nil
}
