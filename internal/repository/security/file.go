package security

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/catpoint/internal/config"
	domain "github.com/oshokin/catpoint/internal/domain/security"
	pb "github.com/oshokin/catpoint/internal/pb/v1"
)

// FileStorage persists the state document to a JSON file on disk.
// JSON is produced and consumed via protojson so the file matches the
// encoding used on the wire.
type FileStorage struct {
	// path is the filesystem location of the JSON state file.
	path string
	// mu protects concurrent access to the state file.
	mu sync.Mutex
}

// NewFileStorage creates a storage that reads/writes JSON at the provided path.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{
		path: filepath.Clean(path),
	}
}

// Load reads the state from disk.
func (f *FileStorage) Load(_ context.Context) (*domain.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	contents, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read state file: %w", err)
	}

	return decodeState(contents)
}

// Save writes the state to a temporary file and renames it over the old one.
func (f *FileStorage) Save(_ context.Context, state *domain.State) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := encodeState(state)
	if err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	if err = os.WriteFile(tmp, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	if err = os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}

	return nil
}

// encodeState renders the state as indented protobuf JSON.
func encodeState(state *domain.State) ([]byte, error) {
	marshalOptions := protojson.MarshalOptions{
		Multiline:       true,
		EmitUnpopulated: true,
	}

	data, err := marshalOptions.Marshal(pb.StateToProto(state))
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}

	return data, nil
}

// decodeState parses protobuf JSON and validates every enum.
func decodeState(data []byte) (*domain.State, error) {
	var msg structpb.Struct
	if err := protojson.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}

	state, err := pb.StateFromProto(&msg)
	if err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}

	return state, nil
}
