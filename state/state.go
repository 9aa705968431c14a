package state

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// State represents the local daily state as a generic map of key-value pairs.
// Triggers use it to remember when they last ran so hook-driven scans stay
// cheap between sessions.
type State map[string]interface{}

// File is the state store for one storage root. Components receive it from
// whoever resolved configuration; the package never goes looking for a
// config file itself, so one process cannot split its bookkeeping across
// two roots.
type File struct {
	path string
}

// At returns the state store rooted at a storage directory. The backing
// file is state.yml at the root, next to the date directories it describes.
func At(root string) *File {
	return &File{path: filepath.Join(root, "state.yml")}
}

// Path returns the backing file's location.
func (f *File) Path() string {
	return f.path
}

// Load loads the state from the state file.
// Returns an empty state if the file doesn't exist.
func (f *File) Load() (State, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty state if file doesn't exist
			return make(State), nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var state State
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse state file: %w", err)
	}

	if state == nil {
		state = make(State)
	}

	return state, nil
}

// Save saves the state to the state file.
func (f *File) Save(state State) error {
	// Ensure the storage directory exists
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if err := os.WriteFile(f.path, data, 0644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	return nil
}

// Get retrieves a value from the state by key.
// Returns the value and true if found, nil and false otherwise.
func (f *File) Get(key string) (interface{}, bool, error) {
	state, err := f.Load()
	if err != nil {
		return nil, false, err
	}

	val, ok := state[key]
	return val, ok, nil
}

// GetString is a convenience function to get a string value from state.
// Returns empty string if the key doesn't exist or the value is not a string.
func (f *File) GetString(key string) (string, error) {
	val, ok, err := f.Get(key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}

	str, ok := val.(string)
	if !ok {
		return "", nil
	}

	return str, nil
}

// GetTime is a convenience function to get an RFC 3339 timestamp from state.
// Returns the zero time if the key doesn't exist or does not parse.
func (f *File) GetTime(key string) (time.Time, error) {
	str, err := f.GetString(key)
	if err != nil {
		return time.Time{}, err
	}
	if str == "" {
		return time.Time{}, nil
	}

	ts, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return time.Time{}, nil
	}

	return ts, nil
}

// Set sets a value in the state.
func (f *File) Set(key string, value interface{}) error {
	state, err := f.Load()
	if err != nil {
		return err
	}

	state[key] = value
	return f.Save(state)
}

// SetTime stores a timestamp in the state as RFC 3339.
func (f *File) SetTime(key string, ts time.Time) error {
	return f.Set(key, ts.Format(time.RFC3339))
}

// Delete removes a key from the state.
func (f *File) Delete(key string) error {
	state, err := f.Load()
	if err != nil {
		return err
	}

	delete(state, key)
	return f.Save(state)
}
