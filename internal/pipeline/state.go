package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// runState maps each model label to the last run id a completed pass
// processed. The poll loop compares it against the ingested ledgers to
// decide whether anything new arrived; deleting the file forces the next
// pass to rebuild every output.
type runState map[string]string

func loadState(path string) (runState, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return runState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	var s runState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	if s == nil {
		s = runState{}
	}
	return s, nil
}

func saveState(path string, s runState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}
