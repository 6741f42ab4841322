package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/keremk/tutopanda/internal/blueprint"
	"github.com/keremk/tutopanda/internal/canon"
	"github.com/keremk/tutopanda/internal/eventlog"
	"github.com/keremk/tutopanda/internal/hashing"
	"github.com/keremk/tutopanda/internal/inputsrc"
	"github.com/keremk/tutopanda/internal/manifest"
	"github.com/keremk/tutopanda/internal/revision"
)

// loadInputOverrides reads the YAML document at path, keyed by dotted
// input name (e.g. "InquiryPrompt", "Child.ImagesPer"), and returns it
// keyed by canonical input id. An empty path yields no overrides.
func loadInputOverrides(path string) (map[string]any, error) {
	out := make(map[string]any)
	if path == "" {
		return out, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inputs file %s: %w", path, err)
	}
	var decoded map[string]any
	if err := yaml.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("parse inputs file %s: %w", path, err)
	}
	for name, v := range decoded {
		out[string(canon.InputID("Input:"+name))] = v
	}
	return out, nil
}

// resolveInputValues builds the full resolved-input map used to project
// the producer graph: it starts from the base manifest's currently
// recorded values, overlays file-provided overrides, seeds declared
// defaults for anything still missing, then redirects aliased inputs to
// their upstream source per sm.
func resolveInputValues(tree *blueprint.TreeNode, sm inputsrc.SourceMap, base manifest.Manifest, overrides map[string]any) (map[string]any, error) {
	values := make(map[string]any, len(base.Inputs)+len(overrides))
	for id, entry := range base.Inputs {
		var v any
		if len(entry.Payload) > 0 {
			if err := json.Unmarshal(entry.Payload, &v); err != nil {
				return nil, fmt.Errorf("decode manifest input %s: %w", id, err)
			}
		}
		values[string(id)] = v
	}
	for k, v := range overrides {
		values[k] = v
	}
	inputsrc.SeedDefaults(tree, values)
	return inputsrc.NormalizeInputValues(values, sm), nil
}

// pendingInputEvents diffs resolved against the base manifest's recorded
// input hashes and returns one InputEvent per changed or new input,
// stamped at targetRevision.
func pendingInputEvents(base manifest.Manifest, resolved map[string]any, targetRevision revision.ID) ([]eventlog.InputEvent, error) {
	var events []eventlog.InputEvent
	for id, v := range resolved {
		val, err := hashing.FromAny(v)
		if err != nil {
			return nil, fmt.Errorf("hash input %s: %w", id, err)
		}
		hash := hashing.HashPayload(val).Hash
		if entry, ok := base.Inputs[canon.InputID(id)]; ok && entry.Hash == hash {
			continue
		}
		payload, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal input %s: %w", id, err)
		}
		events = append(events, eventlog.InputEvent{
			ID:        canon.InputID(id),
			Revision:  targetRevision,
			Hash:      hash,
			Payload:   payload,
			EditedBy:  eventlog.EditedByUser,
			CreatedAt: time.Now().UTC(),
		})
	}
	return events, nil
}
