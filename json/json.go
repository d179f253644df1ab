// Package json persists transcripts as versioned JSON documents.
package json

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/hive"
)

// Version is the envelope format written by Marshal.
const Version = 1

// ErrVersion is returned for documents written in an unknown format.
var ErrVersion = errors.New("unsupported transcript version")

type envelope struct {
	Version      int          `json:"version"`
	ID           string       `json:"id"`
	Model        string       `json:"model,omitempty"`
	SystemPrompt string       `json:"system_prompt"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	Usage        usageDTO     `json:"usage"`
	Messages     []messageDTO `json:"messages"`
}

type usageDTO struct {
	TotalInput  int `json:"total_input"`
	TotalOutput int `json:"total_output"`
}

type messageDTO struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

// Marshal serializes a transcript in the current envelope format.
func Marshal(t hive.Transcript) ([]byte, error) {
	env := envelope{
		Version:      Version,
		ID:           t.ID,
		Model:        t.Model,
		SystemPrompt: t.SystemPrompt,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		Usage:        usageDTO{TotalInput: t.TotalInput, TotalOutput: t.TotalOutput},
		Messages:     make([]messageDTO, len(t.Messages)),
	}
	for i, msg := range t.Messages {
		blocks, err := marshalContentBlocks(msg.Content)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		env.Messages[i] = messageDTO{Role: string(msg.Role), Content: blocks}
	}
	return json.MarshalIndent(env, "", "  ")
}

// Unmarshal deserializes a transcript. Messages are validated so that a
// loaded transcript can be resent as-is.
func Unmarshal(data []byte) (hive.Transcript, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return hive.Transcript{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != Version {
		return hive.Transcript{}, fmt.Errorf("%w: %d", ErrVersion, env.Version)
	}
	msgs := make([]hive.Message, len(env.Messages))
	for i, dto := range env.Messages {
		blocks, err := unmarshalContentBlocks(dto.Content)
		if err != nil {
			return hive.Transcript{}, fmt.Errorf("message %d: %w", i, err)
		}
		msgs[i] = hive.Message{Role: hive.Role(dto.Role), Content: blocks}
		if err := hive.ValidateMessage(msgs[i]); err != nil {
			return hive.Transcript{}, fmt.Errorf("message %d: %w", i, err)
		}
	}
	return hive.Transcript{
		ID:           env.ID,
		Model:        env.Model,
		SystemPrompt: env.SystemPrompt,
		CreatedAt:    env.CreatedAt,
		UpdatedAt:    env.UpdatedAt,
		Messages:     msgs,
		TotalInput:   env.Usage.TotalInput,
		TotalOutput:  env.Usage.TotalOutput,
	}, nil
}

// Save writes a transcript to path atomically, creating parent
// directories as needed.
func Save(path string, t hive.Transcript) error {
	data, err := Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Load reads a transcript from path.
func Load(path string) (hive.Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return hive.Transcript{}, fmt.Errorf("read file: %w", err)
	}
	return Unmarshal(data)
}
