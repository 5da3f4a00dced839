// Package groups is the group registry: a JSON file listing every group and
// its salted password hash. Each mutation rewrites the whole file.
package groups

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/dmitrijs2005/groupshare/internal/common"
	"github.com/dmitrijs2005/groupshare/internal/cryptox"
	"github.com/dmitrijs2005/groupshare/internal/filex"
	"github.com/dmitrijs2005/groupshare/internal/logging"
	"github.com/dmitrijs2005/groupshare/internal/pathx"
)

// Group is one persisted entry. The password is only kept as an argon2id
// hash under a per-group salt.
type Group struct {
	Name         string `json:"name"`
	Salt         string `json:"salt"`
	PasswordHash string `json:"password_hash"`
}

type document struct {
	Groups []Group `json:"groups"`
}

// Registry guards the in-memory group list and its file with one mutex, so
// the check-then-write of Add is atomic with respect to other writers.
type Registry struct {
	mu     sync.RWMutex
	path   string
	groups []Group
	logger logging.Logger
}

// Open loads the registry at path. A missing file is an empty registry.
func Open(path string, logger logging.Logger) (*Registry, error) {
	r := &Registry{path: path, logger: logger.With("module", "groups")}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return r, nil
		}
		return nil, fmt.Errorf("read groups file: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse groups file %s: %w", path, err)
	}
	r.groups = doc.Groups
	return r, nil
}

// Add registers a group. An existing name is left untouched and reported as
// common.ErrDuplicateGroup. The file is rewritten before Add returns.
func (r *Registry) Add(ctx context.Context, name, password string) error {
	if err := pathx.ValidateName(name); err != nil {
		return err
	}

	salt := common.GenerateRandByteArray(cryptox.SaltSize)
	g := Group{
		Name:         name,
		Salt:         hex.EncodeToString(salt),
		PasswordHash: cryptox.HashGroupPassword(password, salt),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.find(name) >= 0 {
		return common.ErrDuplicateGroup
	}

	next := make([]Group, len(r.groups), len(r.groups)+1)
	copy(next, r.groups)
	next = append(next, g)

	if err := r.persist(next); err != nil {
		return err
	}
	r.groups = next

	r.logger.Info(ctx, "group created", "group", name)
	return nil
}

// Verify reports whether password opens the named group. Unknown groups and
// wrong passwords both yield false.
func (r *Registry) Verify(name, password string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.find(name)
	if i < 0 {
		return false
	}
	salt, err := hex.DecodeString(r.groups[i].Salt)
	if err != nil {
		return false
	}
	return cryptox.CompareHash(cryptox.HashGroupPassword(password, salt), r.groups[i].PasswordHash)
}

// Names returns all group names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.groups))
	for i, g := range r.groups {
		names[i] = g.Name
	}
	return names
}

// find is a linear scan; callers hold mu.
func (r *Registry) find(name string) int {
	for i, g := range r.groups {
		if g.Name == name {
			return i
		}
	}
	return -1
}

func (r *Registry) persist(groups []Group) error {
	data, err := json.MarshalIndent(document{Groups: groups}, "", "  ")
	if err != nil {
		return err
	}
	if err := filex.WriteFileAtomic(r.path, data, 0o600); err != nil {
		return fmt.Errorf("write groups file: %w", err)
	}
	return nil
}
