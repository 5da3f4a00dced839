// Package presence tracks which users are logged in and through which
// session. It is shared by every connection worker.
package presence

import (
	"sort"
	"sync"
)

// Registry maps username to the id of the session that logged it in. All
// methods take the mutex for their whole body.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]string
	onChange func(n int)
}

// New returns an empty registry. onChange, if not nil, is called with the
// number of logged-in users after every mutation. It runs under the lock so
// calls arrive in mutation order; it must not call back into the registry.
func New(onChange func(n int)) *Registry {
	return &Registry{sessions: make(map[string]string), onChange: onChange}
}

// Bind records sessionID as the owner of username. A later login of the
// same user takes the entry over; the previous owner id is returned.
func (r *Registry) Bind(username, sessionID string) (previous string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous = r.sessions[username]
	r.sessions[username] = sessionID
	r.notify()
	return previous
}

// Release removes username only while sessionID still owns it, so a stale
// session cannot log out a newer login of the same user.
func (r *Registry) Release(username, sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner, ok := r.sessions[username]
	if !ok || owner != sessionID {
		return false
	}
	delete(r.sessions, username)
	r.notify()
	return true
}

// Usernames returns a sorted snapshot of logged-in users.
func (r *Registry) Usernames() []string {
	r.mu.Lock()
	names := make([]string, 0, len(r.sessions))
	for u := range r.sessions {
		names = append(names, u)
	}
	r.mu.Unlock()

	sort.Strings(names)
	return names
}

// Len returns the number of logged-in users.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// notify must be called with mu held.
func (r *Registry) notify() {
	if r.onChange != nil {
		r.onChange(len(r.sessions))
	}
}
