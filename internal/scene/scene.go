// Package scene implements the in-memory scene store the headless backend
// serves. It stands in for the host application's scene graph: named objects
// with transforms, unique-name allocation, an active-object slot, and
// chunked snapshots for large scenes.
//
// The store carries its own lock so read-only transports (health checks,
// snapshots over HTTP) can inspect it without going through the main-thread
// executor. Mutations still arrive exclusively through executor-run tool
// handlers.
package scene

import (
	"fmt"
	"sort"
	"sync"

	"github.com/openshed/scenebridge/internal/envelope"
	"github.com/openshed/scenebridge/internal/errors"
)

// ObjectType classifies a scene object.
type ObjectType string

const (
	TypeMesh   ObjectType = "MESH"
	TypeCamera ObjectType = "CAMERA"
	TypeLight  ObjectType = "LIGHT"
	TypeEmpty  ObjectType = "EMPTY"
)

// DefaultSceneName is the name of the scene a fresh store starts with.
const DefaultSceneName = "Scene"

// DefaultChunkSize bounds snapshot pages when the caller does not set a limit.
const DefaultChunkSize = 100

// Object is a scene object. Scale defaults to (1,1,1); a zero RotationEuler
// means axis-aligned. Vertex and face counts describe mesh objects and stay
// zero for cameras, lights, and empties.
type Object struct {
	Name          string
	Type          ObjectType
	Location      [3]float64
	RotationEuler [3]float64
	Scale         [3]float64
	VertexCount   int
	FaceCount     int
	LightType     string
}

// CreateSpec describes an object to add. BaseName is made unique with the
// host's ".001" suffix convention when it collides.
type CreateSpec struct {
	BaseName    string
	Type        ObjectType
	Location    [3]float64
	VertexCount int
	FaceCount   int
	LightType   string
}

// CompactObject is the trimmed per-object form used in snapshots.
type CompactObject struct {
	Name     string     `json:"name"`
	Type     ObjectType `json:"type"`
	Location [3]float64 `json:"location"`
}

// ResumeToken marks where a truncated snapshot stopped.
type ResumeToken struct {
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// SnapshotPage is one chunk of the scene listing. Resume is nil when the
// page reaches the end.
type SnapshotPage struct {
	SceneName string          `json:"scene"`
	Count     int             `json:"count"`
	Objects   []CompactObject `json:"objects"`
	Resume    *ResumeToken    `json:"resume_token,omitempty"`
}

// Store is the scene graph. A fresh store holds exactly one mesh named
// "Cube" at the origin, matching the host's default scene.
type Store struct {
	mu        sync.RWMutex
	sceneName string
	objects   map[string]*Object
	order     []string
	active    string
}

// New returns a store seeded with the default scene.
func New() *Store {
	s := &Store{}
	s.Reset()

	return s
}

// Reset restores the default scene: one "Cube" mesh at the origin, active.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sceneName = DefaultSceneName
	s.objects = make(map[string]*Object)
	s.order = nil
	s.addLocked(&Object{
		Name:        "Cube",
		Type:        TypeMesh,
		Scale:       [3]float64{1, 1, 1},
		VertexCount: 8,
		FaceCount:   6,
	})
	s.active = "Cube"
}

// SceneName reports the scene's name.
func (s *Store) SceneName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sceneName
}

// List returns all object names sorted, with the total count.
func (s *Store) List() ([]string, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.objects))
	for name := range s.objects {
		names = append(names, name)
	}
	sort.Strings(names)

	return names, len(names)
}

// Get returns a copy of the named object.
func (s *Store) Get(name string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[name]
	if !ok {
		return Object{}, false
	}

	return *obj, true
}

// Exists reports whether the named object is present.
func (s *Store) Exists(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.objects[name]

	return ok
}

// ActiveObject returns the active object's name, or false when none is set.
func (s *Store) ActiveObject() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.active == "" {
		return "", false
	}

	return s.active, true
}

// SetActive marks the named object active. It fails when the object is missing.
func (s *Store) SetActive(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[name]; !ok {
		return NotFound(name)
	}
	s.active = name

	return nil
}

// Create adds an object, making the base name unique if needed, and returns
// a copy of the stored object. The new object becomes active.
func (s *Store) Create(spec CreateSpec) Object {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj := &Object{
		Name:        s.uniqueNameLocked(spec.BaseName),
		Type:        spec.Type,
		Location:    spec.Location,
		Scale:       [3]float64{1, 1, 1},
		VertexCount: spec.VertexCount,
		FaceCount:   spec.FaceCount,
		LightType:   spec.LightType,
	}
	s.addLocked(obj)
	s.active = obj.Name

	return *obj
}

// Move sets the named object's location and returns the updated copy.
func (s *Store) Move(name string, location [3]float64) (Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[name]
	if !ok {
		return Object{}, NotFound(name)
	}
	obj.Location = location

	return *obj, nil
}

// Rename changes an object's name. The target name must be free.
func (s *Store) Rename(from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[from]
	if !ok {
		return NotFound(from)
	}
	if _, taken := s.objects[to]; taken {
		return &errors.ToolError{
			Code:    envelope.CodeAlreadyExists,
			Message: fmt.Sprintf("object already exists: %s", to),
			Details: map[string]any{"name": to},
		}
	}

	delete(s.objects, from)
	obj.Name = to
	s.objects[to] = obj
	for i, n := range s.order {
		if n == from {
			s.order[i] = to
			break
		}
	}
	if s.active == from {
		s.active = to
	}

	return nil
}

// Delete removes the named object.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[name]; !ok {
		return NotFound(name)
	}

	delete(s.objects, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.active == name {
		s.active = ""
	}

	return nil
}

// SetTransform updates the provided transform components, leaving nil ones
// untouched, and returns the updated copy.
func (s *Store) SetTransform(name string, location, rotation, scale *[3]float64) (Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[name]
	if !ok {
		return Object{}, NotFound(name)
	}

	if location != nil {
		obj.Location = *location
	}
	if rotation != nil {
		obj.RotationEuler = *rotation
	}
	if scale != nil {
		obj.Scale = *scale
	}

	return *obj, nil
}

// Snapshot returns one page of the scene listing in creation order.
// A non-positive limit falls back to DefaultChunkSize; a Resume token is
// present when objects remain past the page.
func (s *Store) Snapshot(offset, limit int) SnapshotPage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = DefaultChunkSize
	}
	if offset < 0 {
		offset = 0
	}

	total := len(s.order)
	page := SnapshotPage{
		SceneName: s.sceneName,
		Count:     total,
		Objects:   []CompactObject{},
	}

	if offset >= total {
		return page
	}

	end := offset + limit
	if end > total {
		end = total
	}
	for _, name := range s.order[offset:end] {
		obj := s.objects[name]
		page.Objects = append(page.Objects, CompactObject{
			Name:     obj.Name,
			Type:     obj.Type,
			Location: obj.Location,
		})
	}
	if end < total {
		page.Resume = &ResumeToken{Offset: end, Total: total}
	}

	return page
}

func (s *Store) addLocked(obj *Object) {
	s.objects[obj.Name] = obj
	s.order = append(s.order, obj.Name)
}

// uniqueNameLocked applies the host's collision convention: "Cube",
// "Cube.001", "Cube.002", ...
func (s *Store) uniqueNameLocked(base string) string {
	if base == "" {
		base = "Object"
	}
	if _, taken := s.objects[base]; !taken {
		return base
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s.%03d", base, i)
		if _, taken := s.objects[candidate]; !taken {
			return candidate
		}
	}
}

// NotFound reports a missing object as a tool error with the not_found code.
func NotFound(name string) error {
	return &errors.ToolError{
		Code:    envelope.CodeNotFound,
		Message: fmt.Sprintf("object not found: %s", name),
		Details: map[string]any{"name": name},
	}
}
