package scene

import (
	"fmt"
	"sync"
	"testing"

	"github.com/openshed/scenebridge/internal/envelope"
	"github.com/openshed/scenebridge/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestNew_SeedsDefaultCube(t *testing.T) {
	s := New()

	names, count := s.List()
	require.Equal(t, []string{"Cube"}, names)
	require.Equal(t, 1, count)

	cube, ok := s.Get("Cube")
	require.True(t, ok)
	require.Equal(t, TypeMesh, cube.Type)
	require.Equal(t, [3]float64{0, 0, 0}, cube.Location)
	require.Equal(t, [3]float64{1, 1, 1}, cube.Scale)
	require.Equal(t, 8, cube.VertexCount)
	require.Equal(t, 6, cube.FaceCount)

	active, ok := s.ActiveObject()
	require.True(t, ok)
	require.Equal(t, "Cube", active)
}

func TestCreate_UniqueNameSuffixing(t *testing.T) {
	s := New()

	first := s.Create(CreateSpec{BaseName: "Cube", Type: TypeMesh})
	second := s.Create(CreateSpec{BaseName: "Cube", Type: TypeMesh})

	require.Equal(t, "Cube.001", first.Name)
	require.Equal(t, "Cube.002", second.Name)

	names, count := s.List()
	require.Equal(t, 3, count)
	require.Equal(t, []string{"Cube", "Cube.001", "Cube.002"}, names)
}

func TestCreate_EmptyBaseNameFallsBack(t *testing.T) {
	s := New()

	obj := s.Create(CreateSpec{Type: TypeEmpty})
	require.Equal(t, "Object", obj.Name)
}

func TestCreate_BecomesActive(t *testing.T) {
	s := New()

	obj := s.Create(CreateSpec{BaseName: "Lamp", Type: TypeLight, LightType: "POINT"})

	active, ok := s.ActiveObject()
	require.True(t, ok)
	require.Equal(t, obj.Name, active)
}

func TestMove(t *testing.T) {
	s := New()

	obj, err := s.Move("Cube", [3]float64{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, [3]float64{1, 2, 3}, obj.Location)

	stored, ok := s.Get("Cube")
	require.True(t, ok)
	require.Equal(t, [3]float64{1, 2, 3}, stored.Location)
}

func TestMove_MissingObject(t *testing.T) {
	s := New()

	_, err := s.Move("Missing", [3]float64{1, 2, 3})
	require.Error(t, err)

	var te *errors.ToolError
	require.ErrorAs(t, err, &te)
	require.Equal(t, envelope.CodeNotFound, te.Code)
	require.Equal(t, "Missing", te.Details["name"])
}

func TestRename(t *testing.T) {
	s := New()

	require.NoError(t, s.Rename("Cube", "Box"))
	require.False(t, s.Exists("Cube"))
	require.True(t, s.Exists("Box"))

	// Active slot follows the rename.
	active, ok := s.ActiveObject()
	require.True(t, ok)
	require.Equal(t, "Box", active)
}

func TestRename_TargetTaken(t *testing.T) {
	s := New()
	s.Create(CreateSpec{BaseName: "Box", Type: TypeMesh})

	err := s.Rename("Cube", "Box")
	require.Error(t, err)

	var te *errors.ToolError
	require.ErrorAs(t, err, &te)
	require.Equal(t, envelope.CodeAlreadyExists, te.Code)
}

func TestRename_MissingSource(t *testing.T) {
	s := New()

	err := s.Rename("Ghost", "Box")

	var te *errors.ToolError
	require.ErrorAs(t, err, &te)
	require.Equal(t, envelope.CodeNotFound, te.Code)
}

func TestDelete(t *testing.T) {
	s := New()

	require.NoError(t, s.Delete("Cube"))
	require.False(t, s.Exists("Cube"))

	_, count := s.List()
	require.Equal(t, 0, count)

	// The deleted object was active; the slot clears.
	_, ok := s.ActiveObject()
	require.False(t, ok)

	err := s.Delete("Cube")
	var te *errors.ToolError
	require.ErrorAs(t, err, &te)
	require.Equal(t, envelope.CodeNotFound, te.Code)
}

func TestSetTransform_PartialUpdate(t *testing.T) {
	s := New()

	rot := [3]float64{0, 0, 1.57}
	obj, err := s.SetTransform("Cube", nil, &rot, nil)
	require.NoError(t, err)
	require.Equal(t, [3]float64{0, 0, 0}, obj.Location)
	require.Equal(t, rot, obj.RotationEuler)
	require.Equal(t, [3]float64{1, 1, 1}, obj.Scale)

	loc := [3]float64{5, 0, 0}
	scale := [3]float64{2, 2, 2}
	obj, err = s.SetTransform("Cube", &loc, nil, &scale)
	require.NoError(t, err)
	require.Equal(t, loc, obj.Location)
	require.Equal(t, rot, obj.RotationEuler)
	require.Equal(t, scale, obj.Scale)
}

func TestSetActive(t *testing.T) {
	s := New()
	s.Create(CreateSpec{BaseName: "Box", Type: TypeMesh})

	require.NoError(t, s.SetActive("Cube"))
	active, ok := s.ActiveObject()
	require.True(t, ok)
	require.Equal(t, "Cube", active)

	err := s.SetActive("Ghost")
	var te *errors.ToolError
	require.ErrorAs(t, err, &te)
	require.Equal(t, envelope.CodeNotFound, te.Code)
}

func TestSnapshot_SinglePage(t *testing.T) {
	s := New()

	page := s.Snapshot(0, 10)
	require.Equal(t, DefaultSceneName, page.SceneName)
	require.Equal(t, 1, page.Count)
	require.Len(t, page.Objects, 1)
	require.Equal(t, "Cube", page.Objects[0].Name)
	require.Nil(t, page.Resume)
}

func TestSnapshot_ChunkingAndResume(t *testing.T) {
	s := New()
	for i := 0; i < 9; i++ {
		s.Create(CreateSpec{BaseName: fmt.Sprintf("Obj%d", i), Type: TypeMesh})
	}

	var collected []string
	offset := 0
	pages := 0
	for {
		page := s.Snapshot(offset, 4)
		pages++
		for _, obj := range page.Objects {
			collected = append(collected, obj.Name)
		}
		if page.Resume == nil {
			break
		}
		require.Equal(t, 10, page.Resume.Total)
		offset = page.Resume.Offset
	}

	require.Equal(t, 3, pages)
	require.Len(t, collected, 10)
	require.Equal(t, "Cube", collected[0])
	require.Equal(t, "Obj8", collected[9])
}

func TestSnapshot_OffsetPastEnd(t *testing.T) {
	s := New()

	page := s.Snapshot(50, 10)
	require.Empty(t, page.Objects)
	require.Equal(t, 1, page.Count)
	require.Nil(t, page.Resume)
}

func TestSnapshot_NonPositiveLimitUsesDefault(t *testing.T) {
	s := New()

	page := s.Snapshot(0, 0)
	require.Len(t, page.Objects, 1)
	require.Nil(t, page.Resume)
}

func TestStore_ConcurrentReadersAndWriters(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			s.Create(CreateSpec{BaseName: fmt.Sprintf("W%d", i), Type: TypeMesh})
		}(i)
		go func() {
			defer wg.Done()
			s.Snapshot(0, 100)
			s.List()
			s.Exists("Cube")
		}()
	}
	wg.Wait()

	_, count := s.List()
	require.Equal(t, 9, count)
}
