package loader

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ppiankov/riskform/internal/host"
	"github.com/ppiankov/riskform/internal/host/hosttest"
	"github.com/ppiankov/riskform/internal/model"
)

const manifestJSON = `{
	"0": {"VLM": {"risk_judge": "high", "risk_reason": "knife near the edge"}},
	"1": {}
}`

func testConfig() model.StorageConfig {
	return model.DefaultConfig().Storage
}

func TestImageItemID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		ok   bool
	}{
		{"0.jpg", "0", true},
		{"12.PNG", "12", true},
		{"3.jpeg", "3", true},
		{"4.gif", "4", true},
		{"5.webp", "5", true},
		{"img1.jpg", "", false},
		{"1.bmp", "", false},
		{"01a.jpg", "", false},
		{"1.jpg.bak", "", false},
		{".jpg", "", false},
	}

	for _, tt := range tests {
		id, ok := ImageItemID(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.id, id, tt.name)
	}
}

func TestLoad(t *testing.T) {
	store := hosttest.NewStore("root")
	store.AddFile("root", "extracted_risk_assessments_by_id.json", []byte(manifestJSON))
	images := store.AddFolder("root", "images")
	f0 := store.AddFile(images, "0.jpg", nil)
	f2 := store.AddFile(images, "2.jpg", nil)
	bad := store.AddFile(images, "img1.jpg", nil)

	ds := New(store, testConfig(), zaptest.NewLogger(t)).Load(context.Background(), "root")

	require.Len(t, ds.Evaluations, 2)
	assert.Equal(t, "knife near the edge", ds.Evaluations["0"]["VLM"].Rationale())
	assert.Equal(t, model.ImageRefs{
		"0": store.PublicURI(f0),
		"2": store.PublicURI(f2),
	}, ds.Images)
	assert.True(t, store.Shared(f0))
	assert.True(t, store.Shared(f2))
	assert.False(t, store.Shared(bad))
}

func TestLoadFallsBackToMainFolder(t *testing.T) {
	store := hosttest.NewStore("root")
	store.AddFile("root", "extracted_risk_assessments_by_id.json", []byte(manifestJSON))
	f1 := store.AddFile("root", "1.png", nil)

	ds := New(store, testConfig(), zaptest.NewLogger(t)).Load(context.Background(), "root")

	assert.Len(t, ds.Evaluations, 2)
	assert.Equal(t, model.ImageRefs{"1": store.PublicURI(f1)}, ds.Images)
}

func TestLoadMissingManifest(t *testing.T) {
	store := hosttest.NewStore("root")
	images := store.AddFolder("root", "images")
	store.AddFile(images, "0.jpg", nil)

	ds := New(store, testConfig(), zaptest.NewLogger(t)).Load(context.Background(), "root")

	assert.Empty(t, ds.Evaluations)
	assert.Len(t, ds.Images, 1, "images are still published without a manifest")
}

func TestLoadShareFailureKeepsPartialResults(t *testing.T) {
	store := hosttest.NewStore("root")
	store.AddFile("root", "extracted_risk_assessments_by_id.json", []byte(manifestJSON))
	images := store.AddFolder("root", "images")
	f0 := store.AddFile(images, "0.jpg", nil)
	f1 := store.AddFile(images, "1.jpg", nil)
	store.FailShare[f1] = errors.New("permission denied")

	ds := New(store, testConfig(), zaptest.NewLogger(t)).Load(context.Background(), "root")

	assert.Len(t, ds.Evaluations, 2)
	assert.Equal(t, model.ImageRefs{"0": store.PublicURI(f0)}, ds.Images)
}

func TestLoadBadFolder(t *testing.T) {
	store := hosttest.NewStore("root")

	ds := New(store, testConfig(), zaptest.NewLogger(t)).Load(context.Background(), "nope")
	assert.Empty(t, ds.Evaluations)
	assert.Empty(t, ds.Images)

	ds = New(store, testConfig(), zaptest.NewLogger(t)).Load(context.Background(), "")
	assert.NotNil(t, ds)
}

func TestLoadMalformedManifest(t *testing.T) {
	store := hosttest.NewStore("root")
	store.AddFile("root", "extracted_risk_assessments_by_id.json", []byte(`{not json`))

	ds := New(store, testConfig(), zaptest.NewLogger(t)).Load(context.Background(), "root")
	assert.Empty(t, ds.Evaluations)
}

func TestInspect(t *testing.T) {
	store := hosttest.NewStore("root")
	store.AddFile("root", "extracted_risk_assessments_by_id.json", nil)
	images := store.AddFolder("root", "images")
	store.AddFile(images, "0.jpg", nil)
	store.AddFile(images, "1.jpg", nil)

	listing, err := New(store, testConfig(), zaptest.NewLogger(t)).Inspect(context.Background(), "root")
	require.NoError(t, err)

	assert.Equal(t, "root", listing.Folder.ID)
	require.Len(t, listing.Files, 1)
	require.Len(t, listing.SubFolders, 1)
	assert.Equal(t, "images", listing.SubFolders[0].Folder.Name)
	assert.Len(t, listing.SubFolders[0].Files, 2)
	assert.Zero(t, store.SharedCount(), "inspect must not share anything")
}

func TestInspectErrors(t *testing.T) {
	store := hosttest.NewStore("root")
	l := New(store, testConfig(), zaptest.NewLogger(t))

	_, err := l.Inspect(context.Background(), "")
	assert.Error(t, err)

	_, err = l.Inspect(context.Background(), "missing")
	assert.ErrorIs(t, err, host.ErrNotFound)
}
