package deepmodel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-upscaler/internal/modelcache"
	"image-upscaler/internal/models"
)

func TestSelectModel(t *testing.T) {
	catalog := DefaultCatalog()

	tests := []struct {
		scale models.ScaleFactor
		want  int
	}{
		{1, 2},
		{1.5, 2},
		{2, 2},
		{2.5, 4},
		{3, 4},
		{4, 4},
		{6, 4},
	}

	for _, tt := range tests {
		t.Run(tt.scale.String(), func(t *testing.T) {
			m, err := SelectModel(catalog, tt.scale)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Scale)
		})
	}
}

func TestSelectModel_UnsortedCatalog(t *testing.T) {
	catalog := []Model{{Key: "x4", Scale: 4}, {Key: "x2", Scale: 2}}
	m, err := SelectModel(catalog, 1.5)
	require.NoError(t, err)
	assert.Equal(t, "x2", m.Key)
	assert.Equal(t, "x4", catalog[0].Key, "catalog order untouched")
}

func TestSelectModel_Empty(t *testing.T) {
	_, err := SelectModel(nil, 2)
	assert.Error(t, err)
}

type fakeStore struct {
	writable    error
	canDownload bool
	present     map[string]bool
}

func (f *fakeStore) Ensure(context.Context, modelcache.Spec) (string, error) { return "", nil }
func (f *fakeStore) Has(spec modelcache.Spec) bool                          { return f.present[spec.Key] }
func (f *fakeStore) CanDownload() bool                                      { return f.canDownload }
func (f *fakeStore) Writable() error                                        { return f.writable }

func TestCheckWeights(t *testing.T) {
	catalog := DefaultCatalog()

	assert.Error(t, checkWeights(nil, catalog))
	assert.Error(t, checkWeights(&fakeStore{canDownload: true}, nil))
	assert.Error(t, checkWeights(&fakeStore{writable: errors.New("read-only"), canDownload: true}, catalog))
	assert.ErrorIs(t, checkWeights(&fakeStore{}, catalog), modelcache.ErrNotCached)

	assert.NoError(t, checkWeights(&fakeStore{canDownload: true}, catalog))
	assert.NoError(t, checkWeights(&fakeStore{present: map[string]bool{"realesrgan-x4": true}}, catalog))
}
