package mapper

import (
	"testing"

	"go-page-translator/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pendingTransform struct{}

func (pendingTransform) SourceToView(x, y float64) (models.Point, bool) {
	return models.Point{}, false
}

// halfReady maps only points inside the first 100 source pixels.
type halfReady struct{}

func (halfReady) SourceToView(x, y float64) (models.Point, bool) {
	if x > 100 || y > 100 {
		return models.Point{}, false
	}
	return models.Point{X: x, Y: y}, true
}

func TestMapToView(t *testing.T) {
	box := models.SourceRect{Left: 10, Top: 10, Right: 50, Bottom: 50}

	tests := []struct {
		name    string
		rect    models.SourceRect
		geom    models.ViewerGeometry
		want    models.ViewRect
		wantErr error
	}{
		{
			name: "intrinsic fit doubles coordinates",
			rect: box,
			geom: models.NewIntrinsicFitGeometry(400, 200, 200, 100),
			want: models.ViewRect{Left: 20, Top: 20, Right: 100, Bottom: 100},
		},
		{
			name: "intrinsic fit scales axes independently",
			rect: box,
			geom: models.NewIntrinsicFitGeometry(100, 300, 200, 100),
			want: models.ViewRect{Left: 5, Top: 30, Right: 25, Bottom: 150},
		},
		{
			name:    "intrinsic fit with zero intrinsic size",
			rect:    box,
			geom:    models.NewIntrinsicFitGeometry(400, 200, 0, 100),
			wantErr: ErrGeometryUnavailable,
		},
		{
			name: "fixed frame offsets by display origin",
			rect: box,
			geom: models.NewFixedFrameGeometry(models.ViewRect{Left: 100, Top: 40, Right: 300, Bottom: 140}, 100, 50),
			want: models.ViewRect{Left: 120, Top: 60, Right: 200, Bottom: 140},
		},
		{
			name:    "fixed frame with zero intrinsic height",
			rect:    box,
			geom:    models.NewFixedFrameGeometry(models.ViewRect{Right: 100, Bottom: 100}, 100, 0),
			wantErr: ErrGeometryUnavailable,
		},
		{
			name: "free zoom applies the transform to both corners",
			rect: box,
			geom: models.NewFreeZoomGeometry(true, models.AffineTransform{Scale: 1.5, OffsetX: -5, OffsetY: 20}),
			want: models.ViewRect{Left: 10, Top: 35, Right: 70, Bottom: 95},
		},
		{
			name:    "free zoom not ready",
			rect:    box,
			geom:    models.NewFreeZoomGeometry(false, models.AffineTransform{Scale: 1}),
			wantErr: ErrGeometryUnavailable,
		},
		{
			name:    "free zoom without transform",
			rect:    box,
			geom:    models.NewFreeZoomGeometry(true, nil),
			wantErr: ErrGeometryUnavailable,
		},
		{
			name:    "free zoom transform not laid out",
			rect:    box,
			geom:    models.NewFreeZoomGeometry(true, pendingTransform{}),
			wantErr: ErrGeometryUnavailable,
		},
		{
			name:    "free zoom with only one corner mappable",
			rect:    models.SourceRect{Left: 10, Top: 10, Right: 150, Bottom: 50},
			geom:    models.NewFreeZoomGeometry(true, halfReady{}),
			wantErr: ErrGeometryUnavailable,
		},
		{
			name:    "unknown kind",
			rect:    box,
			geom:    models.ViewerGeometry{Kind: "carousel"},
			wantErr: ErrGeometryUnavailable,
		},
		{
			name:    "kind without payload",
			rect:    box,
			geom:    models.ViewerGeometry{Kind: models.IntrinsicFitViewer},
			wantErr: ErrGeometryUnavailable,
		},
		{
			name: "degenerate source maps to empty rect without error",
			rect: models.SourceRect{Left: 30, Top: 30, Right: 30, Bottom: 60},
			geom: models.NewIntrinsicFitGeometry(200, 100, 200, 100),
			want: models.ViewRect{Left: 30, Top: 30, Right: 30, Bottom: 60},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MapToView(tt.rect, tt.geom)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want.Left, got.Left, 1e-9)
			assert.InDelta(t, tt.want.Top, got.Top, 1e-9)
			assert.InDelta(t, tt.want.Right, got.Right, 1e-9)
			assert.InDelta(t, tt.want.Bottom, got.Bottom, 1e-9)
		})
	}
}

func TestAvailable(t *testing.T) {
	assert.True(t, Available(models.NewIntrinsicFitGeometry(10, 10, 10, 10)))
	assert.False(t, Available(models.NewFreeZoomGeometry(false, nil)))
	assert.False(t, Available(models.ViewerGeometry{}))
}

func TestMapToViewEmptyResultIsNotUnavailable(t *testing.T) {
	got, err := MapToView(models.SourceRect{Left: 5, Top: 5, Right: 5, Bottom: 5},
		models.NewIntrinsicFitGeometry(100, 100, 100, 100))
	require.NoError(t, err)
	assert.True(t, got.Empty())
}
