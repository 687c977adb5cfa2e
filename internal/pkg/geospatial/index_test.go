package geospatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Singularity-v/MAP/internal/core/domain"
)

var points = []domain.GeoPoint{
	{Lat: 25.041077, Lng: 121.576102}, // 0 user
	{Lat: 25.041171, Lng: 121.565228}, // 1 市政府
	{Lat: 25.040859, Lng: 121.576293}, // 2 永春
	{Lat: 25.041629, Lng: 121.543767}, // 3 忠孝復興
	{Lat: 25.041629, Lng: 121.543767}, // 4 忠孝復興, second line
	{Lat: 25.0412, Lng: 121.5762},     // 5 dock
}

func TestIndex_InBoundsSortedBySeq(t *testing.T) {
	idx := NewIndex(points)
	require.Equal(t, len(points), idx.Size())

	got, err := idx.InBounds(domain.Bounds{MinLat: 25.031, MinLng: 121.571, MaxLat: 25.051, MaxLng: 121.581})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 5}, got)
}

func TestIndex_InBoundsKeepsDuplicates(t *testing.T) {
	idx := NewIndex(points)

	got, err := idx.InBounds(domain.Bounds{MinLat: 25.04, MinLng: 121.54, MaxLat: 25.05, MaxLng: 121.55})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, got)
}

func TestIndex_InBoundsDegenerateBox(t *testing.T) {
	idx := NewIndex(points)

	_, err := idx.InBounds(domain.Bounds{MinLat: 25, MinLng: 121, MaxLat: 25, MaxLng: 122})
	assert.Error(t, err)
}

func TestIndex_Nearby(t *testing.T) {
	idx := NewIndex(points)

	hits, err := idx.Nearby(points[0], 200, 0)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, 0, hits[0].Seq)
	assert.Zero(t, hits[0].Distance)
	assert.Equal(t, 5, hits[1].Seq)
	assert.Equal(t, 2, hits[2].Seq)
	for _, h := range hits {
		assert.LessOrEqual(t, h.Distance, 200.0)
	}
}

func TestIndex_NearbyLimitAndTies(t *testing.T) {
	idx := NewIndex(points)

	hits, err := idx.Nearby(points[3], 10, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 3, hits[0].Seq, "equal distances fall back to seq order")
}

func TestIndex_Empty(t *testing.T) {
	idx := NewIndex(nil)

	got, err := idx.InBounds(domain.Bounds{MinLat: -1, MinLng: -1, MaxLat: 1, MaxLng: 1})
	require.NoError(t, err)
	assert.Empty(t, got)
}
