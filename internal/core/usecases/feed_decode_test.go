package usecases_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Singularity-v/MAP/internal/core/domain"
	"github.com/Singularity-v/MAP/internal/core/usecases"
)

func TestDecodeFeed_CoercesTextFields(t *testing.T) {
	sites, dropped, err := usecases.DecodeFeed([]byte(`[
		{"sno":"1001","sna":"捷運永春站","tot":"40","sbi":"12","mday":"20240315083015","lat":"25.04086","lng":"121.57629","ar":"忠孝東路五段455號","act":"1"},
		{"sno":1002,"sna":"松山家商","tot":30,"sbi":0,"lat":25.0445,"lng":121.5770,"ar":"松山路655號"}
	]`))
	require.NoError(t, err)
	assert.Empty(t, dropped)
	require.Len(t, sites, 2)

	s := sites[0]
	assert.Equal(t, "1001", s.ID)
	assert.Equal(t, "捷運永春站", s.Name)
	assert.Equal(t, 40, s.CapacityTotal)
	assert.Equal(t, 12, s.Occupied)
	assert.Equal(t, domain.GeoPoint{Lat: 25.04086, Lng: 121.57629}, s.Position)
	assert.True(t, s.Active)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 30, 15, 0, time.UTC), s.UpdatedAt.UTC())

	assert.Equal(t, "1002", sites[1].ID)
	assert.Equal(t, 30, sites[1].CapacityTotal)
	assert.True(t, sites[1].Active)
	assert.True(t, sites[1].UpdatedAt.IsZero())
}

func TestDecodeFeed_DropsMalformedRecords(t *testing.T) {
	sites, dropped, err := usecases.DecodeFeed([]byte(`[
		{"sno":"1","sna":"ok","tot":"10","sbi":"3","lat":"25.0","lng":"121.5"},
		{"sno":"2","sna":"bad tot","tot":"ten","sbi":"3","lat":"25.0","lng":"121.5"},
		{"sno":"3","sna":"bad lat","tot":"10","sbi":"3","lat":"","lng":"121.5"},
		{"sno":"4","sna":"lat range","tot":"10","sbi":"3","lat":"125.0","lng":"121.5"},
		{"sno":"5","sna":"negative","tot":"10","sbi":"-1","lat":"25.0","lng":"121.5"},
		{"sna":"no id","tot":"10","sbi":"3","lat":"25.0","lng":"121.5"},
		{"sno":"7","sna":"nan","tot":"10","sbi":"3","lat":"NaN","lng":"121.5"},
		"not an object",
		{"sno":"9","sna":"inactive","tot":"10","sbi":"3","lat":"25.0","lng":"121.5","act":"0"}
	]`))
	require.NoError(t, err)
	require.Len(t, sites, 2)
	assert.Equal(t, "1", sites[0].ID)
	assert.Equal(t, "9", sites[1].ID)
	assert.False(t, sites[1].Active)

	require.Len(t, dropped, 7)
	var mre *domain.MalformedRecordError
	require.True(t, errors.As(dropped[0], &mre))
	assert.Equal(t, 1, mre.Index)
	assert.Equal(t, "tot", mre.Field)
}

func TestDecodeFeed_RejectsNonArray(t *testing.T) {
	for _, b := range []string{`{"error":"rate limited"}`, `<html>`, ``, `null`, ` null `} {
		_, _, err := usecases.DecodeFeed([]byte(b))
		assert.Error(t, err, b)
	}
}

func TestDecodeFeed_EmptyArray(t *testing.T) {
	sites, dropped, err := usecases.DecodeFeed([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, sites)
	assert.Empty(t, dropped)
}
