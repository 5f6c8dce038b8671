// SPDX-License-Identifier: MIT

package normalize

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAspectRatio(t *testing.T) {
	cases := []struct {
		width, height int
		want          string
	}{
		{1920, 1080, "16:9"},
		{1280, 720, "16:9"},
		{640, 480, "4:3"},
		{1080, 1920, "9:16"},
		{100, 100, "1:1"},
		{0, 1080, "16:9"},
		{-1, 5, "16:9"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, AspectRatio(c.width, c.height), "for %dx%d", c.width, c.height)
	}
}

func TestParseFrameRate(t *testing.T) {
	rate, err := ParseFrameRate("30000/1001")
	require.NoError(t, err)
	assert.InDelta(t, 29.97, rate, 0.001)

	rate, err = ParseFrameRate("25/1")
	require.NoError(t, err)
	assert.InDelta(t, 25.0, rate, 0.0001)

	rate, err = ParseFrameRate("50")
	require.NoError(t, err)
	assert.InDelta(t, 50.0, rate, 0.0001)

	_, err = ParseFrameRate("abc")
	assert.Error(t, err)

	_, err = ParseFrameRate("25/0")
	assert.Error(t, err)

	_, err = ParseFrameRate("25/x")
	assert.Error(t, err)
}

func TestPackageURL(t *testing.T) {
	origin, err := url.Parse("https://assets.example.com")
	require.NoError(t, err)

	assert.Equal(t,
		"https://assets.example.com/normalized/AD1/AD1.m3u8",
		PackageURL(origin, "s3://ad-output/normalized/AD1", "AD1"),
		"storage scheme and bucket host are dropped")

	assert.Equal(t,
		"https://assets.example.com/normalized/AD1/index.m3u8",
		PackageURL(origin, "/normalized/AD1", "index"))
}
