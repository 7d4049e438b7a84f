package geoip

import (
	"errors"
	"net"
	"testing"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/oschwald/geoip2-golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	city  *geoip2.City
	err   error
	calls int
}

func (f *fakeReader) City(net.IP) (*geoip2.City, error) {
	f.calls++
	return f.city, f.err
}

func cityAt(lat, lon float64) *geoip2.City {
	c := &geoip2.City{}
	c.Location.Latitude = lat
	c.Location.Longitude = lon
	return c
}

func TestLocate_Found(t *testing.T) {
	l := &Locator{reader: &fakeReader{city: cityAt(28.6519, 77.2315)}}

	c, ok, err := l.Locate(net.ParseIP("49.36.0.1"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domain.Coordinate{Lat: 28.6519, Lon: 77.2315}, c)
}

func TestLocate_SkipsNonRoutable(t *testing.T) {
	r := &fakeReader{city: cityAt(1, 1)}
	l := &Locator{reader: r}

	for _, addr := range []string{"127.0.0.1", "10.1.2.3", "192.168.0.10", "::1", "fe80::1", "0.0.0.0"} {
		_, ok, err := l.Locate(net.ParseIP(addr))
		require.NoError(t, err, addr)
		assert.False(t, ok, addr)
	}
	_, ok, err := l.Locate(nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, r.calls)
}

func TestLocate_NoFix(t *testing.T) {
	l := &Locator{reader: &fakeReader{city: cityAt(0, 0)}}

	_, ok, err := l.Locate(net.ParseIP("203.0.113.9"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocate_ReaderError(t *testing.T) {
	l := &Locator{reader: &fakeReader{err: errors.New("invalid database")}}

	_, _, err := l.Locate(net.ParseIP("203.0.113.9"))
	require.Error(t, err)
}

func TestOpen_MissingDatabase(t *testing.T) {
	_, err := Open("testdata/missing.mmdb")
	require.Error(t, err)
}
