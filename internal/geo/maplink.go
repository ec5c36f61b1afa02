package geo

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/DanielHu2018/PoolParty/internal/models"
)

const directionsBase = "https://www.google.com/maps/dir/?api=1"

// DirectionsURL builds a Google Maps driving-directions link. Address strings
// are preferred because they keep the link human readable; coordinates are
// the fallback when only a geocode is known. With a single side known the
// link still opens as a place pin.
func DirectionsURL(originAddr, destAddr string, origin, dest *models.Coord) string {
	var params []string
	if v := endpointParam(originAddr, origin); v != "" {
		params = append(params, "origin="+v)
	}
	if v := endpointParam(destAddr, dest); v != "" {
		params = append(params, "destination="+v)
	}
	params = append(params, "travelmode=driving")
	return directionsBase + "&" + strings.Join(params, "&")
}

func endpointParam(addr string, c *models.Coord) string {
	if addr != "" {
		return url.QueryEscape(addr)
	}
	if c != nil {
		return url.QueryEscape(fmt.Sprintf("%v,%v", c.Lat, c.Lon))
	}
	return ""
}
