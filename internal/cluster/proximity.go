// Package cluster groups contacts by spatial proximity and by submission
// time. Both clusterers are greedy and order-dependent over their input:
// membership is anchored to the first unvisited contact (the seed), not
// transitively closed. That matches the documented pipeline behavior; a
// union-find pass would change group shapes downstream.
package cluster

import (
	"github.com/tapdeck/groupgen/internal/geo"
	"github.com/tapdeck/groupgen/internal/model"
)

// DefaultProximityThresholdDegrees is the degree-equivalent of roughly
// 500 m at mid latitudes.
const DefaultProximityThresholdDegrees = 0.005

// kmPerDegree converts a degree threshold to the kilometer scale the
// Haversine comparison runs at.
const kmPerDegree = 111.0

// Cluster is an ordered set of contacts satisfying a locality predicate.
type Cluster struct {
	Contacts []model.Contact
}

// IDs returns the member contact IDs in cluster order.
func (c Cluster) IDs() []string {
	ids := make([]string, len(c.Contacts))
	for i, contact := range c.Contacts {
		ids[i] = contact.ID
	}
	return ids
}

// Center returns the mean coordinate of the cluster's members.
func (c Cluster) Center() model.LatLng {
	if len(c.Contacts) == 0 {
		return model.LatLng{}
	}
	var lat, lng float64
	for _, contact := range c.Contacts {
		lat += contact.Location.Latitude
		lng += contact.Location.Longitude
	}
	n := float64(len(c.Contacts))
	return model.LatLng{Latitude: lat / n, Longitude: lng / n}
}

// Proximity groups contacts whose locations fall within thresholdDegrees of
// a cluster seed. Contacts without a location are skipped. Each contact
// joins at most one cluster: the first seed it is in range of. Clusters
// smaller than minSize are discarded.
func Proximity(contacts []model.Contact, thresholdDegrees float64, minSize int) []Cluster {
	if thresholdDegrees <= 0 {
		thresholdDegrees = DefaultProximityThresholdDegrees
	}
	if minSize < 2 {
		minSize = 2
	}
	thresholdKm := thresholdDegrees * kmPerDegree

	visited := make(map[string]bool, len(contacts))
	var clusters []Cluster

	for i, seed := range contacts {
		if visited[seed.ID] || !seed.HasLocation() {
			continue
		}
		visited[seed.ID] = true
		members := []model.Contact{seed}

		for _, other := range contacts[i+1:] {
			if visited[other.ID] || !other.HasLocation() {
				continue
			}
			km := geo.DistanceKm(
				seed.Location.Latitude, seed.Location.Longitude,
				other.Location.Latitude, other.Location.Longitude,
			)
			if km <= thresholdKm {
				visited[other.ID] = true
				members = append(members, other)
			}
		}

		if len(members) >= minSize {
			clusters = append(clusters, Cluster{Contacts: members})
		}
	}

	return clusters
}
