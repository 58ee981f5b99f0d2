package web

import (
	"sort"
	"strconv"
	"strings"

	"github.com/roomiez/webapp/internal/model"
)

// filterRooms applies the listing-grid filter options: "available",
// "price-low", "price-high", anything else leaves the order alone.
func filterRooms(rooms []model.Room, filter string) []model.Room {
	out := make([]model.Room, len(rooms))
	copy(out, rooms)

	switch filter {
	case "available":
		kept := out[:0]
		for _, room := range out {
			if bool(room.IsAvailable) {
				kept = append(kept, room)
			}
		}
		out = kept
	case "price-low":
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case "price-high":
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	}
	return out
}

// searchRooms is the free-text search over title, description, address
// and price.
func searchRooms(rooms []model.Room, query string) []model.Room {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return rooms
	}

	var out []model.Room
	for _, room := range rooms {
		if strings.Contains(strings.ToLower(room.Title), q) ||
			strings.Contains(strings.ToLower(room.Description), q) ||
			strings.Contains(strings.ToLower(room.Address), q) ||
			strings.Contains(strconv.FormatFloat(room.Price, 'f', -1, 64), q) {
			out = append(out, room)
		}
	}
	return out
}
