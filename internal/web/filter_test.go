package web

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roomiez/webapp/internal/model"
)

func sampleRooms() []model.Room {
	return []model.Room{
		{ID: 1, Title: "Bright room near campus", Address: "Cra 45 #12", Price: 350, IsAvailable: true},
		{ID: 2, Title: "Shared apartment", Address: "Cll 80 #7", Price: 250, IsAvailable: false},
		{ID: 3, Title: "Studio downtown", Description: "quiet studio", Address: "Cra 1 #99", Price: 450, IsAvailable: true},
	}
}

func Test_filterRooms(t *testing.T) {
	assert := assert.New(t)

	available := filterRooms(sampleRooms(), "available")
	assert.Len(available, 2)
	for _, room := range available {
		assert.True(bool(room.IsAvailable))
	}

	low := filterRooms(sampleRooms(), "price-low")
	assert.Equal([]int{2, 1, 3}, []int{low[0].ID, low[1].ID, low[2].ID})

	high := filterRooms(sampleRooms(), "price-high")
	assert.Equal([]int{3, 1, 2}, []int{high[0].ID, high[1].ID, high[2].ID})

	all := filterRooms(sampleRooms(), "all")
	assert.Len(all, 3)
	assert.Equal(1, all[0].ID)
}

func Test_searchRooms(t *testing.T) {
	assert := assert.New(t)

	rooms := sampleRooms()

	assert.Len(searchRooms(rooms, ""), 3)
	assert.Len(searchRooms(rooms, "  "), 3)

	byTitle := searchRooms(rooms, "CAMPUS")
	assert.Len(byTitle, 1)
	assert.Equal(1, byTitle[0].ID)

	byDescription := searchRooms(rooms, "quiet")
	assert.Len(byDescription, 1)
	assert.Equal(3, byDescription[0].ID)

	byPrice := searchRooms(rooms, "450")
	assert.Len(byPrice, 1)
	assert.Equal(3, byPrice[0].ID)

	assert.Empty(searchRooms(rooms, "nothing matches this"))
}
