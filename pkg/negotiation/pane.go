package negotiation

import (
	"github.com/jwebster45206/barter-engine/pkg/item"
	"github.com/jwebster45206/barter-engine/pkg/textfilter"
	"github.com/jwebster45206/barter-engine/pkg/trade"
)

// paneState is the cursor and filter state of one offer list.
type paneState struct {
	filter         string
	filtered       []int // indices into the offer list, in list order
	offset         int
	cursor         int // index into filtered
	categoryCursor int // index into the category ranges of filtered
}

// categoryRange is a run of filtered entries sharing a category.
// start and end index the filtered list, end exclusive.
type categoryRange struct {
	id    string
	start int
	end   int
}

func filterIndices(list []*trade.Offer, filter string) []int {
	items := make([]*item.Item, len(list))
	for i, o := range list {
		items[i] = o.Front()
	}
	return textfilter.Indices(items, filter)
}

func buildCategoryRanges(list []*trade.Offer, filtered []int) []categoryRange {
	var ranges []categoryRange
	for idx, li := range filtered {
		id := list[li].Front().Category.ID
		if len(ranges) == 0 || ranges[len(ranges)-1].id != id {
			ranges = append(ranges, categoryRange{id: id, start: idx, end: idx + 1})
			continue
		}
		ranges[len(ranges)-1].end = idx + 1
	}
	return ranges
}

// rangeOf returns the index of the range holding category id, or -1.
func rangeOf(ranges []categoryRange, id string) int {
	for i, r := range ranges {
		if r.id == id {
			return i
		}
	}
	return -1
}

// clamp keeps the cursor inside the filtered list and scrolls the page so
// the cursor is visible. The last page may be short.
func (p *paneState) clamp(pageSize int) {
	size := len(p.filtered)
	if size == 0 {
		p.cursor, p.offset = 0, 0
		return
	}
	p.cursor = min(max(p.cursor, 0), size-1)
	if pageSize <= 0 || size <= pageSize {
		p.offset = 0
		return
	}
	if p.cursor < p.offset {
		p.offset = p.cursor
	} else if p.cursor >= p.offset+pageSize {
		p.offset = p.cursor - pageSize + 1
	}
}

func (p *paneState) moveUp() {
	if len(p.filtered) == 0 {
		return
	}
	if p.cursor > 0 {
		p.cursor--
	} else {
		p.cursor = len(p.filtered) - 1
	}
}

func (p *paneState) moveDown() {
	if len(p.filtered) == 0 {
		return
	}
	if p.cursor+1 < len(p.filtered) {
		p.cursor++
	} else {
		p.cursor = 0
	}
}
