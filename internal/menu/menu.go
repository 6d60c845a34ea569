// Package menu routes each restaurant source to its extraction strategy and
// applies the shared line filters, producing one day's menu per source.
package menu

import (
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/dagenslunch/internal/region"
	"github.com/hyperifyio/dagenslunch/internal/segment"
	"github.com/hyperifyio/dagenslunch/internal/weekday"
)

type strategy func(src Source, day weekday.Weekday) Result

var strategies = map[Kind]strategy{
	KindText:       collectText,
	KindStructured: collectStructured,
	KindImage:      collectImage,
}

// Collect extracts day's menu from every source, keyed by source name.
// Sources without a menu for the day are present with an empty result.
func Collect(sources []Source, day weekday.Weekday) map[string]Result {
	out := make(map[string]Result, len(sources))
	for _, src := range sources {
		out[src.Name] = CollectOne(src, day)
	}
	return out
}

// CollectOrdered is Collect preserving the order of sources.
func CollectOrdered(sources []Source, day weekday.Weekday) []Result {
	out := make([]Result, 0, len(sources))
	for _, src := range sources {
		out = append(out, CollectOne(src, day))
	}
	return out
}

// CollectOne extracts day's menu from a single source.
func CollectOne(src Source, day weekday.Weekday) Result {
	empty := Result{Source: src.Name, Kind: src.Kind, Day: day.Label()}
	if !day.Valid() {
		return empty
	}
	fn, ok := strategies[src.Kind]
	if !ok {
		log.Warn().Str("source", src.Name).Str("kind", string(src.Kind)).Msg("unknown source kind")
		return empty
	}
	res := fn(src, day)
	res.Source, res.Kind, res.Day = src.Name, src.Kind, day.Label()
	log.Debug().Str("source", src.Name).Str("kind", string(src.Kind)).Str("day", day.Label()).
		Int("items", len(res.Items)).Bool("available", res.Available()).Msg("collected")
	return res
}

func collectText(src Source, day weekday.Weekday) Result {
	lines := segment.ExtractDayBlock(src.Raw, day, segment.Options{
		Keywords:  src.Rules.Keywords,
		MinLength: src.Rules.MinLength,
	})
	return Result{Items: Filter(lines, src.Rules)}
}

func collectStructured(src Source, day weekday.Weekday) Result {
	return Result{Items: Filter(src.Days[day], src.Rules)}
}

func collectImage(src Source, day weekday.Weekday) Result {
	anchors := region.FindDayAnchors(src.Detections)
	r, ok := src.Rules.Layout.CropRegionFor(day, anchors, src.ImageWidth, src.ImageHeight)
	if !ok {
		return Result{}
	}
	return Result{Region: &r, ImageRef: src.ImageRef}
}
